package sshclient

import (
	"strings"
	"testing"
)

func TestCommands(t *testing.T) {
	want := []string{"top -b -n 1", "df -hl"}
	got := Commands()
	if len(got) != len(want) {
		t.Fatalf("Commands() = %v; want %v", got, want)
	}
	for i, cmd := range got {
		if cmd.String() != want[i] {
			t.Errorf("Commands()[%d] = %q; want %q", i, cmd.String(), want[i])
		}
	}
	if got[0] != CmdProcessSnapshot() || got[1] != CmdDiskUsage() {
		t.Error("Commands() must compare equal to the named constructors")
	}
}

func TestAllowedCommand_ZeroValue(t *testing.T) {
	var cmd AllowedCommand
	if got := cmd.String(); got != "false" {
		t.Errorf("zero command = %q; want %q", got, "false")
	}
	if err := ErrUnsupported(cmd); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("ErrUnsupported = %v", err)
	}
}
