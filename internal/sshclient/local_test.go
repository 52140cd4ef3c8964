//go:build !windows

package sshclient

import (
	"context"
	"testing"
)

func TestExecuteLocal(t *testing.T) {
	out, err := ExecuteLocal(context.Background(), "echo hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello\n" {
		t.Errorf("output = %q", out)
	}
}

func TestLocalExecutor_NonZeroWithOutput(t *testing.T) {
	out, err := NewLocalExecutor().Run(context.Background(), "echo partial; exit 1")
	if err != nil {
		t.Fatalf("non-zero exit with output should not fail: %v", err)
	}
	if out != "partial\n" {
		t.Errorf("output = %q", out)
	}
}

func TestLocalExecutor_Failure(t *testing.T) {
	if _, err := NewLocalExecutor().Run(context.Background(), "exit 3"); err == nil {
		t.Fatal("expected error for silent non-zero exit")
	}
}
