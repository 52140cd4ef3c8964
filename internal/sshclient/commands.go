package sshclient

import "fmt"

// AllowedCommand is one of the fixed diagnostic commands. Nothing else is ever
// sent to a host.
type AllowedCommand struct {
	kind string
}

func (c AllowedCommand) String() string {
	switch c.kind {
	case "process":
		return "top -b -n 1"
	case "disk":
		return "df -hl"
	default:
		return "false"
	}
}

func CmdProcessSnapshot() AllowedCommand { return AllowedCommand{kind: "process"} }
func CmdDiskUsage() AllowedCommand       { return AllowedCommand{kind: "disk"} }

// Commands is the collection set, in the order it runs on a session.
func Commands() []AllowedCommand {
	return []AllowedCommand{CmdProcessSnapshot(), CmdDiskUsage()}
}

func ErrUnsupported(cmd AllowedCommand) error {
	return fmt.Errorf("unsupported command kind=%q", cmd.kind)
}
