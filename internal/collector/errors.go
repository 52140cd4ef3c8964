package collector

import "fmt"

// ConnectionError means no session could be established. The run produced
// nothing.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandExecutionError means a single command failed on an open session.
// Its result is absent from the run; other commands still ran.
type CommandExecutionError struct {
	Command string
	Err     error
}

func (e *CommandExecutionError) Error() string {
	return fmt.Sprintf("run %q: %v", e.Command, e.Err)
}

func (e *CommandExecutionError) Unwrap() error { return e.Err }
