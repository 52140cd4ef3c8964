package sshclient

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
)

// LocalExecutor runs the collection commands on this machine. It satisfies
// the same Run/Close contract as Session so the collector pipeline does not
// care where the text came from.
type LocalExecutor struct {
	Shell string
}

func NewLocalExecutor() *LocalExecutor {
	shell := "sh"
	if runtime.GOOS == "windows" {
		shell = "cmd"
	}
	return &LocalExecutor{Shell: shell}
}

func (l *LocalExecutor) Run(ctx context.Context, cmd string) (string, error) {
	flag := "-c"
	if l.Shell == "cmd" {
		flag = "/C"
	}
	out, err := exec.CommandContext(ctx, l.Shell, flag, cmd).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(out) > 0 {
		return string(out), nil
	}
	return string(out), err
}

func (l *LocalExecutor) Close() error { return nil }

// ExecuteLocal runs one command through the default local shell.
func ExecuteLocal(ctx context.Context, cmd string) (string, error) {
	return NewLocalExecutor().Run(ctx, cmd)
}
