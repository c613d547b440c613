package bridge

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result is the outcome of one privileged command invocation. Status 0
// denotes success; any other value is failure and Stderr carries the
// diagnostic text.
type Result struct {
	Status int
	Stdout string
	Stderr string
}

// Executor runs shell-style command lines with elevated permissions. It is
// stateless per call: no session or connection state is held across calls.
type Executor interface {
	Exec(ctx context.Context, commandLine string) (Result, error)
}

// ShellExecutor runs command lines through a shell binary. On the device
// the console runs as root, so a plain `sh -c` carries the privilege.
type ShellExecutor struct {
	Shell string // defaults to /system/bin/sh, falling back to sh
}

// Exec runs commandLine and captures status plus both output streams.
// A non-zero exit is not an error at this layer; it is reported in Result.
func (s *ShellExecutor) Exec(ctx context.Context, commandLine string) (Result, error) {
	shell := s.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", commandLine)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Status = exitErr.ExitCode()
			return res, nil
		}
		// Binary missing, context cancelled, etc.
		return res, err
	}
	return res, nil
}

// firstLine returns the first line of s, trimmed.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
