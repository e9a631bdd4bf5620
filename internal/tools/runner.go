package tools

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Result carries the captured output and exit code of one finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Combined returns stdout followed by stderr as one string, for marker scans.
func (r Result) Combined() string {
	return string(r.Stdout) + string(r.Stderr)
}

// CommandRunner abstracts external-tool execution so probe and session logic
// can be exercised against a recording fake with no hardware attached.
// RunIn anchors the command to a working directory; streaming runs carry a
// context so foreground children can be torn down on cancellation.
type CommandRunner interface {
	Run(name string, args ...string) (Result, error)
	RunIn(dir, name string, args ...string) (Result, error)
	RunStreaming(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// Process is a handle to a detached child, enough to tear it down on signal.
type Process interface {
	Kill() error
	Wait() error
}

// ProcessStarter starts a detached background child process.
type ProcessStarter interface {
	Start(name string, args ...string) (Process, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (r ExecRunner) Run(name string, args ...string) (Result, error) {
	return r.RunIn("", name, args...)
}

func (ExecRunner) RunIn(dir, name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, err
	}

	res.ExitCode = 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		res.ExitCode = 127
	}
	return res, err
}

func (ExecRunner) RunStreaming(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}
	return cmd.Run()
}

func (ExecRunner) Start(name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p execProcess) Wait() error {
	return p.cmd.Wait()
}
