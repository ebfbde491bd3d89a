// Package launcher starts a child process with its standard output and
// standard error exposed as separate pipes.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// waitDelay bounds how long the output pipes stay open after the child
// exits, e.g. when a grandchild inherited them. Output written after that is
// dropped.
const waitDelay = 2 * time.Second

// Process is a started child. The child is reaped in the background; Stdout
// and Stderr reach EOF once it has exited and its output is drained, or
// waitDelay after exit when descendants hold the pipes open. A reader that
// stops early must Close its pipe so the child's output is not blocked.
type Process struct {
	cmd     *exec.Cmd
	Stdout  io.ReadCloser
	Stderr  io.ReadCloser
	Started time.Time

	done    chan struct{}
	waitErr error
}

// Start runs name with args. Standard input is the null device; environment
// and working directory are inherited. Cancelling ctx kills the child's
// process group.
//
// Use errors.Is(err, exec.ErrNotFound) to detect a missing executable.
func Start(ctx context.Context, name string, args []string) (*Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	cmd.Stdin = nil
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessGroupWithSIGKILL(cmd)
	}
	cmd.WaitDelay = waitDelay

	// Non-file writers make exec copy output on its own goroutines, which
	// WaitDelay cuts off once the child has exited.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		_ = stdoutW.Close()
		_ = stderrW.Close()
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}

	p := &Process{
		cmd:     cmd,
		Stdout:  stdoutR,
		Stderr:  stderrR,
		Started: time.Now(),
		done:    make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		_ = stdoutW.Close()
		_ = stderrW.Close()
		close(p.done)
	}()
	return p, nil
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the child has exited and its output pipes are closed,
// then returns its exit code. A non-zero exit is returned together with an
// error wrapping *exec.ExitError. A clean exit whose pipes had to be closed
// after waitDelay returns 0 and exec.ErrWaitDelay.
func (p *Process) Wait() (int, error) {
	<-p.done
	if errors.Is(p.waitErr, exec.ErrWaitDelay) {
		return 0, p.waitErr
	}
	return ExitCode(p.waitErr), p.waitErr
}

// Signal forwards sig to the child's process group.
func (p *Process) Signal(sig os.Signal) error {
	return killProcessGroup(p.cmd, sig)
}

// ExitCode maps the error from Start or Wait to a shell-style exit code:
// 0 for nil, the child's status for an exit error, 127 when the command was
// not found and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := getExitCodeFromError(exitErr); ok {
			return code
		}
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
		return 1
	}

	if IsCommandNotFound(err) {
		return 127
	}
	return 1
}

// IsCommandNotFound reports whether err means the executable does not exist.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	// A path that does not exist fails in os.StartProcess, not LookPath.
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "executable file not found") {
		return true
	}
	return runtime.GOOS != "windows" && strings.Contains(errStr, "no such file or directory")
}
