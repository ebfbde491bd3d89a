//go:build !unix

package launcher

import (
	"os"
	"os/exec"
)

// setProcessGroup is a no-op on non-Unix platforms.
func setProcessGroup(*exec.Cmd) {}

// killProcessGroup signals the process directly on non-Unix platforms.
func killProcessGroup(cmd *exec.Cmd, sig os.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(sig)
}

// killProcessGroupWithSIGKILL kills the process directly on non-Unix platforms.
func killProcessGroupWithSIGKILL(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// getExitCodeFromError returns false; WaitStatus is unavailable here.
func getExitCodeFromError(*exec.ExitError) (int, bool) {
	return 0, false
}

// InterruptSignals returns the signals that should cancel a run.
func InterruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
