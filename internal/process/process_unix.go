//go:build !windows

// Package process provides platform-specific process group control so that
// killing a pipeline step also kills the children it spawned (latex and
// ghostscript both fork helpers).
package process

import (
	"os/exec"
	"syscall"
)

// SetGroup places the command in its own process group so the whole group
// can be signalled at once. Must be called before the command starts.
func SetGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillGroup kills a process and all its children by sending SIGKILL to the
// process group (negative PID).
func KillGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
