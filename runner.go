package tex2img

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/svinagrero/go-tex2img/internal/process"
)

// CommandRunner abstracts external process execution to enable testing
// without a TeX toolchain installed.
type CommandRunner interface {
	// Run executes name with args in dir, blocking until the process
	// exits or ctx is done. Standard output and error are captured for
	// diagnostics, never parsed for control decisions.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

// Compile-time interface check.
var _ CommandRunner = ExecRunner{}

// waitDelay bounds how long Wait lingers after a kill before abandoning
// the process's I/O pipes.
const waitDelay = 5 * time.Second

// Run executes the command in its own process group so cancellation and
// timeouts also reach children spawned by latex or ghostscript.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	process.SetGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			process.KillGroup(cmd.Process.Pid)
		}
		return nil
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
