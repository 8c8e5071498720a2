package tex2img

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	ErrEmptyBody         = errors.New("tex body cannot be empty")
	ErrUnknownStep       = errors.New("unknown step")
	ErrUnknownFlow       = errors.New("unknown flow variant")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrFlowInvariant     = errors.New("invalid flow definition")
	ErrMissingDependency = errors.New("missing toolchain dependency")
	ErrTemplate          = errors.New("template substitution failed")
	ErrStepExecution     = errors.New("step execution failed")
	ErrOutputWrite       = errors.New("failed to deliver output file")
)

// StepError reports a pipeline step whose external process failed: a
// non-zero exit, a timeout, or a missing/empty output artifact. It carries
// the rendered command line and the captured process output so failures are
// diagnosable without re-running.
type StepError struct {
	Step     string // logical step name, e.g. "svg"
	Command  string // fully rendered command line
	ExitCode int    // -1 when the process did not run or was killed
	Stdout   string
	Stderr   string
	Timeout  bool
	Reason   string // non-exit failures, e.g. "produced no output artifact"
}

func (e *StepError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %q (%s) failed", e.Step, e.Command)
	switch {
	case e.Timeout:
		b.WriteString(": timed out")
	case e.Reason != "":
		b.WriteString(": " + e.Reason)
	default:
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		b.WriteString(": " + msg)
	}
	return b.String()
}

func (e *StepError) Unwrap() error { return ErrStepExecution }

// MissingDependencyError is the pre-flight gate failure. It names every
// executable the resolved flow needs that is absent from the search path.
type MissingDependencyError struct {
	Executables []string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingDependency, strings.Join(e.Executables, ", "))
}

func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }
