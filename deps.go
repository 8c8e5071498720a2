package tex2img

import (
	"os/exec"
	"path/filepath"
)

// Availability is the result of resolving one step's executable on the
// system search path.
type Availability struct {
	Step       string `json:"step"`
	Executable string `json:"executable"`
	Found      bool   `json:"found"`
	Path       string `json:"path,omitempty"`
	Command    string `json:"command"` // rendered example command line
}

// Checker resolves step executables without running them.
// LookPath is injectable for tests; the zero value is not usable, create
// with NewChecker.
type Checker struct {
	LookPath func(file string) (string, error)
}

// NewChecker returns a Checker backed by exec.LookPath.
func NewChecker() *Checker {
	return &Checker{LookPath: exec.LookPath}
}

// Check resolves one step's executable. It never executes the tool.
func (c *Checker) Check(step Step) Availability {
	a := Availability{
		Step:       step.Name,
		Executable: step.Executable,
		Command:    ExampleCommand(step),
	}
	if path, err := c.LookPath(step.Executable); err == nil {
		a.Found = true
		a.Path = path
	}
	return a
}

// CheckAll produces one Availability per step, in order. Used for the
// check-deps report and as the pre-flight gate before execution.
func (c *Checker) CheckAll(steps []Step) []Availability {
	out := make([]Availability, len(steps))
	for i, s := range steps {
		out[i] = c.Check(s)
	}
	return out
}

// Missing returns the distinct executables from steps that are not found,
// preserving first-seen order.
func (c *Checker) Missing(steps []Step) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, s := range steps {
		if seen[s.Executable] {
			continue
		}
		seen[s.Executable] = true
		if _, err := c.LookPath(s.Executable); err != nil {
			missing = append(missing, s.Executable)
		}
	}
	return missing
}

// ExampleCommand renders a step's command line against sample artifact
// paths, for diagnostics. Falls back to the raw template if the step
// references a placeholder outside the standard set.
func ExampleCommand(step Step) string {
	props := exampleProps()
	argv, err := renderArgs(step.Args, props)
	if err != nil {
		return step.Command()
	}
	line := step.Executable
	for _, a := range argv {
		line += " " + a
	}
	return line
}

// exampleProps builds the placeholder set the executor would provide, with
// a sample base name.
func exampleProps() map[string]string {
	props := map[string]string{
		"out_file": "example.out",
		"outdir":   ".",
		"filename": "example",
		"prefix":   "eq_",
	}
	for _, suffix := range []string{SuffixTeX, SuffixDVI, SuffixPS, SuffixEPS, SuffixPDF, SuffixSVG, SuffixPNG, SuffixJPG, SuffixTIF} {
		props[suffix+"_file"] = filepath.Join(".", "example."+suffix)
	}
	return props
}
