package main

import (
	"errors"
	"os"

	tex2img "github.com/svinagrero/go-tex2img"
	"github.com/svinagrero/go-tex2img/internal/config"
)

// Exit codes for the tex2img CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // successful render
	ExitGeneral   = 1 // general/unexpected error
	ExitUsage     = 2 // invalid flags, config, or validation
	ExitIO        = 3 // file not found, permission denied
	ExitToolchain = 4 // missing tools or failed toolchain processes
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Toolchain errors (exit 4)
	if errors.Is(err, tex2img.ErrMissingDependency) ||
		errors.Is(err, tex2img.ErrStepExecution) {
		return ExitToolchain
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, tex2img.ErrOutputWrite) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, tex2img.ErrEmptyBody) ||
		errors.Is(err, tex2img.ErrUnsupportedFormat) ||
		errors.Is(err, tex2img.ErrUnknownStep) ||
		errors.Is(err, tex2img.ErrUnknownFlow) ||
		errors.Is(err, tex2img.ErrFlowInvariant) ||
		errors.Is(err, tex2img.ErrTemplate) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidColor) ||
		errors.Is(err, ErrOutputConflict) {
		return ExitUsage
	}

	return ExitGeneral
}
