// Package config loads render profiles from YAML files.
// A profile holds the defaults a user would otherwise repeat on every
// invocation: document template and preamble paths, fontsize, template
// parameters, and per-step command argument overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidValue   = errors.New("invalid config value")
)

// Fontsize bounds in points. TeX document classes accept a narrow range;
// anything outside is almost certainly a typo.
const (
	MinFontSize = 1
	MaxFontSize = 100
)

// MaxProfileSize caps a profile file at 1MB. A profile is a handful of
// paths and overrides; anything larger is not a profile.
const MaxProfileSize = 1 << 20

// Config holds a render profile.
type Config struct {
	TemplateFile string            `yaml:"templateFile"` // path to a document template
	PreambleFile string            `yaml:"preambleFile"` // path to a preamble
	FontSize     int               `yaml:"fontsize"`     // 0 = library default
	Params       map[string]string `yaml:"params"`       // extra template parameters
	Arguments    map[string]string `yaml:"arguments"`    // step name -> argument template
	Optimize     bool              `yaml:"optimize"`     // run scour on SVG output
	Keep         bool              `yaml:"keep"`         // keep intermediate artifacts
	WorkDir      string            `yaml:"workdir"`      // parent for per-request working areas ("" = temp)
	Timeout      string            `yaml:"timeout"`      // per-step timeout, Go duration syntax
}

// Default returns an empty profile; zero values defer to library defaults.
func Default() *Config {
	return &Config{}
}

// Load reads and validates a profile from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrConfigParse, path)
	}
	if len(data) > MaxProfileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrConfigParse, path, len(data), MaxProfileSize)
	}

	// Strict mode rejects unknown keys, so a typoed field name fails
	// loudly instead of silently falling back to a default.
	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Zero values are always valid since they
// mean "use the default".
func (c *Config) Validate() error {
	if c.FontSize != 0 && (c.FontSize < MinFontSize || c.FontSize > MaxFontSize) {
		return fmt.Errorf("%w: fontsize %d (must be %d-%d)", ErrInvalidValue, c.FontSize, MinFontSize, MaxFontSize)
	}
	if _, err := c.StepTimeout(); err != nil {
		return err
	}
	return nil
}

// StepTimeout parses the timeout field. Returns 0 when unset.
func (c *Config) StepTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q: %v", ErrInvalidValue, c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout %q must be positive", ErrInvalidValue, c.Timeout)
	}
	return d, nil
}
