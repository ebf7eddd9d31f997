// Package config loads strata.yaml, the per-project generator settings.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/toyz/strata/internal/errors"
)

// FileName is the config file looked up in the working directory
const FileName = "strata.yaml"

// Builtin root interfaces every project may implement by embedding
// strata.Application or strata.Screen
const (
	ApplicationRootInterface = "github.com/toyz/strata/pkg/strata.ApplicationRoot"
	ScreenRootInterface      = "github.com/toyz/strata/pkg/strata.ScreenRoot"
)

// Config is the generator configuration
type Config struct {
	// Patterns are go/packages load patterns, e.g. ./...
	Patterns []string `yaml:"patterns" validate:"min=1,dive,required"`

	Output      OutputConfig      `yaml:"output"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Roots       RootsConfig       `yaml:"roots"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Watch       WatchConfig       `yaml:"watch"`
	Inspect     InspectConfig     `yaml:"inspect"`

	// Source is the file the config was read from, empty for defaults
	Source string `yaml:"-"`
}

// OutputConfig controls where scope units are written
type OutputConfig struct {
	// Dir overrides the output directory; by default units are written next
	// to the ApplicationRoot type
	Dir string `yaml:"dir"`

	// Package names the output package when Dir holds no Go files yet
	Package string `yaml:"package" validate:"omitempty,goident"`
}

// DiscoveryConfig tunes role discovery
type DiscoveryConfig struct {
	// Exhaustive evaluates every marker role independently instead of
	// stopping at the first type-level match
	Exhaustive bool `yaml:"exhaustive"`
}

// RootsConfig extends the root allow-lists with project interfaces
type RootsConfig struct {
	Application []string `yaml:"application" validate:"dive,qualifiedtype"`
	Screen      []string `yaml:"screen" validate:"dive,qualifiedtype"`
}

// DiagnosticsConfig sets generator output verbosity
type DiagnosticsConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=silent error warn info verbose debug"`
}

// WatchConfig tunes generate --watch
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// InspectConfig tunes inspect --listen
type InspectConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Patterns: []string{"./..."},
		Diagnostics: DiagnosticsConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Inspect: InspectConfig{
			Listen: "127.0.0.1:7070",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.WrapConfigurationError(FileName, "read", err)
	}

	if err := Decode(content, cfg); err != nil {
		return nil, err
	}
	cfg.Source = path
	return cfg, cfg.Validate()
}

// Decode unmarshals YAML into cfg, rejecting unknown keys
func Decode(content []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.WrapConfigurationError(FileName, "decode", err)
	}
	return nil
}

// ApplicationRoots returns the builtin and configured ApplicationRoot interfaces
func (c *Config) ApplicationRoots() []string {
	return append([]string{ApplicationRootInterface}, c.Roots.Application...)
}

// ScreenRoots returns the builtin and configured ScreenRoot interfaces
func (c *Config) ScreenRoots() []string {
	return append([]string{ScreenRootInterface}, c.Roots.Screen...)
}

// Validate checks the struct tags
func (c *Config) Validate() error {
	if err := validate().Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.WrapConfigurationError(FileName, "validate", err)
		}
		multi := errors.NewMultipleErrors()
		for _, fe := range verrs {
			multi.Add(errors.New(errors.ConfigurationErrorCode,
				fmt.Sprintf("%s: failed '%s' check (value %v)", fieldPath(fe), fe.Tag(), fe.Value())).
				WithContext("field", fieldPath(fe)).
				WithLocation(errors.SourceLocation{File: c.sourceName()}))
		}
		return multi
	}
	return nil
}

func (c *Config) sourceName() string {
	if c.Source == "" {
		return FileName
	}
	return c.Source
}

// fieldPath renders Config.Roots.Application[0] as roots.application[0]
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}
