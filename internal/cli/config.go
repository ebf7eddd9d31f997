package cli

import (
	"github.com/toyz/strata/internal/config"
	"github.com/toyz/strata/internal/utils"
)

// Options holds the configuration for the CLI generator
type Options struct {
	// Dir is the project directory patterns are resolved against
	Dir string

	// Config is the loaded strata.yaml, defaults when nil
	Config *config.Config

	// Patterns override Config.Patterns when set
	Patterns []string

	// ModuleName is the custom module name used for output import paths.
	// If empty, it is read from go.mod.
	ModuleName string

	Diagnostics *utils.DiagnosticSystem
}

func (o Options) patterns() []string {
	if len(o.Patterns) > 0 {
		return o.Patterns
	}
	return o.Config.Patterns
}
