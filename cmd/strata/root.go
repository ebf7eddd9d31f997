package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/toyz/strata/internal/cli"
	"github.com/toyz/strata/internal/config"
	"github.com/toyz/strata/internal/utils"
)

// globalFlags are shared by every command
type globalFlags struct {
	dir        string
	configPath string
	module     string
	level      string
	verbose    bool
	quiet      bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "strata",
		Short: "Strata dependency wiring generator",
		Long: `Strata scans Go packages for //strata:: markers and generates binders,
scope units, the Controllers startup orchestrator and async wrappers.

Settings are read from strata.yaml in the project directory; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.dir, "dir", "C", ".", "Project directory patterns are resolved against")
	pf.StringVar(&flags.configPath, "config", config.FileName, "Config file, relative to --dir")
	pf.StringVar(&flags.module, "module", "", "Module path used for output import paths (defaults to go.mod)")
	pf.StringVar(&flags.level, "level", "", "Diagnostic level: silent, error, warn, info, verbose or debug")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Shorthand for --level verbose")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "Shorthand for --level error")

	root.AddCommand(
		newGenerateCommand(flags),
		newCleanCommand(flags),
		newInspectCommand(flags),
	)
	return root
}

// load reads the config file and builds the generator of one pass
func (f *globalFlags) load(patterns []string) (*cli.Generator, *config.Config, *utils.DiagnosticSystem, error) {
	path := f.configPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dir, path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}

	diag, err := f.diagnostics(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Source == "" {
		diag.Debug("No %s found, using defaults", config.FileName)
	}

	g := cli.NewGenerator(cli.Options{
		Dir:         f.dir,
		Config:      cfg,
		Patterns:    patterns,
		ModuleName:  f.module,
		Diagnostics: diag,
	})
	return g, cfg, diag, nil
}

func (f *globalFlags) diagnostics(cfg *config.Config) (*utils.DiagnosticSystem, error) {
	name := cfg.Diagnostics.Level
	switch {
	case f.level != "":
		name = f.level
	case f.verbose:
		name = "verbose"
	case f.quiet:
		name = "error"
	}
	level, err := utils.ParseDiagnosticLevel(name)
	if err != nil {
		return nil, fmt.Errorf("--level: %w", err)
	}
	if f.stdout == os.Stdout {
		return utils.NewDiagnosticSystem(level), nil
	}
	return utils.NewBufferedDiagnostics(level, f.stdout), nil
}

func (f *globalFlags) reporter() *cli.DiagnosticReporter {
	verbose := f.verbose || f.level == "verbose" || f.level == "debug"
	if f.stderr == os.Stderr {
		return cli.NewDiagnosticReporter(verbose)
	}
	return cli.NewDiagnosticReporterTo(f.stderr, verbose)
}

// reportedError marks an error already printed by the reporter
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func (f *globalFlags) fail(err error) error {
	f.reporter().ReportError(err)
	return reportedError{err}
}
