package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/toyz/strata/internal/cli"
)

func newGenerateCommand(flags *globalFlags) *cobra.Command {
	var (
		watch    bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate [patterns...]",
		Short: "Generate binders, scopes, Controllers and async wrappers",
		Long: `Generate loads the packages matching the patterns (default from strata.yaml,
usually ./...), resolves the object graph and writes the generated units.
Nothing is written when any error is found.`,
		Example: `  strata generate
  strata generate ./internal/...
  strata generate --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				return runGenerate(cmd.Context(), flags, args)
			}
			return runWatch(cmd.Context(), flags, args, debounce)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate whenever a source file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before regenerating (default from strata.yaml)")
	return cmd
}

func runGenerate(ctx context.Context, flags *globalFlags, patterns []string) error {
	g, _, diag, err := flags.load(patterns)
	if err != nil {
		return flags.fail(err)
	}

	diag.StrataHeader("Generating wiring")
	diag.SourcePath(flags.dir)
	if err := g.Run(ctx); err != nil {
		return flags.fail(err)
	}
	diag.Summary("Summary", g.Summary().Stats())
	diag.GenerationComplete()
	return nil
}

func runWatch(ctx context.Context, flags *globalFlags, patterns []string, debounce time.Duration) error {
	g, cfg, diag, err := flags.load(patterns)
	if err != nil {
		return flags.fail(err)
	}
	if debounce <= 0 {
		debounce = cfg.Watch.Debounce
	}
	dirs, err := g.WatchDirectories()
	if err != nil {
		return flags.fail(err)
	}

	// strata.yaml is read again on every pass
	pass := func(ctx context.Context) error {
		return runGenerate(ctx, flags, patterns)
	}
	diag.StrataHeader("Watching for changes")
	return cli.NewWatcher(dirs, debounce, pass, diag).Run(ctx)
}
