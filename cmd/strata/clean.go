package main

import (
	"github.com/spf13/cobra"
)

func newCleanCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [patterns...]",
		Short: "Delete every generated file below the patterns",
		Long: `Clean removes the files previously written by strata. Only files starting
with the generated header are removed; hand-written files are never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, diag, err := flags.load(args)
			if err != nil {
				return flags.fail(err)
			}

			removed, err := g.Clean()
			if len(removed) > 0 {
				diag.Section("Removed")
				diag.Indent()
				for _, path := range removed {
					diag.List("%s", path)
				}
				diag.Unindent()
			}
			if err != nil {
				return flags.fail(err)
			}
			diag.Success("Removed %d generated files", len(removed))
			return nil
		},
	}
}
