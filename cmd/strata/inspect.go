package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/toyz/strata/internal/cli"
)

func newInspectCommand(flags *globalFlags) *cobra.Command {
	var (
		listen string
		serve  bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [patterns...]",
		Short: "Print or serve the resolved object graph as JSON",
		Long: `Inspect analyzes the project without writing anything. By default the graph
is printed once. With --serve (or --listen) it is served over HTTP:

  GET /graph                 the whole graph
  GET /graph/scopes/:name    one scope
  GET /healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, cfg, diag, err := flags.load(args)
			if err != nil {
				return flags.fail(err)
			}

			if !serve && !cmd.Flags().Changed("listen") {
				graph, err := g.Inspect(cmd.Context())
				if err != nil {
					return flags.fail(err)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(graph)
			}

			addr := listen
			if addr == "" {
				addr = cfg.Inspect.Listen
			}
			diag.StrataHeader("Serving graph on http://" + addr + "/graph")
			return cli.NewInspectServer(g.Inspect).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve the graph over HTTP")
	cmd.Flags().StringVar(&listen, "listen", "", "Address to serve on (default from strata.yaml)")
	return cmd
}
