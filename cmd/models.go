package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nidhishmalav/career-twin/twin/generation/providers"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show which model serves each role and whether its provider is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				routes := a.router.Routes(a.cfg.Models)
				for i, ref := range a.cfg.Competition.Competitors {
					routes = append(routes, providers.Route{
						Role:      fmt.Sprintf("competitor %d", i+1),
						Ref:       ref,
						Available: slices.Contains(a.router.Available(), ref.Provider),
					})
				}

				if opts.jsonOutput {
					return writeRoutesJSON(cmd.OutOrStdout(), routes)
				}
				return writeRoutes(cmd.OutOrStdout(), routes)
			})
		},
	}
}

func writeRoutes(w io.Writer, routes []providers.Route) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tPROVIDER\tMODEL\tFAMILY\tAVAILABLE")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", r.Role, r.Ref.Provider, r.Ref.Model, providers.GetModelConfig(r.Ref.Model).Name, r.Available)
	}
	return tw.Flush()
}

func writeRoutesJSON(w io.Writer, routes []providers.Route) error {
	type route struct {
		Role      string `json:"role"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
		Available bool   `json:"available"`
	}
	out := make([]route, 0, len(routes))
	for _, r := range routes {
		out = append(out, route{Role: r.Role, Provider: r.Ref.Provider, Model: r.Ref.Model, Available: r.Available})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Models []route `json:"models"`
	}{Models: out})
}
