package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the state file and the board services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if err := a.store.Ping(ctx); err != nil {
				return fmt.Errorf("state file %s: %w", a.cfg.StatePath, err)
			}
			keys, err := a.store.Keys(ctx)
			if err != nil {
				return fmt.Errorf("listing state: %w", err)
			}
			saved := "(empty)"
			if len(keys) > 0 {
				saved = strings.Join(keys, ", ")
			}

			services := "ok"
			if err := a.client.Health(ctx); err != nil {
				a.logger.Warn("board services unreachable", "api_url", a.cfg.APIURL, "error", err)
				services = "unreachable"
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "State:\t%s\n", a.cfg.StatePath)
			fmt.Fprintf(tw, "Saved:\t%s\n", saved)
			fmt.Fprintf(tw, "Services:\t%s (%s)\n", a.cfg.APIURL, services)
			tw.Flush()

			ctl, err := a.controller(ctx)
			if err != nil {
				return err
			}
			printPending(w, ctl)
			return nil
		},
	}
}
