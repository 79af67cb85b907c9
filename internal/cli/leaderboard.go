package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/playperu/quizboard/internal/leaderboard"
)

func (a *app) newLeaderboardCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "leaderboard [GAME_ID]",
		Short: "Rank the teams by score",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			ctl, err := a.controller(ctx)
			if err != nil {
				return err
			}

			var res leaderboard.Result
			if local {
				res = leaderboard.Result{Teams: ctl.Snapshot().Teams}
			} else {
				gameID, err := a.gameID(ctx, ctl, args)
				if err != nil {
					return explain(err)
				}
				res = leaderboard.Fetch(ctx, a.client, gameID)
			}

			printLeaderboard(w, leaderboard.Project(res.Teams))
			switch {
			case errors.Is(res.Err, leaderboard.ErrUnknownShape):
				a.logger.Warn("unrecognized teams response", "error", res.Err)
			case res.Err != nil:
				fmt.Fprintf(w, "Could not load the leaderboard: %v\n", res.Err)
			}
			fmt.Fprintln(w, "Run quizboard play to return to the game.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "rank the scores recorded by this host instead of the services")
	return cmd
}

func printLeaderboard(w io.Writer, entries []leaderboard.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No team data.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTEAM\tSCORE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", e.Rank, e.Team.Name, e.Team.Score)
	}
	tw.Flush()
}
