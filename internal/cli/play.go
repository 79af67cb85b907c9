package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/playperu/quizboard/internal/atoms"
	"github.com/playperu/quizboard/internal/quizboard"
	"github.com/playperu/quizboard/internal/session"
)

func (a *app) newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Finish setup and load the board for play",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			m, err := a.machine(ctx)
			if err != nil {
				return err
			}
			cg, err := m.Complete(ctx)
			if err != nil {
				return explain(err)
			}

			show, err := atoms.New(a.store, atoms.KeyStartText, true).Load(ctx)
			if err != nil {
				return err
			}
			if show {
				fmt.Fprintf(w, "Welcome to %s! %d teams are ready.\n", cg.Name, len(cg.Teams))
			}

			c, err := a.controller(ctx)
			if err != nil {
				return err
			}
			if err := c.Load(ctx, cg.ID); err != nil {
				fmt.Fprintln(w, "No data.")
				return explain(err)
			}
			printBoard(w, c.Snapshot())
			return nil
		},
	}
}

func (a *app) newPlayCmd() *cobra.Command {
	cmd := a.playCmd("play", "Run the live game", cobra.NoArgs, func(c *cobra.Command, ctl *session.Controller, _ []string) error {
		printBoard(c.OutOrStdout(), ctl.Snapshot())
		printPending(c.OutOrStdout(), ctl)
		return nil
	})

	cmd.AddCommand(
		a.playCmd("board", "Show the board", cobra.NoArgs, func(c *cobra.Command, ctl *session.Controller, _ []string) error {
			printBoard(c.OutOrStdout(), ctl.Snapshot())
			printPending(c.OutOrStdout(), ctl)
			return nil
		}),
		a.playCmd("load [GAME_ID]", "Fetch the board from the services", cobra.MaximumNArgs(1), func(c *cobra.Command, ctl *session.Controller, args []string) error {
			ctx := c.Context()
			gameID, err := a.gameID(ctx, ctl, args)
			if err != nil {
				return err
			}
			if err := ctl.Load(ctx, gameID); err != nil {
				fmt.Fprintln(c.OutOrStdout(), "No data.")
				return err
			}
			printBoard(c.OutOrStdout(), ctl.Snapshot())
			return nil
		}),
		a.playCmd("open QUESTION_ID", "Open a question", cobra.ExactArgs(1), func(c *cobra.Command, ctl *session.Controller, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := ctl.Open(c.Context(), id); err != nil {
				return err
			}
			snap := ctl.Snapshot()
			q, ok := snap.OpenQuestion()
			if !ok {
				fmt.Fprintf(c.OutOrStdout(), "Question %d was already answered.\n", id)
				return nil
			}
			fmt.Fprintf(c.OutOrStdout(), "For %d points:\n  %s\n", q.Price, q.Text)
			return nil
		}),
		a.playCmd("reveal", "Reveal the open question's answer", cobra.NoArgs, func(c *cobra.Command, ctl *session.Controller, _ []string) error {
			answer, err := ctl.Reveal(c.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Answer: %s\n", answer)
			printTeams(c.OutOrStdout(), ctl.Snapshot().Teams)
			return nil
		}),
		a.playCmd("select TEAM_ID", "Pick the team that answered", cobra.ExactArgs(1), func(c *cobra.Command, ctl *session.Controller, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := ctl.SelectTeam(c.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Team %d selected.\n", id)
			return nil
		}),
		a.playCmd("award [TEAM_ID]", "Give the open question's points to a team", cobra.MaximumNArgs(1), func(c *cobra.Command, ctl *session.Controller, args []string) error {
			var teamID int64
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				teamID = id
			}
			err := ctl.Award(c.Context(), teamID)
			if err != nil && !isSagaFailure(ctl) {
				return err
			}
			printBoard(c.OutOrStdout(), ctl.Snapshot())
			if err != nil {
				printPending(c.OutOrStdout(), ctl)
			}
			return err
		}),
		a.playCmd("close", "Close the open question without awarding it", cobra.NoArgs, func(c *cobra.Command, ctl *session.Controller, _ []string) error {
			if err := ctl.Close(c.Context()); err != nil {
				return err
			}
			printBoard(c.OutOrStdout(), ctl.Snapshot())
			return nil
		}),
		a.playCmd("resume", "Retry an award that didn't reach the services", cobra.NoArgs, func(c *cobra.Command, ctl *session.Controller, _ []string) error {
			p, ok := ctl.PendingAward()
			if !ok {
				fmt.Fprintln(c.OutOrStdout(), "Nothing to resume.")
				return nil
			}
			if err := ctl.ResumeAward(c.Context()); err != nil {
				printPending(c.OutOrStdout(), ctl)
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Award of %d points to team %d recorded.\n", p.Points, p.TeamID)
			return nil
		}),
	)
	return cmd
}

// playCmd builds a subcommand that runs fn against the restored session.
func (a *app) playCmd(use, short string, args cobra.PositionalArgs, fn func(*cobra.Command, *session.Controller, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller(cmd.Context())
			if err != nil {
				return err
			}
			return explain(fn(cmd, ctl, args))
		},
	}
}

// gameID picks the game to load: the argument, the session's game, or the
// game handed over by setup.
func (a *app) gameID(ctx context.Context, ctl *session.Controller, args []string) (int64, error) {
	if len(args) == 1 {
		return parseID(args[0])
	}
	if id := ctl.Snapshot().GameID; id != 0 {
		return id, nil
	}
	cg, err := atoms.New(a.store, atoms.KeyCurrentGame, quizboard.CurrentGame{}).Load(ctx)
	if err != nil {
		return 0, err
	}
	if cg.ID == 0 {
		return 0, fmt.Errorf("%w: no game set up, run quizboard setup first", session.ErrInvalidInput)
	}
	return cg.ID, nil
}

func isSagaFailure(ctl *session.Controller) bool {
	_, ok := ctl.PendingAward()
	return ok
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not an id", session.ErrInvalidInput, s)
	}
	return id, nil
}

func printBoard(w io.Writer, s quizboard.Session) {
	if s.Phase == quizboard.PhaseIdle {
		fmt.Fprintln(w, "No data. Run quizboard play load.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range s.Categories {
		fmt.Fprintf(tw, "%s", c.Name)
		for _, q := range c.Questions {
			if q.IsAnswered {
				fmt.Fprint(tw, "\t--")
			} else {
				fmt.Fprintf(tw, "\t#%d:%d", q.ID, q.Price)
			}
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()

	printTeams(w, s.Teams)

	switch s.Phase {
	case quizboard.PhaseQuestionOpen, quizboard.PhaseAnswerRevealed:
		if q, ok := s.OpenQuestion(); ok {
			fmt.Fprintf(w, "Open: #%d %s\n", q.ID, q.Text)
		}
		if s.RevealedAnswer != "" {
			fmt.Fprintf(w, "Answer: %s\n", s.RevealedAnswer)
		}
	case quizboard.PhaseFinished:
		fmt.Fprintln(w, "All questions answered. Run quizboard leaderboard.")
	}
}

func printTeams(w io.Writer, teams []quizboard.Team) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range teams {
		fmt.Fprintf(tw, "team %d\t%s\t%d\n", t.ID, t.Name, t.Score)
	}
	tw.Flush()
}

func printPending(w io.Writer, ctl *session.Controller) {
	p, ok := ctl.PendingAward()
	if !ok {
		return
	}
	fmt.Fprintf(w, "Award of %d points to team %d for question %d is %s. Run quizboard play resume.\n",
		p.Points, p.TeamID, p.QuestionID, p.Stage)
}
