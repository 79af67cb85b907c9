package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/playperu/quizboard/internal/quizboard"
	"github.com/playperu/quizboard/internal/setup"
)

func (a *app) newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create a game step by step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.machine(cmd.Context())
			if err != nil {
				return err
			}
			printSetup(cmd.OutOrStdout(), m.State())
			return nil
		},
	}

	cmd.AddCommand(
		a.setupCmd("show", "Show the wizard", cobra.NoArgs, func(c *cobra.Command, m *setup.Machine, _ []string) error {
			printSetup(c.OutOrStdout(), m.State())
			return nil
		}),
		a.setupCmd("name NAME", "Set the game name", cobra.ExactArgs(1), func(c *cobra.Command, m *setup.Machine, args []string) error {
			if err := m.SetGameName(c.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Game name: %s\n", args[0])
			return nil
		}),
		a.setupCmd("commit", "Create the game and move on to categories", cobra.NoArgs, func(c *cobra.Command, m *setup.Machine, _ []string) error {
			if err := m.CommitGame(c.Context()); err != nil {
				return err
			}
			st := m.State()
			fmt.Fprintf(c.OutOrStdout(), "Game %q created (id %d).\n", st.GameName, st.GameID)
			return nil
		}),
		a.setupCmd("category NAME", "Add a category", cobra.ExactArgs(1), func(c *cobra.Command, m *setup.Machine, args []string) error {
			cat, err := m.AddCategory(c.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Category %d: %s\n", len(m.State().Categories), cat.Name)
			return nil
		}),
		a.newSetupQuestionCmd(),
		a.setupCmd("team NAME", "Add a team", cobra.ExactArgs(1), func(c *cobra.Command, m *setup.Machine, args []string) error {
			team, err := m.AddTeam(c.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Team %s (id %d)\n", team.Name, team.ID)
			return nil
		}),
		a.setupCmd("next", "Go to the next step", cobra.NoArgs, func(c *cobra.Command, m *setup.Machine, _ []string) error {
			idx := m.State().Step.Index() + 1
			if idx >= len(quizboard.Steps) {
				return fmt.Errorf("%w: already at the last step", quizboard.ErrInvalidTransition)
			}
			if err := m.Advance(c.Context(), quizboard.Steps[idx]); err != nil {
				return err
			}
			printSetup(c.OutOrStdout(), m.State())
			return nil
		}),
		a.setupCmd("back [STEP]", "Go back to the previous step or to STEP", cobra.MaximumNArgs(1), func(c *cobra.Command, m *setup.Machine, args []string) error {
			var target quizboard.Step
			if len(args) == 1 {
				target = quizboard.Step(args[0])
			} else if idx := m.State().Step.Index(); idx > 0 {
				target = quizboard.Steps[idx-1]
			}
			if err := m.Retreat(c.Context(), target); err != nil {
				return err
			}
			printSetup(c.OutOrStdout(), m.State())
			return nil
		}),
		a.setupCmd("reset", "Discard the wizard and start over", cobra.NoArgs, func(c *cobra.Command, m *setup.Machine, _ []string) error {
			if err := m.Reset(c.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "Setup cleared.")
			return nil
		}),
	)
	return cmd
}

func (a *app) newSetupQuestionCmd() *cobra.Command {
	var (
		category int
		price    int
		answer   string
	)
	cmd := a.setupCmd("question TEXT", "Add a question to a category", cobra.ExactArgs(1), func(c *cobra.Command, m *setup.Machine, args []string) error {
		q, err := m.AddQuestion(c.Context(), category-1, args[0], price, answer)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "Question %d added for %d points.\n", q.ID, q.Price)
		return nil
	})

	fs := cmd.Flags()
	fs.IntVarP(&category, "category", "c", 1, "category number as listed by setup show")
	fs.IntVarP(&price, "price", "p", quizboard.DefaultQuestionPrice, "points awarded for a correct answer")
	fs.StringVarP(&answer, "answer", "a", "", "the correct answer")
	return cmd
}

// setupCmd builds a subcommand that runs fn against the restored wizard.
func (a *app) setupCmd(use, short string, args cobra.PositionalArgs, fn func(*cobra.Command, *setup.Machine, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machine(cmd.Context())
			if err != nil {
				return err
			}
			return explain(fn(cmd, m, args))
		},
	}
}

func printSetup(w io.Writer, st quizboard.GameSetupState) {
	fmt.Fprintf(w, "Step %d/%d: %s\n", st.Step.Index()+1, len(quizboard.Steps), st.Step)
	name := st.GameName
	if name == "" {
		name = "(unnamed)"
	}
	if st.GameID != 0 {
		fmt.Fprintf(w, "Game: %s (id %d)\n", name, st.GameID)
	} else {
		fmt.Fprintf(w, "Game: %s (not created)\n", name)
	}

	fmt.Fprintf(w, "Categories: %d\n", len(st.Categories))
	for i, c := range st.Categories {
		fmt.Fprintf(w, "  %d. %s\n", i+1, c.Name)
		for _, q := range c.Questions {
			fmt.Fprintf(w, "     [%d] %s -> %s\n", q.Price, q.Text, q.Answer)
		}
	}

	fmt.Fprintf(w, "Teams: %d\n", len(st.Teams))
	for _, t := range st.Teams {
		fmt.Fprintf(w, "  - %s\n", t.Name)
	}
}
