// Package cli is the host's command-line view of the quiz board. Every
// invocation restores the wizard and the live session from the state file, so
// separate commands behave like reloads of the same page.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/playperu/quizboard/internal/atoms"
	"github.com/playperu/quizboard/internal/boardapi"
	"github.com/playperu/quizboard/internal/config"
	"github.com/playperu/quizboard/internal/database"
	"github.com/playperu/quizboard/internal/inflight"
	"github.com/playperu/quizboard/internal/quizboard"
	"github.com/playperu/quizboard/internal/session"
	"github.com/playperu/quizboard/internal/setup"
)

// Version is reported by --version.
const Version = "0.1.0"

type app struct {
	cfg    *config.HostConfig
	stderr io.Writer

	logger  *slog.Logger
	db      *sql.DB
	store   *atoms.DBStore
	client  *boardapi.Client
	verbose bool
}

// Run executes the quizboard command tree with args.
func Run(ctx context.Context, cfg *config.HostConfig, args []string, stdout, stderr io.Writer) error {
	a := &app{cfg: cfg, stderr: stderr}
	defer a.close()

	cmd := a.newCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func (a *app) newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quizboard",
		Short:         "Host a Jeopardy-style quiz board.",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&a.cfg.APIURL, "api-url", a.cfg.APIURL, "base URL of the board services (env: QUIZBOARD_API_URL)")
	fs.StringVar(&a.cfg.StatePath, "state", a.cfg.StatePath, "path to the local state file (env: QUIZBOARD_STATE_PATH)")
	fs.DurationVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "per-request timeout (env: QUIZBOARD_TIMEOUT)")
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(
		a.newSetupCmd(),
		a.newStartCmd(),
		a.newPlayCmd(),
		a.newLeaderboardCmd(),
		a.newStatusCmd(),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizboard v{{.Version}}\n")

	return cmd
}

func (a *app) open(ctx context.Context) error {
	level := a.cfg.LogLevel
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	db, err := database.Open(ctx, a.cfg.StatePath)
	if err != nil {
		return fmt.Errorf("opening state: %w", err)
	}
	a.db = db

	a.store, err = atoms.NewDBStore(ctx, db)
	if err != nil {
		return fmt.Errorf("opening state: %w", err)
	}

	a.client = boardapi.New(a.cfg.APIURL,
		boardapi.WithTimeout(a.cfg.Timeout),
		boardapi.WithLogger(a.logger),
	)
	a.logger.Debug("state opened", "path", a.cfg.StatePath, "api_url", a.cfg.APIURL)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) machine(ctx context.Context) (*setup.Machine, error) {
	return setup.New(ctx, a.store, a.client, a.logger)
}

func (a *app) controller(ctx context.Context) (*session.Controller, error) {
	return session.New(ctx, a.store, a.client, a.logger)
}

// explain turns refusals into the hint a disabled button would have given.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, setup.ErrInvalidInput), errors.Is(err, session.ErrInvalidInput):
		return fmt.Errorf("not allowed: %w", err)
	case errors.Is(err, quizboard.ErrInvalidTransition):
		return fmt.Errorf("cannot move there yet: %w", err)
	case errors.Is(err, inflight.ErrInFlight):
		return fmt.Errorf("still working on the previous request: %w", err)
	case errors.Is(err, setup.ErrReset):
		return fmt.Errorf("setup was reset, result discarded: %w", err)
	}
	return err
}
