package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/playperu/quizboard/internal/cli"
	"github.com/playperu/quizboard/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.LoadHost()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return cli.Run(ctx, cfg, args, os.Stdout, os.Stderr)
}
