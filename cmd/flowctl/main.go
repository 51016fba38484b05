package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-flows/internal/app"
	"github.com/samvad-hq/samvad-flows/internal/cli"
	"github.com/samvad-hq/samvad-flows/internal/config"
	"github.com/samvad-hq/samvad-flows/internal/logger"
	"github.com/samvad-hq/samvad-flows/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flowctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.DebugObj("flowctl starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	newRuntime := func(ctx context.Context) (*app.Runtime, error) {
		return app.NewRuntime(ctx, cfg, log)
	}
	openJournal := func(context.Context) (storage.Store, error) {
		return app.OpenJournal(cfg, log)
	}
	return cli.NewRootCommand(newRuntime, openJournal, os.Stdout).ExecuteContext(ctx)
}
