package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("server stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

// Load config (defaults < .env < environment < flags) and serve until ctx is cancelled
func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	c := NewConfig()

	if err := c.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("can't read .env file. Err: %w", err)
	}
	c.LoadEnv(getenv)
	if err := c.ParseFlags(args); err != nil {
		return err
	}

	app, err := NewServerApp(ctx, c)
	if err != nil {
		return fmt.Errorf("can't initialize app, sorry. Err: %w", err)
	}
	defer app.Close()

	return app.Run(ctx)
}
