// Command cinereviews is a terminal client for the CineReviews service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/cinereviews/internal/app"
	"github.com/iliyamo/cinereviews/internal/config"
	"github.com/iliyamo/cinereviews/internal/gateway/rest"
	"github.com/iliyamo/cinereviews/internal/ui"
)

func main() {
	cfg := config.LoadClient()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, logger, os.Stdin, os.Stdout)
	stop()
	if err != nil {
		logger.Error("cinereviews", "err", err)
		os.Exit(1)
	}
}

// run owns every resource of the client so deferred cleanup happens
// before main exits.
func run(ctx context.Context, cfg config.ClientConfig, logger *slog.Logger, in io.Reader, out io.Writer) error {
	gw := rest.New(cfg.APIURL, rest.WithLogger(logger))
	con := newConsole(in, out)
	notify := ui.Multi{&ui.Writer{W: out}, ui.Log{L: logger}}

	a := app.New(gw, con, notify, logger)
	defer a.Close()
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	a.Session.Wait()

	r := &repl{app: a, con: con, out: out}
	if err := r.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("repl: %w", err)
	}
	return nil
}
