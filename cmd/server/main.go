package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iliyamo/cinereviews/internal/config"
	"github.com/iliyamo/cinereviews/internal/database"
	"github.com/iliyamo/cinereviews/internal/queue"
	"github.com/iliyamo/cinereviews/internal/repository"
	"github.com/iliyamo/cinereviews/internal/router"
	"github.com/iliyamo/cinereviews/internal/seed"
	"github.com/iliyamo/cinereviews/internal/service"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error("database", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.SeedFile != "" {
		if _, err := seed.LoadFile(ctx, repository.NewMovieRepo(db), cfg.SeedFile); err != nil {
			logger.Warn("seed failed", "file", cfg.SeedFile, "err", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.QueueEnabled {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
		go func() {
			logPath := filepath.Join("logs", "reviews.log")
			if err := queue.StartReviewConsumer(ctx, cfg.AMQPURL, logPath); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("review consumer stopped", "err", err)
			}
		}()
	}

	e := router.New(router.Deps{
		Cfg:       cfg,
		DB:        db,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Events:    events,
		Logger:    logger,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
