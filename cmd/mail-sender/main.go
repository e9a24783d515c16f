package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/lms-server/internal/app/mailsender"
	"github.com/magabrotheeeer/lms-server/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := cfg.NewLogger()

	logger.Info("starting mail sender", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := mailsender.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize mail sender", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("mail sender stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("mail sender stopped gracefully")
}
