// Package main LMS API
//
// @title           LMS API
// @version         1.0
// @description     API платформы онлайн-курсов: учетные записи, курсы и лекции, подписки
//
// @host      localhost:8080
// @BasePath  /api/v1
//
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
// @description Сессионный JWT, выдается при входе и регистрации.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/lms-server/internal/app/lms"
	"github.com/magabrotheeeer/lms-server/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := cfg.NewLogger()

	logger.Info("starting lms server", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := lms.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("lms server stopped gracefully")
}
