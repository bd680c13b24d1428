package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/exovet/supportbot/internal/config"
	"github.com/exovet/supportbot/internal/repository/sqlite"
	"github.com/exovet/supportbot/internal/scheduler"
	"github.com/exovet/supportbot/internal/server/handlers"
	"github.com/exovet/supportbot/internal/server/router"
	"github.com/exovet/supportbot/internal/service/charts"
	reportingsvc "github.com/exovet/supportbot/internal/service/reporting"
	telegramsvc "github.com/exovet/supportbot/internal/service/telegram"
	telegramclient "github.com/exovet/supportbot/pkg/clients/telegram"
	"github.com/exovet/supportbot/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := sqlite.NewSQLiteRepository(cfg.Database.Path)
	if err != nil {
		baseLogger.Fatal("failed to init sqlite repository", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close sqlite connection", zap.Error(err))
		}
	}()

	reportingSvc := reportingsvc.NewService(store, baseLogger.Named("svc.reporting"))
	renderer := charts.NewRenderer()
	sessions := telegramsvc.NewSessionManager(time.Duration(cfg.Reporting.SessionTTLMinutes) * time.Minute)

	botClient := telegramclient.NewClient(cfg.Telegram)
	botSvc := telegramsvc.NewBotService(cfg.Telegram, botClient, reportingSvc, renderer, sessions, baseLogger.Named("svc.telegram"))
	webhookHandler := handlers.NewWebhookHandler(botSvc, cfg.Telegram.WebhookSecret, baseLogger.Named("handlers.telegram"))
	engine := router.New(webhookHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, botSvc, sessions, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
