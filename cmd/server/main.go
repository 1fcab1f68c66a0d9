package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/config"
	"github.com/mamadbah2/wagateway/internal/scheduler"
	"github.com/mamadbah2/wagateway/internal/security"
	"github.com/mamadbah2/wagateway/internal/server/handlers"
	"github.com/mamadbah2/wagateway/internal/server/router"
	messagesvc "github.com/mamadbah2/wagateway/internal/service/messages"
	webhooksvc "github.com/mamadbah2/wagateway/internal/service/webhook"
	whatsappclient "github.com/mamadbah2/wagateway/pkg/clients/whatsapp"
	"github.com/mamadbah2/wagateway/pkg/logger"
)

func main() {
	startedAt := time.Now()

	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	apiKeys, err := security.NewAPIKeyValidator(cfg.Auth.APIKeyHashes)
	if err != nil {
		baseLogger.Fatal("failed to init api key validator", zap.Error(err))
	}

	verifier := security.NewSignatureVerifier(cfg.WhatsApp.SignatureSecret())
	if !verifier.Enabled() {
		baseLogger.Warn("webhook signature validation disabled")
	}

	whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
	messagesSvc := messagesvc.NewService(whatsClient, cfg.WhatsApp.RequestTimeout, logger.Named(baseLogger, "svc.messages"))
	dispatcher := webhooksvc.NewDispatcher(cfg.WhatsApp, verifier, messagesSvc, logger.Named(baseLogger, "svc.webhook"))

	engine := router.New(router.Dependencies{
		Webhook:   handlers.NewWebhookHandler(dispatcher, logger.Named(baseLogger, "handlers.webhook")),
		Messages:  handlers.NewMessagesHandler(messagesSvc, logger.Named(baseLogger, "handlers.messages")),
		Health:    handlers.NewHealthHandler(startedAt),
		APIKeys:   apiKeys,
		RateLimit: cfg.RateLimit,
		Logger:    logger.Named(baseLogger, "router"),
	})

	sched := scheduler.NewScheduler(cfg.Probe, messagesSvc, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WhatsApp.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("api_version", cfg.WhatsApp.APIVersion))
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
