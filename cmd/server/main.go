package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	handlers "github.com/AllanBUSI/Fairpay-sub000/internal/adapter/handler/http"
	"github.com/AllanBUSI/Fairpay-sub000/internal/app"
	"github.com/AllanBUSI/Fairpay-sub000/internal/config"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/database"
	grpcServer "github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/grpc"
	httpServer "github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/http"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
	"github.com/AllanBUSI/Fairpay-sub000/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger = zapLogger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment))
	zapLogger.Info("Starting payment reconciliation service", zap.String("version", cfg.Service.Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize service", zap.Error(err))
	}
	defer application.Close()

	if err := database.Migrate(application.DB, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	metrics.MustRegister()

	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Handlers{
		Webhook:  handlers.NewWebhookHandler(application.Verifier, application.Router, zapLogger.Named("http.webhook")),
		Payment:  handlers.NewPaymentHandler(application.Retry, application.Checkout, zapLogger.Named("http.payment")),
		Checkout: handlers.NewCheckoutHandler(application.Checkout, zapLogger.Named("http.checkout")),
	})
	grpcSrv := grpcServer.NewServer(cfg, zapLogger.Named("grpc"))

	errs := make(chan error, 2)
	go func() { errs <- httpSrv.Start() }()
	go func() { errs <- grpcSrv.Start() }()

	select {
	case <-ctx.Done():
		zapLogger.Info("Shutting down servers...")
	case err := <-errs:
		zapLogger.Error("Server stopped unexpectedly", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
