package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/james-reichert/cccfunctions/internal/config"
	"github.com/james-reichert/cccfunctions/internal/infrastructure/database"
	httpServer "github.com/james-reichert/cccfunctions/internal/infrastructure/http"
	stripeProvider "github.com/james-reichert/cccfunctions/internal/infrastructure/provider/stripe"
	"github.com/james-reichert/cccfunctions/internal/infrastructure/watcher"
	"github.com/james-reichert/cccfunctions/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize document store connection
	client, err := database.NewConnection(ctx, &cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer func() {
		if err := database.Close(context.Background(), client, logger); err != nil {
			logger.Error("Failed to close document store connection", zap.Error(err))
		}
	}()
	db := client.Database(cfg.Store.Database)

	// Initialize repositories and the payment processor client. Both are
	// constructed once and held for the process lifetime.
	repos := database.NewRepositories(db)
	processor := stripeProvider.NewStripeProvider(cfg.Service.StripeSecretKey, logger)
	logger.Info("Payment processor initialized", zap.String("provider", processor.GetProviderName()))

	reconciler := usecase.NewReconcilerService(
		repos.UserAccount,
		repos.CustomerRecord,
		repos.PaymentToken,
		repos.ChargeRequest,
		processor,
		logger,
		cfg.Service.DefaultCurrency,
		cfg.Service.TransferPercent,
	)

	// Start the change stream watcher
	w := watcher.NewWatcher(db, reconciler, logger)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start change stream watcher", zap.Error(err))
	}

	// Start the HTTP server
	httpSrv := httpServer.NewServer(cfg, logger, reconciler)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for an interrupt signal or a dead change stream. Either way the
	// shutdown below still drains in-flight reconciliations.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case err := <-w.Failed():
		logger.Error("Change stream watcher failed, shutting down", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if err := w.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown change stream watcher", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
