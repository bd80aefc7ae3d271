package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/james-reichert/cccfunctions/internal/config"
	"github.com/james-reichert/cccfunctions/internal/infrastructure/database"
	stripeProvider "github.com/james-reichert/cccfunctions/internal/infrastructure/provider/stripe"
	"github.com/james-reichert/cccfunctions/internal/usecase"
)

// One-shot backfill: provision a processor customer for every user account
// that does not have one yet. Safe to re-run; already-provisioned users are
// skipped by the reconciler's duplicate guard.
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize document store connection
	client, err := database.NewConnection(ctx, &cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer func() {
		if err := database.Close(ctx, client, logger); err != nil {
			logger.Error("Failed to close document store connection", zap.Error(err))
		}
	}()
	db := client.Database(cfg.Store.Database)

	// Initialize repositories and the payment processor client
	repos := database.NewRepositories(db)
	processor := stripeProvider.NewStripeProvider(cfg.Service.StripeSecretKey, logger)

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

	users, err := repos.UserAccount.List(ctx)
	if err != nil {
		logger.Fatal("Failed to list user accounts", zap.Error(err))
	}

	logger.Info("Starting customer backfill", zap.Int("user_count", len(users)))

	provisioned := 0
	failed := 0
	for i := range users {
		user := users[i]
		if err := reconciler.OnUserCreated(ctx, &user); err != nil {
			logger.Error("Backfill failed for user",
				zap.String("user_id", user.UserID),
				zap.Error(err))
			failed++
			continue
		}
		provisioned++
	}

	logger.Info("Customer backfill complete",
		zap.Int("processed", provisioned),
		zap.Int("failed", failed))
}
