package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/james-reichert/cccfunctions/internal/config"
)

// NewConnection creates a new document store connection. Transient startup
// failures (e.g. the store container still coming up) are retried a few
// times before giving up.
func NewConnection(ctx context.Context, storeCfg *config.StoreConfig, log *zap.Logger) (*mongo.Client, error) {
	cfg := storeCfg.WithDefaults()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRetryWrites(true).
		SetRetryReads(true)

	var lastErr error
	for attempt := 0; attempt < cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(cfg.RetryInterval)
		}

		client, err := mongo.Connect(opts)
		if err != nil {
			lastErr = err
			continue
		}

		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		err = client.Ping(pingCtx, nil)
		cancel()
		if err != nil {
			lastErr = err
			_ = client.Disconnect(ctx)
			continue
		}

		log.Info("Document store connection established",
			zap.String("database", cfg.Database),
			zap.Int("attempt", attempt+1),
		)
		return client, nil
	}

	return nil, fmt.Errorf("failed to connect to document store after %d attempts: %w", cfg.RetryAttempts, lastErr)
}

// Close closes the document store connection
func Close(ctx context.Context, client *mongo.Client, log *zap.Logger) error {
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close document store connection: %w", err)
	}

	log.Info("Document store connection closed")
	return nil
}
