package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
	"github.com/james-reichert/cccfunctions/internal/usecase"
)

// changeEvent is the slice of a change stream document the watcher cares
// about. FullDocumentBeforeChange is only populated when the collection has
// pre-images enabled.
type changeEvent[T any] struct {
	OperationType            string `bson:"operationType"`
	FullDocument             *T     `bson:"fullDocument"`
	FullDocumentBeforeChange *T     `bson:"fullDocumentBeforeChange"`
	DocumentKey              struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

// eventStream is the slice of the change stream API the run loop consumes,
// so stream failure handling can be exercised without a live deployment.
type eventStream interface {
	Next(ctx context.Context) bool
	Current() bson.Raw
	Err() error
	Close(ctx context.Context) error
}

type changeStreamAdapter struct {
	cs *mongo.ChangeStream
}

func (s changeStreamAdapter) Next(ctx context.Context) bool { return s.cs.Next(ctx) }
func (s changeStreamAdapter) Current() bson.Raw { return s.cs.Current }
func (s changeStreamAdapter) Err() error { return s.cs.Err() }
func (s changeStreamAdapter) Close(ctx context.Context) error { return s.cs.Close(ctx) }

// Watcher subscribes to the document store's change streams and dispatches
// one independent reconciler task per event. There is no ordering guarantee
// across documents and delivery is at-least-once; the reconciler's reactions
// are keyed to tolerate that.
type Watcher struct {
	db         *mongo.Database
	reconciler *usecase.ReconcilerService
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	failed chan error
}

func NewWatcher(db *mongo.Database, reconciler *usecase.ReconcilerService, logger *zap.Logger) *Watcher {
	return &Watcher{
		db:         db,
		reconciler: reconciler,
		logger:     logger,
		failed:     make(chan error, 3),
	}
}

// Failed receives when a change stream dies on a non-cancellation error. A
// dead stream means the trigger surface is gone, so the process should shut
// down rather than keep running deaf.
func (w *Watcher) Failed() <-chan error {
	return w.failed
}

// Start opens the three change streams and begins dispatching. It returns
// once all streams are established; Shutdown stops them.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	// The customers stream needs the previous document state to tell a real
	// default-payment-method change from a redundant write.
	if err := w.ensurePreImages(ctx, "customers"); err != nil {
		return err
	}

	inserts := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	updates := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"update", "replace"}}}},
		}}},
	}

	tokenStream, err := w.db.Collection("payment_tokens").Watch(ctx, inserts,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return fmt.Errorf("failed to watch payment_tokens: %w", err)
	}

	chargeStream, err := w.db.Collection("charge_requests").Watch(ctx, inserts,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		tokenStream.Close(ctx)
		return fmt.Errorf("failed to watch charge_requests: %w", err)
	}

	customerStream, err := w.db.Collection("customers").Watch(ctx, updates,
		options.ChangeStream().
			SetFullDocument(options.UpdateLookup).
			SetFullDocumentBeforeChange(options.WhenAvailable))
	if err != nil {
		tokenStream.Close(ctx)
		chargeStream.Close(ctx)
		return fmt.Errorf("failed to watch customers: %w", err)
	}

	w.wg.Add(3)
	go w.runLoop(ctx, "payment_tokens", changeStreamAdapter{tokenStream}, w.dispatchToken)
	go w.runLoop(ctx, "charge_requests", changeStreamAdapter{chargeStream}, w.dispatchCharge)
	go w.runLoop(ctx, "customers", changeStreamAdapter{customerStream}, w.dispatchCustomer)

	w.logger.Info("Change stream watcher started")
	return nil
}

// ensurePreImages enables change stream pre-images on the collection,
// creating it first when it does not exist yet.
func (w *Watcher) ensurePreImages(ctx context.Context, name string) error {
	if err := w.db.CreateCollection(ctx, name); err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != 48 { // NamespaceExists
			return fmt.Errorf("failed to create %s collection: %w", name, err)
		}
	}

	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "changeStreamPreAndPostImages", Value: bson.D{{Key: "enabled", Value: true}}},
	}
	if err := w.db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("failed to enable pre-images on %s: %w", name, err)
	}
	return nil
}

// Shutdown stops the streams and waits for in-flight dispatches to finish.
func (w *Watcher) Shutdown(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Watcher) runLoop(ctx context.Context, name string, stream eventStream, dispatch func(context.Context, bson.Raw)) {
	defer w.wg.Done()
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		current := stream.Current()
		raw := make(bson.Raw, len(current))
		copy(raw, current)

		// One task per event. Tasks for different documents may interleave
		// freely; each reaction re-reads its own state.
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			dispatch(ctx, raw)
		}()
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("Change stream terminated",
			zap.String("collection", name),
			zap.Error(err))
		select {
		case w.failed <- fmt.Errorf("change stream on %s terminated: %w", name, err):
		default:
		}
	}
}

func (w *Watcher) dispatchToken(ctx context.Context, raw bson.Raw) {
	var ev changeEvent[entity.PaymentMethodToken]
	if err := bson.Unmarshal(raw, &ev); err != nil {
		w.logger.Error("Failed to decode payment token event", zap.Error(err))
		return
	}
	if ev.FullDocument == nil {
		return
	}

	log := w.eventLogger("payment_token_added", ev.DocumentKey.ID)
	log.Info("Dispatching event")
	if err := w.reconciler.OnPaymentTokenAdded(ctx, ev.FullDocument); err != nil {
		log.Error("Reaction failed", zap.Error(err))
	}
}

func (w *Watcher) dispatchCharge(ctx context.Context, raw bson.Raw) {
	var ev changeEvent[entity.ChargeRequest]
	if err := bson.Unmarshal(raw, &ev); err != nil {
		w.logger.Error("Failed to decode charge request event", zap.Error(err))
		return
	}
	if ev.FullDocument == nil {
		return
	}

	log := w.eventLogger("charge_requested", ev.DocumentKey.ID)
	log.Info("Dispatching event")
	if err := w.reconciler.OnChargeRequested(ctx, ev.FullDocument); err != nil {
		log.Error("Reaction failed", zap.Error(err))
	}
}

func (w *Watcher) dispatchCustomer(ctx context.Context, raw bson.Raw) {
	var ev changeEvent[entity.CustomerRecord]
	if err := bson.Unmarshal(raw, &ev); err != nil {
		w.logger.Error("Failed to decode customer record event", zap.Error(err))
		return
	}
	if ev.FullDocument == nil {
		return
	}

	log := w.eventLogger("default_payment_method_changed", ev.DocumentKey.ID)
	if err := w.reconciler.OnDefaultPaymentMethodFieldChanged(ctx, ev.FullDocumentBeforeChange, ev.FullDocument); err != nil {
		log.Error("Reaction failed", zap.Error(err))
	}
}

// eventLogger attaches a correlation id so each dispatched task can be traced
// through the logs.
func (w *Watcher) eventLogger(event, docID string) *zap.Logger {
	return w.logger.With(
		zap.String("event", event),
		zap.String("document_id", docID),
		zap.String("dispatch_id", uuid.NewString()),
	)
}
