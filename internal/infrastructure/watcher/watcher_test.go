package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type fakeStream struct {
	events []bson.Raw
	pos    int
	err    error
	closed bool
}

func (s *fakeStream) Next(ctx context.Context) bool {
	if s.pos < len(s.events) {
		s.pos++
		return true
	}
	return false
}

func (s *fakeStream) Current() bson.Raw { return s.events[s.pos-1] }

func (s *fakeStream) Err() error { return s.err }

func (s *fakeStream) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

func rawEvent(t *testing.T, id string) bson.Raw {
	t.Helper()
	raw, err := bson.Marshal(bson.M{
		"operationType": "insert",
		"documentKey":   bson.M{"_id": id},
	})
	require.NoError(t, err)
	return raw
}

func TestRunLoop_DispatchesEachEvent(t *testing.T) {
	w := &Watcher{logger: zap.NewNop(), failed: make(chan error, 1)}
	stream := &fakeStream{events: []bson.Raw{rawEvent(t, "a"), rawEvent(t, "b")}}

	var mu sync.Mutex
	var got []bson.Raw
	w.wg.Add(1)
	w.runLoop(context.Background(), "payment_tokens", stream, func(ctx context.Context, raw bson.Raw) {
		mu.Lock()
		got = append(got, raw)
		mu.Unlock()
	})
	w.wg.Wait()

	assert.Len(t, got, 2)
	assert.True(t, stream.closed)
	select {
	case err := <-w.failed:
		t.Fatalf("unexpected failure: %v", err)
	default:
	}
}

func TestRunLoop_SurfacesStreamFailure(t *testing.T) {
	w := &Watcher{logger: zap.NewNop(), failed: make(chan error, 1)}
	stream := &fakeStream{
		events: []bson.Raw{rawEvent(t, "a")},
		err:    errors.New("cursor killed"),
	}

	w.wg.Add(1)
	w.runLoop(context.Background(), "customers", stream, func(ctx context.Context, raw bson.Raw) {})
	w.wg.Wait()

	select {
	case err := <-w.Failed():
		assert.Contains(t, err.Error(), "customers")
		assert.Contains(t, err.Error(), "cursor killed")
	default:
		t.Fatal("expected the stream failure to be surfaced")
	}
}

func TestRunLoop_CancellationIsNotAFailure(t *testing.T) {
	w := &Watcher{logger: zap.NewNop(), failed: make(chan error, 1)}
	stream := &fakeStream{err: context.Canceled}

	w.wg.Add(1)
	w.runLoop(context.Background(), "charge_requests", stream, func(ctx context.Context, raw bson.Raw) {})
	w.wg.Wait()

	select {
	case err := <-w.Failed():
		t.Fatalf("cancellation surfaced as failure: %v", err)
	default:
	}
}
