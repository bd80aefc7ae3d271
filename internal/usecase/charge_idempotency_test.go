package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
	"github.com/james-reichert/cccfunctions/internal/domain/provider"
	"github.com/james-reichert/cccfunctions/internal/usecase"
)

// stubProcessor dedupes charge creation on the idempotency key the way the
// real processor does: replaying a key returns the original charge instead
// of creating a new one.
type stubProcessor struct {
	mu      sync.Mutex
	charges map[string]*provider.Charge
	created int
}

func newStubProcessor() *stubProcessor {
	return &stubProcessor{charges: make(map[string]*provider.Charge)}
}

func (s *stubProcessor) CreateCharge(ctx context.Context, req *provider.ChargeRequest) (*provider.Charge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.charges[req.IdempotencyKey]; ok {
		return existing, nil
	}

	s.created++
	charge := &provider.Charge{
		ID:             "ch_stub_" + req.IdempotencyKey,
		Status:         "succeeded",
		Amount:         req.Amount,
		Currency:       req.Currency,
		TransferAmount: req.TransferAmount,
		TransferDest:   req.TransferDest,
	}
	s.charges[req.IdempotencyKey] = charge
	return charge, nil
}

func (s *stubProcessor) CreateCustomer(ctx context.Context, email string) (*provider.Customer, error) {
	return &provider.Customer{ID: "cus_stub", Email: email}, nil
}

func (s *stubProcessor) RetrieveCustomer(ctx context.Context, customerID string) (*provider.Customer, error) {
	return &provider.Customer{ID: customerID}, nil
}

func (s *stubProcessor) DeleteCustomer(ctx context.Context, customerID string) error { return nil }

func (s *stubProcessor) AttachPaymentMethod(ctx context.Context, token, customerID string) (string, error) {
	return "pm_stub", nil
}

func (s *stubProcessor) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	return nil
}

func (s *stubProcessor) UpdateDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*provider.Customer, error) {
	return &provider.Customer{ID: customerID, DefaultPaymentMethod: paymentMethodID}, nil
}

func (s *stubProcessor) GetProviderName() string { return "stub" }

func TestChargeRedelivery_DoesNotDoubleCharge(t *testing.T) {
	ctx := context.Background()

	users := new(MockUserAccountRepository)
	customers := new(MockCustomerRecordRepository)
	tokens := new(MockPaymentTokenRepository)
	charges := new(MockChargeRequestRepository)
	processor := newStubProcessor()

	customers.On("GetByUserID", ctx, "u1").
		Return(&entity.CustomerRecord{UserID: "u1", CustomerID: "cus_123"}, nil)
	charges.On("SetResult", ctx, "ch_1", mock.Anything).Return(nil)

	svc := usecase.NewReconcilerService(
		users, customers, tokens, charges, processor,
		zap.NewNop(), "USD", 90,
	)

	request := &entity.ChargeRequest{
		ChargeID:      "ch_1",
		UserID:        "u1",
		Amount:        1000,
		Currency:      "USD",
		DestinationID: "acct_9",
	}

	// Simulate at-least-once delivery of the same notification.
	assert.NoError(t, svc.OnChargeRequested(ctx, request))
	assert.NoError(t, svc.OnChargeRequested(ctx, request))

	assert.Equal(t, 1, processor.created, "redelivered event must not create a second charge")
	assert.Len(t, processor.charges, 1)

	charge := processor.charges["ch_1"]
	assert.Equal(t, int64(900), charge.TransferAmount)
	assert.Equal(t, "acct_9", charge.TransferDest)
}
