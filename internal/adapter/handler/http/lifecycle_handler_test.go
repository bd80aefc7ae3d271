package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	handlers "github.com/james-reichert/cccfunctions/internal/adapter/handler/http"
	"github.com/james-reichert/cccfunctions/internal/domain/entity"
	"github.com/james-reichert/cccfunctions/internal/domain/provider"
	"github.com/james-reichert/cccfunctions/internal/usecase"
)

// In-memory stand-ins; the handler tests only exercise routing, binding and
// validation, so the stores can be trivial.
type stubUsers struct {
	upserts int
	deletes int
}

func (s *stubUsers) Upsert(ctx context.Context, user *entity.UserAccount) error {
	s.upserts++
	return nil
}

func (s *stubUsers) GetByUserID(ctx context.Context, userID string) (*entity.UserAccount, error) {
	return nil, nil
}

func (s *stubUsers) List(ctx context.Context) ([]entity.UserAccount, error) {
	return nil, nil
}

func (s *stubUsers) Delete(ctx context.Context, userID string) error {
	s.deletes++
	return nil
}

type stubCustomers struct {
	customerIDs map[string]string
}

func (s *stubCustomers) GetByUserID(ctx context.Context, userID string) (*entity.CustomerRecord, error) {
	if customerID, ok := s.customerIDs[userID]; ok {
		return &entity.CustomerRecord{UserID: userID, CustomerID: customerID}, nil
	}
	return nil, nil
}

func (s *stubCustomers) SetCustomerID(ctx context.Context, userID, customerID string) error {
	if s.customerIDs == nil {
		s.customerIDs = make(map[string]string)
	}
	s.customerIDs[userID] = customerID
	return nil
}

func (s *stubCustomers) SetDefaultPaymentMethod(ctx context.Context, userID, paymentMethodID string) error {
	return nil
}

func (s *stubCustomers) SetError(ctx context.Context, userID, message string) error { return nil }

func (s *stubCustomers) Delete(ctx context.Context, userID string) error { return nil }

type stubTokens struct{}

func (stubTokens) GetByPushID(ctx context.Context, pushID string) (*entity.PaymentMethodToken, error) {
	return nil, nil
}

func (stubTokens) GetByPaymentMethodID(ctx context.Context, userID, paymentMethodID string) (*entity.PaymentMethodToken, error) {
	return nil, nil
}

func (stubTokens) SetPaymentMethodID(ctx context.Context, pushID, paymentMethodID string) error {
	return nil
}

func (stubTokens) SetError(ctx context.Context, pushID, message string) error { return nil }

func (stubTokens) Delete(ctx context.Context, pushID string) error { return nil }

type stubCharges struct{}

func (stubCharges) GetByChargeID(ctx context.Context, chargeID string) (*entity.ChargeRequest, error) {
	return nil, nil
}

func (stubCharges) SetResult(ctx context.Context, chargeID string, result *entity.ChargeResult) error {
	return nil
}

func (stubCharges) SetError(ctx context.Context, chargeID, message string) error { return nil }

type stubProvider struct {
	customersCreated int
	defaultPM        string
	sources          []string
	detached         []string
}

func (s *stubProvider) CreateCustomer(ctx context.Context, email string) (*provider.Customer, error) {
	s.customersCreated++
	return &provider.Customer{ID: "cus_123", Email: email}, nil
}

func (s *stubProvider) RetrieveCustomer(ctx context.Context, customerID string) (*provider.Customer, error) {
	return &provider.Customer{
		ID:                   customerID,
		DefaultPaymentMethod: s.defaultPM,
		PaymentSources:       s.sources,
	}, nil
}

func (s *stubProvider) DeleteCustomer(ctx context.Context, customerID string) error { return nil }

func (s *stubProvider) AttachPaymentMethod(ctx context.Context, token, customerID string) (string, error) {
	return "pm_1", nil
}

func (s *stubProvider) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	s.detached = append(s.detached, paymentMethodID)
	return nil
}

func (s *stubProvider) CreateCharge(ctx context.Context, req *provider.ChargeRequest) (*provider.Charge, error) {
	return &provider.Charge{
		ID:       "ch_stub",
		Status:   "succeeded",
		Amount:   req.Amount,
		Currency: req.Currency,
	}, nil
}

func (s *stubProvider) UpdateDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*provider.Customer, error) {
	return &provider.Customer{ID: customerID, DefaultPaymentMethod: paymentMethodID}, nil
}

func (s *stubProvider) GetProviderName() string { return "stub" }

func newHandler(t *testing.T) (*handlers.LifecycleHandler, *stubUsers, *stubCustomers, *stubProvider) {
	t.Helper()
	users := &stubUsers{}
	customers := &stubCustomers{}
	processor := &stubProvider{}
	svc := usecase.NewReconcilerService(
		users, customers, stubTokens{}, stubCharges{}, processor,
		zap.NewNop(), "USD", 90,
	)
	return handlers.NewLifecycleHandler(svc, zap.NewNop()), users, customers, processor
}

func postEvent(t *testing.T, h *handlers.LifecycleHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/hooks/auth", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.HandleEvent(e.NewContext(req, rec))
	assert.NoError(t, err)
	return rec
}

func TestLifecycleHandler_UserCreated(t *testing.T) {
	h, users, customers, processor := newHandler(t)

	rec := postEvent(t, h, `{"type":"user.created","user":{"uid":"u1","email":"a@b.com"}}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, users.upserts)
	assert.Equal(t, 1, processor.customersCreated)
	assert.Equal(t, "cus_123", customers.customerIDs["u1"])
}

func TestLifecycleHandler_UserDeleted(t *testing.T) {
	h, users, _, _ := newHandler(t)

	rec := postEvent(t, h, `{"type":"user.deleted","user":{"uid":"u1"}}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, users.deletes)
}

func TestLifecycleHandler_RejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"unknown type", `{"type":"user.renamed","user":{"uid":"u1"}}`},
		{"missing uid", `{"type":"user.created","user":{"email":"a@b.com"}}`},
		{"created without email", `{"type":"user.created","user":{"uid":"u1"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, users, _, processor := newHandler(t)

			rec := postEvent(t, h, tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, users.upserts)
			assert.Zero(t, processor.customersCreated)
		})
	}
}
