package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/james-reichert/cccfunctions/internal/domain/provider"
)

// StripeProvider implements the PaymentProvider interface against the Stripe
// API. It owns its client handle; the package-global stripe.Key is never set.
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeProvider creates a new Stripe provider with its own API client.
func NewStripeProvider(secretKey string, logger *zap.Logger) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeProvider{
		api:    api,
		logger: logger,
	}
}

// GetProviderName returns the provider name
func (s *StripeProvider) GetProviderName() string {
	return "stripe"
}

func (s *StripeProvider) CreateCustomer(ctx context.Context, email string) (*provider.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx

	cust, err := s.api.Customers.New(params)
	if err != nil {
		return nil, mapError(err)
	}
	return toCustomer(cust), nil
}

func (s *StripeProvider) RetrieveCustomer(ctx context.Context, customerID string) (*provider.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := s.api.Customers.Get(customerID, params)
	if err != nil {
		if isMissing(err) {
			return nil, provider.ErrCustomerGone
		}
		return nil, mapError(err)
	}
	if cust.Deleted {
		return nil, provider.ErrCustomerGone
	}

	out := toCustomer(cust)

	// Attached payment methods live on the PaymentMethods API; the legacy
	// customer sources list never includes them.
	listParams := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	listParams.Context = ctx

	iter := s.api.PaymentMethods.List(listParams)
	for iter.Next() {
		out.PaymentSources = append(out.PaymentSources, iter.PaymentMethod().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (s *StripeProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	if _, err := s.api.Customers.Del(customerID, params); err != nil {
		if isMissing(err) {
			return provider.ErrCustomerGone
		}
		return mapError(err)
	}
	return nil
}

func (s *StripeProvider) AttachPaymentMethod(ctx context.Context, token, customerID string) (string, error) {
	pmParams := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Token: stripe.String(token),
		},
	}
	pmParams.Context = ctx

	pm, err := s.api.PaymentMethods.New(pmParams)
	if err != nil {
		return "", mapError(err)
	}

	attachParams := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	attachParams.Context = ctx

	attached, err := s.api.PaymentMethods.Attach(pm.ID, attachParams)
	if err != nil {
		return "", mapError(err)
	}
	return attached.ID, nil
}

func (s *StripeProvider) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx

	if _, err := s.api.PaymentMethods.Detach(paymentMethodID, params); err != nil {
		if isMissing(err) {
			return provider.ErrPaymentMethodGone
		}
		return mapError(err)
	}
	return nil
}

func (s *StripeProvider) UpdateDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*provider.Customer, error) {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	cust, err := s.api.Customers.Update(customerID, params)
	if err != nil {
		if isMissing(err) {
			return nil, provider.ErrCustomerGone
		}
		return nil, mapError(err)
	}
	return toCustomer(cust), nil
}

func (s *StripeProvider) CreateCharge(ctx context.Context, req *provider.ChargeRequest) (*provider.Charge, error) {
	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		Customer: stripe.String(req.CustomerID),
		TransferData: &stripe.ChargeTransferDataParams{
			Amount:      stripe.Int64(req.TransferAmount),
			Destination: stripe.String(req.TransferDest),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	if req.Source != "" {
		if err := params.SetSource(req.Source); err != nil {
			return nil, mapError(err)
		}
	}

	ch, err := s.api.Charges.New(params)
	if err != nil {
		return nil, mapError(err)
	}

	out := &provider.Charge{
		ID:       ch.ID,
		Status:   string(ch.Status),
		Amount:   ch.Amount,
		Currency: string(ch.Currency),
	}
	if ch.TransferData != nil {
		out.TransferAmount = ch.TransferData.Amount
		if ch.TransferData.Destination != nil {
			out.TransferDest = ch.TransferData.Destination.ID
		}
	}
	return out, nil
}

func toCustomer(cust *stripe.Customer) *provider.Customer {
	out := &provider.Customer{
		ID:    cust.ID,
		Email: cust.Email,
	}
	if cust.InvoiceSettings != nil && cust.InvoiceSettings.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethod = cust.InvoiceSettings.DefaultPaymentMethod.ID
	}
	return out
}

// isMissing reports whether the error is Stripe's "resource_missing", i.e.
// the referenced object no longer exists.
func isMissing(err error) bool {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return sErr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}

// mapError converts a Stripe SDK error into a ProviderError. Card errors
// carry a message written for the cardholder, so those are marked safe to
// display verbatim; everything else stays internal.
func mapError(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return &provider.ProviderError{
			Code:        string(sErr.Code),
			Message:     sErr.Msg,
			Displayable: sErr.Type == stripe.ErrorTypeCard,
		}
	}
	return &provider.ProviderError{
		Code:    "provider_error",
		Message: err.Error(),
	}
}
