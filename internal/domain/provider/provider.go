package provider

import (
	"context"
	"errors"
)

var (
	// ErrCustomerGone marks a remote customer that is deleted or unknown.
	ErrCustomerGone = errors.New("remote customer deleted or unknown")

	// ErrPaymentMethodGone marks a payment method already detached or unknown.
	ErrPaymentMethodGone = errors.New("remote payment method detached or unknown")
)

// PaymentProvider defines the interface to the remote payment processor.
// Implementations hold their own client handle; nothing here touches
// package-global SDK state.
type PaymentProvider interface {
	// CreateCustomer creates a remote customer record for the given email.
	CreateCustomer(ctx context.Context, email string) (*Customer, error)

	// RetrieveCustomer fetches the remote customer, including its payment
	// sources. A deleted or unknown customer yields ErrCustomerGone.
	RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error)

	// DeleteCustomer removes the remote customer record.
	DeleteCustomer(ctx context.Context, customerID string) error

	// AttachPaymentMethod turns a client-side token into a payment method
	// attached to the customer and returns its id.
	AttachPaymentMethod(ctx context.Context, token, customerID string) (string, error)

	// DetachPaymentMethod removes the payment method from its customer.
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error

	// UpdateDefaultPaymentMethod sets the customer's default payment method
	// under invoice settings and returns the updated customer.
	UpdateDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*Customer, error)

	// CreateCharge submits a charge. The idempotency key makes redelivered
	// requests safe: the processor must apply a given key at most once.
	CreateCharge(ctx context.Context, req *ChargeRequest) (*Charge, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// Customer is the provider-agnostic view of a remote customer record.
type Customer struct {
	ID                   string   `json:"id"`
	Email                string   `json:"email"`
	DefaultPaymentMethod string   `json:"default_payment_method"`
	PaymentSources       []string `json:"payment_sources,omitempty"`
}

// ChargeRequest carries everything needed to submit a charge, including the
// caller-supplied idempotency key and the transfer split routed to the
// destination account.
type ChargeRequest struct {
	Amount         int64  `json:"amount"` // smallest currency unit
	Currency       string `json:"currency"`
	CustomerID     string `json:"customer_id"`
	Source         string `json:"source,omitempty"` // explicit source override
	IdempotencyKey string `json:"idempotency_key"`
	TransferAmount int64  `json:"transfer_amount"`
	TransferDest   string `json:"transfer_destination"`
}

// Charge is the provider's view of a submitted charge.
type Charge struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	TransferAmount int64  `json:"transfer_amount"`
	TransferDest   string `json:"transfer_destination"`
}

// GenericErrorMessage replaces internal processor errors in user-visible
// annotations so implementation detail never leaks.
const GenericErrorMessage = "An error occurred, developers have been alerted."

// ProviderError carries a processor failure across the provider boundary.
// Displayable marks errors whose message is safe to show verbatim to the
// user (e.g. a card decline).
type ProviderError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Displayable bool   `json:"displayable"`
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// UserMessage returns the text written into a document's error annotation.
func (e *ProviderError) UserMessage() string {
	if e.Displayable {
		return e.Message
	}
	return GenericErrorMessage
}
