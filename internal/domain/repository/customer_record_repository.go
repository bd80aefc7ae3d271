package repository

import (
	"context"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
)

type CustomerRecordRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.CustomerRecord, error)
	// SetCustomerID persists the processor-assigned customer id, creating the
	// record when absent. Callers must guard the never-reassigned invariant
	// by reading first.
	SetCustomerID(ctx context.Context, userID, customerID string) error
	// SetDefaultPaymentMethod merges the updated invoice settings onto the
	// record. Field-level update, atomic per document.
	SetDefaultPaymentMethod(ctx context.Context, userID, paymentMethodID string) error
	// SetError merges a display-only error annotation onto the record,
	// creating a shell document when none exists yet.
	SetError(ctx context.Context, userID, message string) error
	Delete(ctx context.Context, userID string) error
}
