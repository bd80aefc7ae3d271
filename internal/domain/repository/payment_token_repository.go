package repository

import (
	"context"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
)

type PaymentTokenRepository interface {
	GetByPushID(ctx context.Context, pushID string) (*entity.PaymentMethodToken, error)
	GetByPaymentMethodID(ctx context.Context, userID, paymentMethodID string) (*entity.PaymentMethodToken, error)
	// SetPaymentMethodID records the processor-assigned payment method id on
	// the consumed token document.
	SetPaymentMethodID(ctx context.Context, pushID, paymentMethodID string) error
	SetError(ctx context.Context, pushID, message string) error
	Delete(ctx context.Context, pushID string) error
}
