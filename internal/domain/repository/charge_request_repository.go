package repository

import (
	"context"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
)

type ChargeRequestRepository interface {
	GetByChargeID(ctx context.Context, chargeID string) (*entity.ChargeRequest, error)
	// SetResult merges the processor's charge result onto the request
	// document; the document is never deleted by this system.
	SetResult(ctx context.Context, chargeID string, result *entity.ChargeResult) error
	SetError(ctx context.Context, chargeID, message string) error
}
