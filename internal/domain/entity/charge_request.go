package entity

import "time"

// ChargeRequest is written by an upstream process. The reconciler attaches
// either the processor's charge result or an error annotation; the document
// itself is never deleted by this system.
type ChargeRequest struct {
	ChargeID      string        `bson:"_id" json:"charge_id" validate:"required"`
	UserID        string        `bson:"user_id" json:"user_id" validate:"required"`
	Amount        int64         `bson:"amount" json:"amount" validate:"required,gt=0"`
	Currency      string        `bson:"currency,omitempty" json:"currency,omitempty"`
	DestinationID string        `bson:"destination_id" json:"destination_id" validate:"required"`
	Source        string        `bson:"source,omitempty" json:"source,omitempty"`
	Result        *ChargeResult `bson:"result,omitempty" json:"result,omitempty"`
	Error         string        `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
}

// ChargeResult is the subset of the processor's charge object persisted back
// onto the request document.
type ChargeResult struct {
	ProcessorChargeID string `bson:"processor_charge_id" json:"processor_charge_id"`
	Status            string `bson:"status" json:"status"`
	Amount            int64  `bson:"amount" json:"amount"`
	Currency          string `bson:"currency" json:"currency"`
	TransferAmount    int64  `bson:"transfer_amount" json:"transfer_amount"`
	TransferDest      string `bson:"transfer_destination" json:"transfer_destination"`
}
