package entity

import "time"

// PaymentMethodToken is an ephemeral document written by the client-side
// payment form. The reconciler consumes it exactly once to attach a payment
// method to the user's customer record.
type PaymentMethodToken struct {
	PushID string `bson:"_id" json:"push_id" validate:"required"`
	UserID string `bson:"user_id" json:"user_id" validate:"required"`
	Token  string `bson:"token" json:"token" validate:"required"`
	// PaymentMethodID is set once the token has been attached remotely.
	PaymentMethodID string    `bson:"payment_method_id,omitempty" json:"payment_method_id,omitempty"`
	Error           string    `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
