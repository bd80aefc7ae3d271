package entity

import "time"

// CustomerRecord stores the relationship between a user and the payment
// processor's customer object. CustomerID is assigned once on user creation
// and never reassigned afterwards.
type CustomerRecord struct {
	UserID          string          `bson:"_id" json:"user_id"`
	CustomerID      string          `bson:"customer_id" json:"customer_id"`
	InvoiceSettings InvoiceSettings `bson:"invoice_settings" json:"invoice_settings"`
	Error           string          `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

type InvoiceSettings struct {
	DefaultPaymentMethod string `bson:"default_payment_method" json:"default_payment_method"`
}
