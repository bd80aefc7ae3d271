package errors

import "errors"

var (
	// ErrCustomerRecordNotFound indicates that the user has no provisioned
	// customer record; handlers map this to a not-found response
	ErrCustomerRecordNotFound = errors.New("customer record not found for user")

	// ErrTokenNotFound indicates that no token document matches the payment
	// method being removed; the remote detach may still have succeeded
	ErrTokenNotFound = errors.New("payment method token not found")
)
