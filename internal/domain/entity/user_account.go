package entity

import "time"

// UserAccount mirrors the identity provider's view of a user. It is written
// once by the lifecycle handler and read-only everywhere else.
type UserAccount struct {
	UserID    string    `bson:"_id" json:"user_id" validate:"required"`
	Email     string    `bson:"email" json:"email" validate:"required,email"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
