package models

import "time"

// UserStatus is the account lifecycle state. Accounts are never deleted,
// only disabled.
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

// User is the identity record owned by the users repository. PasswordHash
// is an opaque bcrypt blob: it must never be logged or serialized outward,
// and it is only ever compared through the credential manager.
type User struct {
	ID           string
	Login        string
	PasswordHash []byte
	Status       UserStatus
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
