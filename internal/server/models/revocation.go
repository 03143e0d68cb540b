package models

import "time"

// RevocationEntry marks a token identifier (or a whole session identifier)
// as invalid until ExpiresAt, after which the entry may be purged.
type RevocationEntry struct {
	TokenID   string
	ExpiresAt time.Time
}
