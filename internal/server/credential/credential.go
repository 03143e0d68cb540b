// Package credential implements one-way hashing and verification of user
// secrets with bcrypt. It is purely functional: no I/O, no shared state.
package credential

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authgate/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a valid bcrypt blob used to equalize timing between
// "unknown user" and "wrong password" code paths.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Manager hashes and verifies secrets at a fixed cost. The cost is a
// deliberate throughput/security trade-off: it should keep a single
// verification in the 100–300ms range on production hardware.
type Manager struct {
	cost int
}

// NewManager validates the cost and returns a Manager.
func NewManager(cost int) (*Manager, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d,%d]",
			common.ErrCredentialMalformed, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Manager{cost: cost}, nil
}

// Hash produces a one-way, salted bcrypt blob for secret. The output format
// is deterministic, the output value is not (a fresh salt every call).
func (m *Manager) Hash(secret []byte) ([]byte, error) {
	blob, err := bcrypt.GenerateFromPassword(secret, m.cost)
	if err != nil {
		// bcrypt rejects secrets over 72 bytes
		return nil, fmt.Errorf("%w: %v", common.ErrCredentialMalformed, err)
	}
	return blob, nil
}

// Verify reports whether secret matches the stored blob. A mismatch is not
// an error; only a blob that cannot be parsed is. bcrypt's comparison does
// not short-circuit on early byte mismatch.
func (m *Manager) Verify(secret, blob []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword(blob, secret)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", common.ErrCredentialMalformed, err)
}

// DummyCompare burns one bcrypt comparison against a fixed blob. Called on
// the unknown-user path so that login timing does not reveal whether the
// login identifier exists.
func (m *Manager) DummyCompare(secret []byte) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, secret)
}
