package token

import (
	"errors"
	"fmt"
)

// Key is one HMAC signing key, addressed by its key id ("kid" header).
type Key struct {
	ID     string
	Secret []byte
}

// Keyring is an immutable snapshot of signing keys: exactly one active key
// used for issuance plus zero or more previously-active keys kept only to
// verify not-yet-expired tokens signed under them. Rotation builds a new
// Keyring and swaps it whole; a Keyring is never mutated after construction.
type Keyring struct {
	active Key
	byID   map[string]Key
}

// NewKeyring builds a snapshot from the active key and any previous keys.
func NewKeyring(active Key, previous ...Key) (*Keyring, error) {
	if active.ID == "" || len(active.Secret) == 0 {
		return nil, errors.New("keyring: active key needs an id and a secret")
	}
	byID := map[string]Key{active.ID: active}
	for _, k := range previous {
		if k.ID == "" || len(k.Secret) == 0 {
			return nil, errors.New("keyring: previous key needs an id and a secret")
		}
		if _, dup := byID[k.ID]; dup {
			return nil, fmt.Errorf("keyring: duplicate key id %q", k.ID)
		}
		byID[k.ID] = k
	}
	return &Keyring{active: active, byID: byID}, nil
}

// Active returns the key used for issuance.
func (k *Keyring) Active() Key { return k.active }

// Lookup returns the key for the given id, for verification only.
func (k *Keyring) Lookup(id string) (Key, bool) {
	key, ok := k.byID[id]
	return key, ok
}
