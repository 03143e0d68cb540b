// Package keys supplies signing-key material to the token service. A
// Provider loads a full keyring snapshot; callers swap it into the token
// service atomically, so rotation never exposes a half-updated key set.
package keys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authgate/internal/server/token"
)

// Provider loads the current signing keyring from its source.
type Provider interface {
	Load(ctx context.Context) (*token.Keyring, error)
}

// StaticProvider builds a keyring from configuration: a map of key id to
// secret plus the id of the active key.
type StaticProvider struct {
	activeID string
	secrets  map[string]string
}

func NewStaticProvider(activeID string, secrets map[string]string) *StaticProvider {
	return &StaticProvider{activeID: activeID, secrets: secrets}
}

func (p *StaticProvider) Load(_ context.Context) (*token.Keyring, error) {
	secret, ok := p.secrets[p.activeID]
	if !ok {
		return nil, fmt.Errorf("active key id %q not present in signing keys", p.activeID)
	}
	active := token.Key{ID: p.activeID, Secret: []byte(secret)}

	previous := make([]token.Key, 0, len(p.secrets)-1)
	for id, s := range p.secrets {
		if id == p.activeID {
			continue
		}
		previous = append(previous, token.Key{ID: id, Secret: []byte(s)})
	}
	return token.NewKeyring(active, previous...)
}
