// Package token implements issuance and verification of signed, time-bounded
// JWTs carrying subject, session, and kind claims. Signing keys rotate via
// immutable keyring snapshots; verification consults a revocation store
// after signature and expiry checks pass.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed token payload: registered sub/iat/exp/jti plus the
// token kind and the session id shared by both tokens of a pair.
// Immutable once signed.
type Claims struct {
	jwt.RegisteredClaims
	Kind      Kind   `json:"knd"`
	SessionID string `json:"sid"`
}

// RevocationChecker is the read side of the revocation store.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Service issues and verifies tokens. The keyring is a read-mostly atomic
// snapshot: Rotate swaps it whole, so a verification call always sees one
// consistent key set.
type Service struct {
	keys        atomic.Pointer[Keyring]
	revocations RevocationChecker
	clock       clock.Clock
	leeway      time.Duration
}

// NewService builds a Service. leeway is the symmetric clock-skew tolerance
// applied to expiry checks only.
func NewService(kr *Keyring, rc RevocationChecker, clk clock.Clock, leeway time.Duration) *Service {
	s := &Service{revocations: rc, clock: clk, leeway: leeway}
	s.keys.Store(kr)
	return s
}

// Rotate replaces the keyring snapshot. Issuance after Rotate uses the new
// active key; tokens signed under retained previous keys keep verifying
// until they expire.
func (s *Service) Rotate(kr *Keyring) {
	s.keys.Store(kr)
}

// Issue signs a token for subjectID with a fresh token id. Both tokens of a
// pair carry the same sessionID.
func (s *Service) Issue(subjectID, sessionID string, kind Kind, ttl time.Duration) (string, *Claims, error) {
	now := s.clock.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Kind:      kind,
		SessionID: sessionID,
	}

	key := s.keys.Load().Active()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = key.ID

	signed, err := t.SignedString(key.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Verify validates signature and expiry, then checks the revocation store
// for both the token id and the session id. The store lookup runs last so
// that already-invalid tokens never cost a storage round trip.
func (s *Service) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	for _, id := range []string{claims.ID, claims.SessionID} {
		revoked, err := s.revocations.IsRevoked(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("revocation lookup: %w", err)
		}
		if revoked {
			return nil, common.ErrTokenRevoked
		}
	}
	return claims, nil
}

// Parse validates signature and expiry without consulting the revocation
// store. Used for access tokens when per-request revocation checks are
// disabled by configuration.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	return s.parse(tokenString, false)
}

// ParseAllowExpired validates the signature but tolerates an expired "exp"
// claim. Logout honors expired tokens, so it needs exactly this.
func (s *Service) ParseAllowExpired(tokenString string) (*Claims, error) {
	return s.parse(tokenString, true)
}

func (s *Service) parse(tokenString string, allowExpired bool) (*Claims, error) {
	kr := s.keys.Load()
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithLeeway(s.leeway),
	}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid header")
		}
		// reject unknown kids outright instead of trying every key
		key, ok := kr.Lookup(kid)
		if !ok {
			return nil, fmt.Errorf("unrecognized key id %q", kid)
		}
		return key.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenInvalid, err)
	}

	if claims.Subject == "" || claims.ID == "" || claims.SessionID == "" ||
		claims.ExpiresAt == nil || (claims.Kind != KindAccess && claims.Kind != KindRefresh) {
		return nil, fmt.Errorf("%w: required claims missing", common.ErrTokenInvalid)
	}
	return claims, nil
}
