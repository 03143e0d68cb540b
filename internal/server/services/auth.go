// Package services contains the authentication orchestrator: the only
// component exposed to the transport layer. It composes the credential
// manager, the token service, and the repositories into register, login,
// refresh, and logout flows.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/credential"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/users"
	"github.com/dmitrijs2005/authgate/internal/server/token"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a longer-lived refresh
// token sharing one session id.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService drives the session lifecycle:
// unauthenticated → authenticated → refreshed → revoked.
type AuthService struct {
	users       users.Repository
	revocations revocations.Repository
	credentials *credential.Manager
	tokens      *token.Service
	clock       clock.Clock
	logger      logging.Logger

	accessTTL  time.Duration
	refreshTTL time.Duration

	// checkAccessRevocation controls whether plain access-token checks hit
	// the revocation store on every request or only at refresh/logout.
	checkAccessRevocation bool
}

func NewAuthService(
	ur users.Repository,
	rr revocations.Repository,
	cm *credential.Manager,
	ts *token.Service,
	clk clock.Clock,
	l logging.Logger,
	accessTTL, refreshTTL time.Duration,
	checkAccessRevocation bool,
) *AuthService {
	return &AuthService{
		users:                 ur,
		revocations:           rr,
		credentials:           cm,
		tokens:                ts,
		clock:                 clk,
		logger:                l.With("module", "auth_service"),
		accessTTL:             accessTTL,
		refreshTTL:            refreshTTL,
		checkAccessRevocation: checkAccessRevocation,
	}
}

// Register creates a new user. The login is case-normalized before storage;
// duplicates surface as common.ErrConflict.
func (s *AuthService) Register(ctx context.Context, login, secret string) (*models.User, error) {
	login = normalizeLogin(login)
	if login == "" || secret == "" {
		return nil, fmt.Errorf("%w: login and password are required", common.ErrValidation)
	}

	hash, err := s.credentials.Hash([]byte(secret))
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, login, hash)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the presented credentials and issues a fresh token pair
// under a new session id. An unknown login and a wrong password return the
// same error, so login ids cannot be enumerated; a dummy hash comparison on
// the unknown-login path keeps the timing comparable too.
func (s *AuthService) Login(ctx context.Context, login, secret string) (*TokenPair, error) {
	login = normalizeLogin(login)

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.credentials.DummyCompare([]byte(secret))
			return nil, common.NewAuthError(common.KindInvalidCredentials, err)
		}
		return nil, err
	}

	ok, err := s.credentials.Verify([]byte(secret), user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewAuthError(common.KindInvalidCredentials, errors.New("password mismatch"))
	}

	// checked after the credential so a wrong password never reveals the
	// account state
	if user.Status == models.StatusDisabled {
		return nil, common.NewAuthError(common.KindAccountDisabled, nil)
	}

	pair, err := s.issuePair(user.ID, uuid.NewString())
	if err != nil {
		return nil, err
	}

	// best-effort: a failed timestamp update must not block the login
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.clock.Now()); err != nil {
		s.logger.Warn(ctx, "last-login update failed", "subject", user.ID, "error", err)
	}

	return pair, nil
}

// Refresh exchanges a refresh token for a new pair under the same session
// id. The presented token's identifier is durably revoked before the new
// pair exists, so a concurrent or replayed refresh of the same token gets
// exactly one winner.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(ctx, refreshToken)
	if err != nil {
		return nil, s.mapTokenError(ctx, err)
	}
	if claims.Kind != token.KindRefresh {
		return nil, common.NewAuthError(common.KindInvalidToken, errors.New("not a refresh token"))
	}

	alreadyRevoked, err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, err
	}
	if alreadyRevoked {
		// lost the race or a replay: the identifier was consumed already
		return nil, common.NewAuthError(common.KindInvalidToken, common.ErrTokenRevoked)
	}

	pair, err := s.issuePair(claims.Subject, claims.SessionID)
	if err != nil {
		// the old token is gone and no new one exists; re-issuing from the
		// consumed token would break single-use, so the session is lost
		s.logger.Error(ctx, "session lost: issuance failed after refresh revocation",
			"session", claims.SessionID, "subject", claims.Subject, "error", err)
		return nil, err
	}
	return pair, nil
}

// Logout revokes the presented token and its whole session. Only the
// signature is validated: logging out with an already-expired token is
// still honored.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.ParseAllowExpired(tokenString)
	if err != nil {
		return common.NewAuthError(common.KindInvalidToken, err)
	}

	// the session entry outlives either token of the pair
	sessionExpiry := s.clock.Now().Add(s.refreshTTL)
	entries := []models.RevocationEntry{
		{TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time},
		{TokenID: claims.SessionID, ExpiresAt: sessionExpiry},
	}
	return s.revocations.RevokeAll(ctx, entries)
}

// Authenticate validates an access token for the request path. Whether the
// revocation store is consulted here is a configuration choice; refresh and
// logout always check.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*token.Claims, error) {
	var claims *token.Claims
	var err error
	if s.checkAccessRevocation {
		claims, err = s.tokens.Verify(ctx, accessToken)
	} else {
		claims, err = s.tokens.Parse(accessToken)
	}
	if err != nil {
		return nil, s.mapTokenError(ctx, err)
	}
	if claims.Kind != token.KindAccess {
		return nil, common.NewAuthError(common.KindInvalidToken, errors.New("not an access token"))
	}
	return claims, nil
}

// Disable marks the account disabled and revokes its current session.
func (s *AuthService) Disable(ctx context.Context, subjectID, sessionID string) error {
	if err := s.users.Disable(ctx, subjectID); err != nil {
		return err
	}
	sessionExpiry := s.clock.Now().Add(s.refreshTTL)
	_, err := s.revocations.Revoke(ctx, sessionID, sessionExpiry)
	return err
}

// mapTokenError collapses the distinct token failure kinds to a uniform
// public error while keeping the cause for server-side logs. Storage
// failures pass through untouched.
func (s *AuthService) mapTokenError(ctx context.Context, err error) error {
	if errors.Is(err, common.ErrStorage) {
		return err
	}
	s.logger.Debug(ctx, "token rejected", "cause", err)
	return common.NewAuthError(common.KindInvalidToken, err)
}

func (s *AuthService) issuePair(subjectID, sessionID string) (*TokenPair, error) {
	access, _, err := s.tokens.Issue(subjectID, sessionID, token.KindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.Issue(subjectID, sessionID, token.KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
