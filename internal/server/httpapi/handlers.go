package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authgate/internal/common"
)

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	Token string `json:"token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
}

type sessionResponse struct {
	Subject   string `json:"subject"`
	SessionID string `json:"session_id"`
	ExpiresAt int64  `json:"expires_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req := &credentialsRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, err := s.auth.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "subject", user.ID)
	s.writeJSON(w, http.StatusCreated, registerResponse{UserID: user.ID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req := &credentialsRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	req := &refreshRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	req := &logoutRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.auth.Logout(r.Context(), req.Token); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{
		Subject:   claims.Subject,
		SessionID: claims.SessionID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	})
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		return
	}

	if err := s.auth.Disable(r.Context(), claims.Subject, claims.SessionID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "account disabled", "subject", claims.Subject)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "database unavailable"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

// writeError maps orchestrator errors onto transport responses. The public
// message stays uniform per failure class; the underlying cause goes to the
// server log only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if kind, ok := common.AuthKindOf(err); ok {
		switch kind {
		case common.KindInvalidCredentials:
			s.logger.Info(r.Context(), "authentication rejected", "cause", err)
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		case common.KindAccountDisabled:
			s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "account disabled"})
		case common.KindInvalidToken:
			s.logger.Info(r.Context(), "token rejected", "cause", errors.Unwrap(err))
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		}
		return
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "login and password are required"})
	case errors.Is(err, common.ErrConflict):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "login already taken"})
	default:
		s.logger.Error(r.Context(), "request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
