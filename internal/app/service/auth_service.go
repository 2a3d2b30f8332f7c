package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/common/security"
	"codequest_admin/internal/domain/model"
	"codequest_admin/internal/platform/tokenstore"

	"github.com/google/uuid"
)

type AuthService struct {
	identity Identity
	tokens   tokenstore.Store
	issuer   *security.TokenIssuer
	sessions *SessionManager
	logger   *slog.Logger
}

func NewAuthService(identity Identity, tokens tokenstore.Store, issuer *security.TokenIssuer, sessions *SessionManager, logger *slog.Logger) *AuthService {
	return &AuthService{identity: identity, tokens: tokens, issuer: issuer, sessions: sessions, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	TeamName string `json:"teamName"`
}

type AuthResponse struct {
	Admin model.Admin `json:"admin"`
	Token string      `json:"token"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}
	cred, err := s.identity.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, cred)
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}
	cred, err := s.identity.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, cred)
}

// startSession stores the backend credential under a fresh session id and
// issues the admin API token that carries that id.
func (s *AuthService) startSession(ctx context.Context, cred Credential) (*AuthResponse, error) {
	sessionID := uuid.NewString()
	if err := s.tokens.Save(ctx, sessionID, cred.Token); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.issuer.GenerateToken(sessionID, cred.Admin.ID, model.RoleAdmin)
	if err != nil {
		s.tokens.Remove(ctx, sessionID)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if _, err := s.sessions.Open(ctx, sessionID, expiresAt); err != nil {
		s.logger.WarnContext(ctx, "session opened without data", "session_id", sessionID, "error", err)
	}
	s.logger.InfoContext(ctx, "admin logged in", "admin_id", cred.Admin.ID, "session_id", sessionID)
	return &AuthResponse{Admin: cred.Admin, Token: token}, nil
}

// Me restores the admin of a session. A rejected credential ends the session.
func (s *AuthService) Me(ctx context.Context, sessionID string) (*model.Admin, error) {
	ok, err := tokenstore.Has(ctx, s.tokens, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.sessions.Close(sessionID)
		return nil, common.ErrUnauthorized
	}
	admin, err := s.identity.Restore(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			s.endSession(ctx, sessionID)
		}
		return nil, err
	}
	return &admin, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.endSession(ctx, sessionID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "admin logged out", "session_id", sessionID)
	return nil
}

// Authorized reports whether the session still holds a credential. An error
// means the token store could not be read and says nothing about the session.
func (s *AuthService) Authorized(ctx context.Context, sessionID string) (bool, error) {
	return tokenstore.Has(ctx, s.tokens, sessionID)
}

// ExpireSessions ends every session whose API token expired before now and
// drops its stored credential. Expired tokens never reach the session
// middleware, so nothing else would close them.
func (s *AuthService) ExpireSessions(ctx context.Context, now time.Time) int {
	expired := s.sessions.Expired(now)
	for _, id := range expired {
		if err := s.tokens.Remove(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to remove expired admin token", "session_id", id, "error", err)
		}
	}
	if len(expired) > 0 {
		s.logger.InfoContext(ctx, "expired admin sessions closed", "count", len(expired))
	}
	return len(expired)
}

// RunExpiry sweeps expired sessions every interval until ctx is done.
func (s *AuthService) RunExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.ExpireSessions(ctx, now)
		}
	}
}

func (s *AuthService) endSession(ctx context.Context, sessionID string) error {
	s.sessions.Close(sessionID)
	return s.tokens.Remove(ctx, sessionID)
}
