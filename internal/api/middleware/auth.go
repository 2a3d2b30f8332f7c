package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"codequest_admin/internal/app/service"
	"codequest_admin/internal/common"
	"codequest_admin/internal/common/security"
	"codequest_admin/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	SessionIDCtxKey   contextKey = "sessionID"
	RoleCtxKey        contextKey = "role"
	ExpiresAtCtxKey   contextKey = "expiresAt"
	GameSessionCtxKey contextKey = "gameSession"
)

func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if err != nil {
			if strings.Contains(err.Error(), "no token found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}

		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		sessionID, err := security.GetSessionIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		if _, err := security.GetAdminIDFromClaims(claims); err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		role, err := security.GetRoleFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDCtxKey, sessionID)
		ctx = context.WithValue(ctx, RoleCtxKey, role)
		ctx = context.WithValue(ctx, ExpiresAtCtxKey, token.Expiration())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(RoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Session loads the caller's game session. A session whose backend
// credential is gone is closed and answered with 401.
func Session(auth *service.AuthService, sessions *service.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := GetSessionIDFromContext(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			authorized, err := auth.Authorized(r.Context(), sessionID)
			if err != nil {
				common.RespondWithErr(w, err)
				return
			}
			if !authorized {
				sessions.Close(sessionID)
				common.RespondWithError(w, http.StatusUnauthorized, "Session expired, please log in again")
				return
			}

			expiresAt, _ := GetExpiresAtFromContext(r.Context())
			gs, err := sessions.Open(r.Context(), sessionID, expiresAt)
			if err != nil && errors.Is(err, common.ErrUnauthorized) {
				sessions.Close(sessionID)
				common.RespondWithErr(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), GameSessionCtxKey, gs)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDCtxKey).(string)
	return sessionID, ok
}

// GetExpiresAtFromContext returns the exp of the verified token.
func GetExpiresAtFromContext(ctx context.Context) (time.Time, bool) {
	exp, ok := ctx.Value(ExpiresAtCtxKey).(time.Time)
	return exp, ok
}

func GetGameSessionFromContext(ctx context.Context) (*service.GameSession, bool) {
	gs, ok := ctx.Value(GameSessionCtxKey).(*service.GameSession)
	return gs, ok && gs != nil
}
