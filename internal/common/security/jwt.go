package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies the admin API session tokens.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", key, nil),
		ttl:  ttl,
	}
}

// JWTAuth exposes the underlying verifier for router middleware.
func (t *TokenIssuer) JWTAuth() *jwtauth.JWTAuth {
	return t.auth
}

// GenerateToken signs a session token and returns it with its expiry.
func (t *TokenIssuer) GenerateToken(sessionID, adminID, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"admin_id":   adminID,
		"role":       role,
		"exp":        expiresAt.Unix(),
		"iat":        now.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, expiresAt, err
}

func GetSessionIDFromClaims(claims map[string]interface{}) (string, error) {
	return stringClaim(claims, "session_id")
}

func GetAdminIDFromClaims(claims map[string]interface{}) (string, error) {
	return stringClaim(claims, "admin_id")
}

func GetRoleFromClaims(claims map[string]interface{}) (string, error) {
	return stringClaim(claims, "role")
}

func stringClaim(claims map[string]interface{}, key string) (string, error) {
	v, ok := claims[key].(string)
	if !ok || v == "" {
		return "", errors.New(key + " claim is missing or not a string")
	}
	return v, nil
}
