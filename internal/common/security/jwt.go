package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"companion_hub/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the single outcome for every verification failure.
var ErrInvalidToken = errors.New("invalid token")

const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

// WithClock replaces the issuing clock. Verification always uses wall time.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// JWTAuth exposes the underlying verifier for jwtauth.Verify.
func (m *TokenManager) JWTAuth() *jwtauth.JWTAuth {
	return m.auth
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Issue(identity model.Identity) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"user_id":  identity.UserID,
		"username": identity.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(m.ttl).Unix(),
		"jti":      uuid.NewString(),
	}
	_, tokenString, err := m.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encoding token: %w", err)
	}
	return tokenString, nil
}

func (m *TokenManager) Verify(tokenString string) (model.Identity, error) {
	token, err := jwtauth.VerifyToken(m.auth, tokenString)
	if err != nil || token == nil {
		return model.Identity{}, ErrInvalidToken
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return model.Identity{}, ErrInvalidToken
	}
	identity, err := IdentityFromClaims(claims)
	if err != nil {
		return model.Identity{}, ErrInvalidToken
	}
	return identity, nil
}

// TokenFromAuthorization returns the second whitespace-delimited field of the
// Authorization header. The scheme is not checked.
func TokenFromAuthorization(r *http.Request) string {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func IdentityFromClaims(claims jwt.MapClaims) (model.Identity, error) {
	id, err := GetUserIDFromClaims(claims)
	if err != nil {
		return model.Identity{}, err
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return model.Identity{}, errors.New("username claim is missing or not a string")
	}
	return model.Identity{UserID: id, Username: username}, nil
}

func GetUserIDFromClaims(claims jwt.MapClaims) (int64, error) {
	switch v := claims["user_id"].(type) {
	case float64:
		if v > 0 && v == float64(int64(v)) {
			return int64(v), nil
		}
	case int64:
		if v > 0 {
			return v, nil
		}
	case int:
		if v > 0 {
			return int64(v), nil
		}
	case json.Number:
		if n, err := v.Int64(); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errors.New("user_id claim is missing or not a positive integer")
}
