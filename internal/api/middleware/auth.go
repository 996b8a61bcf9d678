package middleware

import (
	"context"
	"net/http"
	"strings"

	"companion_hub/internal/common"
	"companion_hub/internal/common/security"
	"companion_hub/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const IdentityCtxKey contextKey = "identity"

const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid token"
)

// Verifier parses the credential from the Authorization header into the
// request context. It never rejects; Authenticator does.
func Verifier(tokens *security.TokenManager) func(http.Handler) http.Handler {
	return jwtauth.Verify(tokens.JWTAuth(), security.TokenFromAuthorization)
}

// Authenticator rejects requests without a valid token and injects the
// caller identity for the handlers below it.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
			common.RespondWithError(w, http.StatusUnauthorized, msgNoToken)
			return
		}

		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		identity, err := security.IdentityFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, IdentityCtxKey, identity)
}

// Helper to get the caller identity from context
func GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(IdentityCtxKey).(model.Identity)
	return identity, ok
}
