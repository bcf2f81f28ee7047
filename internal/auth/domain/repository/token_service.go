package repository

import (
	"context"

	"buildmarket/internal/auth/domain/model"
	"buildmarket/internal/shared/contextkeys"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the verified contents of an access token. The embedded
// registered claims carry the token id used by the denylist.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies access tokens.
type TokenService interface {
	GenerateToken(ctx context.Context, account *model.Account) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// WithClaims returns a context carrying the request's verified claims.
// Session state is always threaded explicitly this way, never held as
// process-wide ambient state.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, contextkeys.ClaimsKey, claims)
	return context.WithValue(ctx, contextkeys.UserIDKey, claims.UserID)
}

// ClaimsFromContext returns the request's claims, or nil when the request is
// unauthenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(contextkeys.ClaimsKey).(*Claims)
	return claims
}
