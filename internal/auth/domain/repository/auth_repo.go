package repository

import (
	"context"
	"time"

	"buildmarket/internal/auth/domain/model"
)

// IdentityRepository persists provider identities.
type IdentityRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByUID(ctx context.Context, uid string) (*model.Account, error)
	UpdatePasswordHash(ctx context.Context, uid, passwordHash string) error
}

// ProfileStore creates the uid-keyed profile document that mirrors a new
// identity. It is a narrow view of the entity store so the auth module does
// not depend on the gateway.
type ProfileStore interface {
	CreateProfile(ctx context.Context, uid string, fields map[string]interface{}) error
}

// TokenDenylist records revoked token ids until their natural expiry.
// Logout writes here; token validation consults it.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
