package usecase

import (
	"context"

	"buildmarket/internal/auth/domain/repository"
	"buildmarket/internal/gateway/domain/model"
	gatewayrepo "buildmarket/internal/gateway/domain/repository"
)

// ProfileWriter creates uid-keyed users documents on behalf of the auth
// module, which must not depend on the entity store directly.
type ProfileWriter struct {
	store gatewayrepo.EntityStore
}

// NewProfileWriter adapts the entity store to the auth module's profile
// contract.
func NewProfileWriter(store gatewayrepo.EntityStore) *ProfileWriter {
	return &ProfileWriter{store: store}
}

// CreateProfile writes the profile document keyed by uid.
func (w *ProfileWriter) CreateProfile(ctx context.Context, uid string, fields map[string]interface{}) error {
	return w.store.InsertWithID(ctx, model.KindUser, uid, model.Entity(fields))
}

var _ repository.ProfileStore = (*ProfileWriter)(nil)
