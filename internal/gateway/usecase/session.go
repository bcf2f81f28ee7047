package usecase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	authrepo "buildmarket/internal/auth/domain/repository"
	"buildmarket/internal/gateway/domain/model"
	"buildmarket/internal/gateway/domain/repository"
	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/logger"
)

// SessionResolver answers "is someone signed in" and "who". It merges the
// provider identity carried in the request context with the user's profile
// document. Nothing is cached: every call re-resolves against the store.
type SessionResolver struct {
	store     repository.EntityStore
	log       logger.Logger
	loginPath string
}

// NewSessionResolver creates a resolver reading profiles from the given store.
func NewSessionResolver(store repository.EntityStore, log logger.Logger, loginPath string) *SessionResolver {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &SessionResolver{
		store:     store,
		log:       log.WithComponent("session"),
		loginPath: loginPath,
	}
}

// IsAuthenticated reports whether the request carries a resolvable session.
// It never fails: any resolution error reads as false.
func (r *SessionResolver) IsAuthenticated(ctx context.Context) bool {
	_, err := r.CurrentSession(ctx)
	return err == nil
}

// CurrentSession resolves the merged identity for the request, or fails with
// not-authenticated when the request carries no provider identity.
//
// Resolution order, each step attempted only if the previous found nothing:
//  1. users document keyed by the provider uid;
//  2. scan for a legacy record whose uid field matches (such records keep
//     their own store-assigned document id, distinct from the uid);
//  3. a synthesized default-role session with no persisted profile. This is
//     a valid session, not an error: registration creates the identity and
//     the profile document non-atomically.
func (r *SessionResolver) CurrentSession(ctx context.Context) (*model.Session, error) {
	claims := authrepo.ClaimsFromContext(ctx)
	if claims == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	fullName := claims.Name
	if fullName == "" {
		fullName = model.DisplayNameFromEmail(claims.Email)
	}
	defaults := model.Entity{
		model.FieldUID: claims.UserID,
		"email":        claims.Email,
		"full_name":    fullName,
		"role":         model.RoleUser,
	}

	record, err := r.store.Get(ctx, model.KindUser, claims.UserID)
	if err == nil {
		return mergeSession(claims.UserID, claims.Email, claims.UserID, defaults, record), nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	legacy, err := r.store.Find(ctx, model.KindUser, model.Query{
		Criteria: map[string]interface{}{model.FieldUID: claims.UserID},
		Limit:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if len(legacy) > 0 {
		return mergeSession(claims.UserID, claims.Email, legacy[0].ID(), defaults, legacy[0]), nil
	}

	return &model.Session{
		UID:      claims.UserID,
		Email:    claims.Email,
		FullName: fullName,
		Role:     model.RoleUser,
		Profile:  defaults,
	}, nil
}

// mergeSession overlays record fields onto the defaults. Record fields win
// on every conflict except uid and email, which always come from the
// provider identity.
func mergeSession(uid, email, documentID string, defaults, record model.Entity) *model.Session {
	profile := defaults.Merge(record)
	profile[model.FieldUID] = uid
	profile["email"] = email
	delete(profile, model.FieldID)

	session := &model.Session{
		UID:        uid,
		DocumentID: documentID,
		Email:      email,
		FullName:   defaults.String("full_name"),
		Role:       model.RoleUser,
		Profile:    profile,
	}
	if name := profile.String("full_name"); name != "" {
		session.FullName = name
	}
	if role := profile.String("role"); role != "" {
		session.Role = role
	}
	return session
}

// UpdateProfile merges fields into the users document keyed by the current
// uid. When that document does not exist the fields are written as a new
// document instead: the repair path that lazily materializes profiles for
// synthesized sessions.
func (r *SessionResolver) UpdateProfile(ctx context.Context, fields model.Entity) (model.Entity, error) {
	claims := authrepo.ClaimsFromContext(ctx)
	if claims == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	update := fields.Clone()
	delete(update, model.FieldID)
	update[model.FieldUpdatedDate] = model.FormatTimestamp(time.Now())

	err := r.store.Update(ctx, model.KindUser, claims.UserID, update)
	if apperrors.IsNotFound(err) {
		now := model.FormatTimestamp(time.Now())
		doc := update.Merge(model.Entity{
			model.FieldUID:         claims.UserID,
			"email":                claims.Email,
			model.FieldCreatedAt:   now,
			model.FieldCreatedDate: now,
		})
		if doc.String("role") == "" {
			doc["role"] = model.RoleUser
		}
		if doc.String("full_name") == "" {
			doc["full_name"] = model.DisplayNameFromEmail(claims.Email)
		}
		r.log.Infof("Materializing profile document for %s", claims.UserID)
		if err := r.store.InsertWithID(ctx, model.KindUser, claims.UserID, doc); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return r.store.Get(ctx, model.KindUser, claims.UserID)
}

// RedirectToLogin emits the navigation hint unauthenticated flows use to
// bounce to the sign-in entry point and back. Pure string construction.
func (r *SessionResolver) RedirectToLogin(returnPath string) string {
	if returnPath == "" {
		return r.loginPath
	}
	return r.loginPath + "?from=" + url.QueryEscape(returnPath)
}
