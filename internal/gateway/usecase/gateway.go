package usecase

import (
	"context"
	"fmt"
	"time"

	"buildmarket/internal/gateway/domain/model"
	"buildmarket/internal/gateway/domain/repository"
	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/eventbus"
	"buildmarket/internal/shared/logger"
)

// EntityGatewayInterface is the uniform operation set, identical across all
// entity kinds.
type EntityGatewayInterface interface {
	Filter(ctx context.Context, kind model.Kind, criteria map[string]interface{}, sort string, limit int) ([]model.Entity, error)
	List(ctx context.Context, kind model.Kind, sort string, limit int) ([]model.Entity, error)
	Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error)
	Create(ctx context.Context, kind model.Kind, fields model.Entity) (model.Entity, error)
	Update(ctx context.Context, kind model.Kind, id string, fields model.Entity) (model.Entity, error)
	Delete(ctx context.Context, kind model.Kind, id string) error
}

// Authorizer decides whether a session may mutate a resource.
type Authorizer interface {
	Authorize(kind model.Kind, session *model.Session, resource model.Entity) error
}

// Gateway implements the entity CRUD contract: one implementation, many
// kinds. It stamps timestamps, attributes ownership, enforces access rules
// centrally, and publishes change events. It adds no retries, caching, or
// batching; concurrent mutations race at the store, last write wins.
type Gateway struct {
	store    repository.EntityStore
	policy   Authorizer
	sessions *SessionResolver
	bus      eventbus.Bus
	log      logger.Logger
}

// NewGateway creates the entity gateway.
func NewGateway(store repository.EntityStore, policy Authorizer, sessions *SessionResolver, bus eventbus.Bus, log logger.Logger) *Gateway {
	return &Gateway{
		store:    store,
		policy:   policy,
		sessions: sessions,
		bus:      bus,
		log:      log.WithComponent("entity_gateway"),
	}
}

// Sessions exposes the session sub-module.
func (g *Gateway) Sessions() *SessionResolver {
	return g.sessions
}

// Filter returns records matching every criteria key by equality, sorted by
// one optional field, bounded by limit (default 50, never unbounded).
func (g *Gateway) Filter(ctx context.Context, kind model.Kind, criteria map[string]interface{}, sort string, limit int) ([]model.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("kind %q: %w", kind, apperrors.ErrUnknownKind)
	}

	entities, err := g.store.Find(ctx, kind, model.Query{Criteria: criteria, Sort: sort, Limit: limit})
	if err != nil {
		g.log.WithContext(ctx).Errorf("Filter %s failed: %v", kind, err)
		return nil, err
	}
	return entities, nil
}

// List is Filter without criteria.
func (g *Gateway) List(ctx context.Context, kind model.Kind, sort string, limit int) ([]model.Entity, error) {
	return g.Filter(ctx, kind, nil, sort, limit)
}

// Get returns one record by id.
func (g *Gateway) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("kind %q: %w", kind, apperrors.ErrUnknownKind)
	}
	return g.store.Get(ctx, kind, id)
}

// Create inserts a new record. The gateway stamps the creation timestamps
// and ownership; its values are authoritative even when the caller supplies
// their own. The returned record is read back from storage rather than
// echoed from the input, so callers always see what was actually written.
func (g *Gateway) Create(ctx context.Context, kind model.Kind, fields model.Entity) (model.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("kind %q: %w", kind, apperrors.ErrUnknownKind)
	}

	record := fields.Clone()
	delete(record, model.FieldID)

	now := model.FormatTimestamp(time.Now())
	record[model.FieldCreatedDate] = now
	record[model.FieldCreatedAt] = now

	session, _ := g.sessions.CurrentSession(ctx)
	if session != nil {
		record[model.FieldCreatedBy] = session.Email
	}

	id, err := g.store.Insert(ctx, kind, record)
	if err != nil {
		g.log.WithContext(ctx).Errorf("Create %s failed: %v", kind, err)
		return nil, err
	}

	stored, err := g.store.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read back created %s: %w", kind, err)
	}

	g.publish(ctx, eventbus.EventTypeEntityCreated, kind, id, session, stored)
	return stored, nil
}

// Update merges fields into an existing record and stamps updated_date. The
// creation fields are set exactly once, so caller attempts to rewrite them
// are dropped. Ownership is enforced here, not by callers.
func (g *Gateway) Update(ctx context.Context, kind model.Kind, id string, fields model.Entity) (model.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("kind %q: %w", kind, apperrors.ErrUnknownKind)
	}

	existing, err := g.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	session, sessionErr := g.sessions.CurrentSession(ctx)
	if sessionErr != nil {
		return nil, sessionErr
	}
	if err := g.policy.Authorize(kind, session, existing); err != nil {
		return nil, err
	}

	update := fields.Clone()
	delete(update, model.FieldID)
	delete(update, model.FieldCreatedDate)
	delete(update, model.FieldCreatedAt)
	delete(update, model.FieldCreatedBy)
	update[model.FieldUpdatedDate] = model.FormatTimestamp(time.Now())

	if err := g.store.Update(ctx, kind, id, update); err != nil {
		g.log.WithContext(ctx).Errorf("Update %s %s failed: %v", kind, id, err)
		return nil, err
	}

	merged, err := g.store.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read back updated %s: %w", kind, err)
	}

	g.publish(ctx, eventbus.EventTypeEntityUpdated, kind, id, session, merged)
	return merged, nil
}

// Delete removes a record after the ownership check. The store reports
// repeated deletes of the same id as not-found; callers must tolerate
// either outcome.
func (g *Gateway) Delete(ctx context.Context, kind model.Kind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("kind %q: %w", kind, apperrors.ErrUnknownKind)
	}

	existing, err := g.store.Get(ctx, kind, id)
	if err != nil {
		return err
	}

	session, sessionErr := g.sessions.CurrentSession(ctx)
	if sessionErr != nil {
		return sessionErr
	}
	if err := g.policy.Authorize(kind, session, existing); err != nil {
		return err
	}

	if err := g.store.Delete(ctx, kind, id); err != nil {
		g.log.WithContext(ctx).Errorf("Delete %s %s failed: %v", kind, id, err)
		return err
	}

	g.publish(ctx, eventbus.EventTypeEntityDeleted, kind, id, session, nil)
	return nil
}

func (g *Gateway) publish(ctx context.Context, action string, kind model.Kind, id string, session *model.Session, data model.Entity) {
	event := eventbus.ChangeEvent{
		Action:     action,
		Kind:       kind.String(),
		Collection: kind.Collection(),
		EntityID:   id,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if session != nil {
		event.Actor = session.Email
	}
	g.bus.PublishAndForget(ctx, event)
}

var _ EntityGatewayInterface = (*Gateway)(nil)
