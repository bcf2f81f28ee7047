package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"buildmarket/internal/shared/logger"
)

// Change-event types published by the entity gateway.
const (
	EventTypeEntityCreated = "entity.created"
	EventTypeEntityUpdated = "entity.updated"
	EventTypeEntityDeleted = "entity.deleted"
	EventTypeUserLoggedIn  = "user.logged_in"
	EventTypeUserLoggedOut = "user.logged_out"
)

// ChangeEvent describes a single mutation of an entity record.
type ChangeEvent struct {
	Action     string                 `json:"action"`
	Kind       string                 `json:"kind"`
	Collection string                 `json:"collection"`
	EntityID   string                 `json:"entity_id"`
	Actor      string                 `json:"actor,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Type returns the event type for subscription dispatch.
func (e ChangeEvent) Type() string { return e.Action }

// Handler is invoked for every published event of a subscribed type.
type Handler func(ctx context.Context, event ChangeEvent) error

// Bus is the contract between publishers (the gateway) and subscribers
// (the realtime socket hub).
type Bus interface {
	Subscribe(eventType string, handler Handler)
	Publish(ctx context.Context, event ChangeEvent) error
	PublishAndForget(ctx context.Context, event ChangeEvent)
	SubscriberCount(eventType string) int
}

// EventBus is an in-memory implementation of Bus.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      logger.Logger
}

// NewEventBus creates a new event bus instance.
func NewEventBus(log logger.Logger) *EventBus {
	if log == nil {
		log = noopLogger{}
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe adds a handler for a specific event type.
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.log.Debugf("Subscribed handler for event type: %s", eventType)
}

// Publish sends an event to all registered handlers synchronously.
// The first handler error aborts delivery and is returned to the caller.
func (eb *EventBus) Publish(ctx context.Context, event ChangeEvent) error {
	eb.mu.RLock()
	handlers := append([]Handler(nil), eb.handlers[event.Type()]...)
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	for i, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			eb.log.Errorf("Handler %d failed for event %s: %v", i, event.Type(), err)
			return fmt.Errorf("event handler failed: %w", err)
		}
	}
	return nil
}

// PublishAndForget publishes an event asynchronously without waiting.
// Used on the gateway's write path so a slow subscriber never blocks a mutation.
func (eb *EventBus) PublishAndForget(ctx context.Context, event ChangeEvent) {
	go func() {
		if err := eb.Publish(context.WithoutCancel(ctx), event); err != nil {
			eb.log.Errorf("Failed to publish event %s: %v", event.Type(), err)
		}
	}()
}

// SubscriberCount returns the number of handlers for an event type.
func (eb *EventBus) SubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// noopLogger implements logger.Logger but does nothing (for nil logger).
type noopLogger struct{}

func (noopLogger) Debug(args ...interface{})                       {}
func (noopLogger) Info(args ...interface{})                        {}
func (noopLogger) Warn(args ...interface{})                        {}
func (noopLogger) Error(args ...interface{})                       {}
func (noopLogger) Fatal(args ...interface{})                       {}
func (noopLogger) Debugf(format string, args ...interface{})       {}
func (noopLogger) Infof(format string, args ...interface{})        {}
func (noopLogger) Warnf(format string, args ...interface{})        {}
func (noopLogger) Errorf(format string, args ...interface{})       {}
func (noopLogger) Fatalf(format string, args ...interface{})       {}
func (n noopLogger) WithFields(map[string]interface{}) logger.Logger { return n }
func (n noopLogger) WithContext(context.Context) logger.Logger       { return n }
func (n noopLogger) WithComponent(string) logger.Logger              { return n }
