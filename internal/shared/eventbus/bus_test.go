package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingCreated(id string) ChangeEvent {
	return ChangeEvent{
		Action:     EventTypeEntityCreated,
		Kind:       "Listing",
		Collection: "listings",
		EntityID:   id,
		OccurredAt: time.Now().UTC(),
	}
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus(nil)

	var got []ChangeEvent
	bus.Subscribe(EventTypeEntityCreated, func(ctx context.Context, e ChangeEvent) error {
		got = append(got, e)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), listingCreated("l1")))
	require.Len(t, got, 1)
	assert.Equal(t, "listings", got[0].Collection)
	assert.Equal(t, "l1", got[0].EntityID)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), listingCreated("l1")))
}

func TestPublishStopsOnHandlerError(t *testing.T) {
	bus := NewEventBus(nil)
	boom := errors.New("boom")

	calls := 0
	bus.Subscribe(EventTypeEntityUpdated, func(ctx context.Context, e ChangeEvent) error {
		calls++
		return boom
	})
	bus.Subscribe(EventTypeEntityUpdated, func(ctx context.Context, e ChangeEvent) error {
		calls++
		return nil
	})

	err := bus.Publish(context.Background(), ChangeEvent{Action: EventTypeEntityUpdated})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPublishAndForget(t *testing.T) {
	bus := NewEventBus(nil)

	var mu sync.Mutex
	delivered := make(chan struct{})
	bus.Subscribe(EventTypeEntityDeleted, func(ctx context.Context, e ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		close(delivered)
		return nil
	})

	bus.PublishAndForget(context.Background(), ChangeEvent{Action: EventTypeEntityDeleted})

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered asynchronously")
	}
}

func TestSubscriberCount(t *testing.T) {
	bus := NewEventBus(nil)
	assert.Equal(t, 0, bus.SubscriberCount(EventTypeEntityCreated))

	bus.Subscribe(EventTypeEntityCreated, func(ctx context.Context, e ChangeEvent) error { return nil })
	bus.Subscribe(EventTypeEntityCreated, func(ctx context.Context, e ChangeEvent) error { return nil })
	assert.Equal(t, 2, bus.SubscriberCount(EventTypeEntityCreated))
}
