package logger

import (
	"context"
	"testing"

	"buildmarket/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithConfig(t *testing.T) {
	log := NewLoggerWithConfig("debug", "json")
	require.NotNil(t, log)

	// Invalid level falls back to info instead of failing.
	log = NewLoggerWithConfig("not-a-level", "text")
	require.NotNil(t, log)
}

func TestWithFieldsReturnsNewLogger(t *testing.T) {
	base := NewLoggerWithConfig("info", "text")
	scoped := base.WithFields(map[string]interface{}{"kind": "Listing"})

	assert.NotNil(t, scoped)
	assert.NotSame(t, base, scoped)
}

func TestWithComponent(t *testing.T) {
	log := NewLoggerWithConfig("info", "text").WithComponent("entity_gateway")
	require.NotNil(t, log)

	entry, ok := log.(*LogrusLogger)
	require.True(t, ok)
	assert.Equal(t, "entity_gateway", entry.entry.Data["component"])
}

func TestWithContextExtractsKnownKeys(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextkeys.UserIDKey, "uid-1")
	ctx = context.WithValue(ctx, contextkeys.RequestIDKey, "req-9")
	ctx = context.WithValue(ctx, contextkeys.OperationKey, "entity.create")

	log := NewLoggerWithConfig("info", "text").WithContext(ctx)
	entry, ok := log.(*LogrusLogger)
	require.True(t, ok)

	assert.Equal(t, "uid-1", entry.entry.Data["user_id"])
	assert.Equal(t, "req-9", entry.entry.Data["request_id"])
	assert.Equal(t, "entity.create", entry.entry.Data["operation"])
}

func TestWithContextIgnoresMissingValues(t *testing.T) {
	log := NewLoggerWithConfig("info", "text").WithContext(context.Background())
	entry, ok := log.(*LogrusLogger)
	require.True(t, ok)
	assert.Empty(t, entry.entry.Data)
}
