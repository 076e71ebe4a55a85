package repository

import (
	"context"
	"testing"

	"tab_chat_sync/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_SkipsOwnEvents(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	var gotA, gotB []domain.ChangeEvent
	unsubA, err := bus.Subscribe(ctx, "a", func(ev domain.ChangeEvent) { gotA = append(gotA, ev) })
	require.NoError(t, err)
	unsubB, err := bus.Subscribe(ctx, "b", func(ev domain.ChangeEvent) { gotB = append(gotB, ev) })
	require.NoError(t, err)
	assert.Equal(t, 2, bus.Subscribers())

	require.NoError(t, bus.Publish(ctx, domain.ChangeEvent{Key: "k", NewValue: "1", Origin: "a"}))
	assert.Empty(t, gotA)
	require.Len(t, gotB, 1)
	assert.Equal(t, "1", gotB[0].NewValue)

	unsubB()
	unsubB()
	assert.Equal(t, 1, bus.Subscribers())

	require.NoError(t, bus.Publish(ctx, domain.ChangeEvent{Key: "k", NewValue: "2", Origin: "c"}))
	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 1)

	unsubA()
	assert.Equal(t, 0, bus.Subscribers())
}
