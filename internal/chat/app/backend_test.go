package app

import (
	"context"
	"testing"
	"time"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomsFromConfig(t *testing.T) {
	assert.Equal(t, domain.DefaultRooms(), RoomsFromConfig(nil))
	assert.Equal(t, domain.DefaultRooms(), RoomsFromConfig([]config.RoomConfig{{Name: "no id"}}))

	rooms := RoomsFromConfig([]config.RoomConfig{
		{ID: "ops", Description: "on call"},
		{ID: "dev", Name: "Dev"},
		{ID: "ops", Name: "Again"},
	})
	assert.Equal(t, []domain.Room{
		{ID: "ops", Name: "ops", Description: "on call"},
		{ID: "dev", Name: "Dev"},
	}, rooms)
}

func TestNewBackend_NoRedisAddress(t *testing.T) {
	_, err := NewBackend(context.Background(), config.RedisConfig{}, "chat")
	assert.EqualError(t, err, "redis.addr is empty and no sentinel is configured; set redis.memory for an in-process store")
}

func TestNewBackend_Memory(t *testing.T) {
	b, err := NewBackend(context.Background(), config.RedisConfig{Memory: true}, "chat")
	require.NoError(t, err)
	defer b.Close()

	store := b.Store("chat", "p1")
	assert.Equal(t, "chat:current_user:p1", store.Keys().CurrentUser)

	// two profiles share messages but not identity
	a := NewSession(SessionConfig{Store: b.Store("chat", "a"), Feed: b.Feed})
	c := NewSession(SessionConfig{Store: b.Store("chat", "c"), Feed: b.Feed})
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	defer a.Close(context.Background())
	defer c.Close(context.Background())

	assert.NotEqual(t, a.Facade().CurrentUser().ID, c.Facade().CurrentUser().ID)
	a.Facade().SendMessage(context.Background(), "shared")
	assert.Eventually(t, func() bool {
		c.Sync(context.Background())
		return len(c.Facade().Messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
