package app

import (
	"context"
	"testing"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/internal/chat/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPresenceTracker_SignalsMapToPresence(t *testing.T) {
	ctx := context.Background()
	sink := &MockPresenceSink{}
	sink.On("SetPresence", ctx, true).Return(true)
	sink.On("SetPresence", ctx, false).Return(true)

	p := NewPresenceTracker(sink)

	assert.True(t, p.Mount(ctx))
	assert.True(t, p.Blur(ctx))
	assert.True(t, p.Focus(ctx))
	assert.True(t, p.Unmount(ctx))

	sink.AssertNumberOfCalls(t, "SetPresence", 4)
	assert.Equal(t, true, sink.Calls[0].Arguments.Bool(1))
	assert.Equal(t, false, sink.Calls[1].Arguments.Bool(1))
	assert.Equal(t, true, sink.Calls[2].Arguments.Bool(1))
	assert.Equal(t, false, sink.Calls[3].Arguments.Bool(1))
}

func TestPresenceTracker_IgnoresSignalsOutsideLifetime(t *testing.T) {
	ctx := context.Background()
	sink := &MockPresenceSink{}
	sink.On("SetPresence", mock.Anything, mock.Anything).Return(true)

	p := NewPresenceTracker(sink)

	assert.False(t, p.Focus(ctx), "focus before mount")
	assert.False(t, p.Unmount(ctx), "unmount before mount")
	sink.AssertNotCalled(t, "SetPresence", mock.Anything, mock.Anything)

	p.Mount(ctx)
	p.Unmount(ctx)
	assert.False(t, p.Focus(ctx), "focus after unmount")
	assert.False(t, p.Handle(ctx, domain.SignalMount), "no remount after unmount")
	sink.AssertNumberOfCalls(t, "SetPresence", 2)
}

func TestPresenceTracker_UpdatesStoredUser(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	now := int64(1000)
	e := newTestEngine(t, kv, "p1", fixedIdentity("u1", "HappyTiger7"), WithClock(func() int64 { return now }))
	p := NewPresenceTracker(e)

	p.Mount(ctx)
	assert.True(t, e.View().CurrentUser.IsOnline)

	now = 2000
	p.Blur(ctx)
	cu := e.View().CurrentUser
	assert.False(t, cu.IsOnline)
	assert.Equal(t, int64(2000), cu.LastActiveAt)

	// a fresh reader sees the stored presence
	reader := newTestEngine(t, kv, "p2")
	for _, u := range reader.View().Users {
		if u.ID == "u1" {
			assert.False(t, u.IsOnline)
			assert.Equal(t, int64(2000), u.LastActiveAt)
		}
	}
}
