package app

import (
	"context"
	"testing"

	"tab_chat_sync/internal/chat/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatFacade(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, repository.NewMemoryKV(), "p1", fixedIdentity("u1", "HappyTiger7"))
	f := NewChatFacade(e)

	require.NotNil(t, f.CurrentUser())
	assert.Equal(t, "u1", f.CurrentUser().ID)
	assert.Equal(t, "general", f.CurrentRoomID())
	assert.Len(t, f.Rooms(), 3)
	assert.Empty(t, f.Messages())

	f.SendMessage(ctx, "hello")
	f.SendMessage(ctx, "   ")
	require.Len(t, f.Messages(), 1)
	assert.Equal(t, "hello", f.Messages()[0].Text)

	f.SetUsername(ctx, "Ada")
	f.SetUsername(ctx, "")
	assert.Equal(t, "Ada", f.CurrentUser().DisplayName)
	require.Len(t, f.Users(), 1)
	assert.Equal(t, "Ada", f.Users()[0].DisplayName)

	f.JoinRoom("support")
	f.JoinRoom("missing")
	assert.Equal(t, "support", f.CurrentRoomID())

	v := f.View()
	assert.Equal(t, f.Messages(), v.Messages)
	assert.Equal(t, "support", v.CurrentRoomID)
}

func TestChatFacade_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, repository.NewMemoryKV(), "p1")
	f := NewChatFacade(e)
	f.SendMessage(ctx, "first draft")

	msgs := f.Messages()
	msgs[0].Text = "changed"
	f.CurrentUser().DisplayName = "changed"

	assert.Equal(t, "first draft", f.Messages()[0].Text)
	assert.NotEqual(t, "changed", f.CurrentUser().DisplayName)
}
