package app

import (
	"context"

	"tab_chat_sync/internal/chat/domain"
)

// ChatFacade the only surface presentation code reads from and writes through
type ChatFacade struct {
	engine *SyncEngine
}

// NewChatFacade create ChatFacade
func NewChatFacade(engine *SyncEngine) *ChatFacade {
	return &ChatFacade{engine: engine}
}

// SendMessage post text to the current room; blank text is ignored
func (f *ChatFacade) SendMessage(ctx context.Context, text string) {
	f.engine.SendMessage(ctx, text)
}

// SetUsername rename the current user; blank names are ignored
func (f *ChatFacade) SetUsername(ctx context.Context, name string) {
	f.engine.SetDisplayName(ctx, name)
}

// JoinRoom switch the room this context shows
func (f *ChatFacade) JoinRoom(roomID string) {
	f.engine.JoinRoom(roomID)
}

// Messages every message of every room, ordered by (timestamp, id)
func (f *ChatFacade) Messages() []domain.Message {
	return f.engine.View().Messages
}

// Users all known users
func (f *ChatFacade) Users() []domain.User {
	return f.engine.View().Users
}

// Rooms static room list
func (f *ChatFacade) Rooms() []domain.Room {
	return f.engine.View().Rooms
}

// CurrentUser the user owned by this context, nil before Init
func (f *ChatFacade) CurrentUser() *domain.User {
	return f.engine.View().CurrentUser
}

// CurrentRoomID room this context shows
func (f *ChatFacade) CurrentRoomID() string {
	return f.engine.View().CurrentRoomID
}

// View everything above in one consistent copy
func (f *ChatFacade) View() domain.View {
	return f.engine.View()
}
