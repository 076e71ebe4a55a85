package app

import (
	"time"

	"tab_chat_sync/internal/chat/domain"
)

// DemoSeed sample users and general-room messages, timestamps relative to now (epoch millis)
func DemoSeed(now int64) ([]domain.User, []domain.Message) {
	hour := time.Hour.Milliseconds()
	minute := time.Minute.Milliseconds()

	users := []domain.User{
		{ID: "user1", DisplayName: "TechGuru", IsOnline: true, LastActiveAt: now},
		{ID: "user2", DisplayName: "CodingWizard", IsOnline: true, LastActiveAt: now},
		{ID: "user3", DisplayName: "WebDeveloper", IsOnline: false, LastActiveAt: now - hour},
		{ID: "user4", DisplayName: "DesignMaster", IsOnline: true, LastActiveAt: now},
		{ID: "user5", DisplayName: "DataScientist", IsOnline: false, LastActiveAt: now - 2*hour},
	}

	msgs := []domain.Message{
		{ID: "msg1", Text: "Hello everyone! Welcome to the chat app.", AuthorID: "user1", AuthorName: "TechGuru", RoomID: "general", Timestamp: now - 24*hour},
		{ID: "msg2", Text: "Thanks for creating this! It looks great.", AuthorID: "user2", AuthorName: "CodingWizard", RoomID: "general", Timestamp: now - 12*hour},
		{ID: "msg3", Text: "I'm loving the real-time features and the design is sleek!", AuthorID: "user4", AuthorName: "DesignMaster", RoomID: "general", Timestamp: now - hour},
		{ID: "msg4", Text: "The automatic IDs and usernames are a nice touch.", AuthorID: "user1", AuthorName: "TechGuru", RoomID: "general", Timestamp: now - 30*minute},
		{ID: "msg5", Text: "Let me know if anyone needs help with the chat features.", AuthorID: "user2", AuthorName: "CodingWizard", RoomID: "general", Timestamp: now - 15*minute},
	}
	return users, msgs
}
