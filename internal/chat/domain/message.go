package domain

import (
	"sort"
)

// Message a chat message, immutable once created
type Message struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	AuthorID   string `json:"userId"`
	AuthorName string `json:"username"`
	RoomID     string `json:"roomId"`
	Timestamp  int64  `json:"timestamp"` // epoch millis
}

// Before report whether m sorts before other: timestamp first, id breaks ties
func (m Message) Before(other Message) bool {
	if m.Timestamp != other.Timestamp {
		return m.Timestamp < other.Timestamp
	}
	return m.ID < other.ID
}

// SortMessages order msgs in place by (Timestamp, ID)
func SortMessages(msgs []Message) {
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].Before(msgs[j])
	})
}

// User one record per identity, never deleted
type User struct {
	ID           string `json:"id"`
	DisplayName  string `json:"username"`
	IsOnline     bool   `json:"isOnline"`
	LastActiveAt int64  `json:"lastActive"`
}

// Identity id and display name of a freshly generated user
type Identity struct {
	ID          string
	DisplayName string
}

// Room static chat room
type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DefaultRooms rooms used when none are configured
func DefaultRooms() []Room {
	return []Room{
		{ID: "general", Name: "General", Description: "General chat for everyone"},
		{ID: "random", Name: "Random", Description: "Random discussions"},
		{ID: "support", Name: "Support", Description: "Get help here"},
	}
}
