// Package view holds pure presentation helpers over the synchronized state.
package view

import (
	"fmt"
	"strings"
	"time"

	"tab_chat_sync/internal/chat/domain"
)

// MessagesInRoom messages of one room, keeping the input order
func MessagesInRoom(msgs []domain.Message, roomID string) []domain.Message {
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out
}

// SplitOnline partition users by online flag, keeping the input order
func SplitOnline(users []domain.User) (online, offline []domain.User) {
	for _, u := range users {
		if u.IsOnline {
			online = append(online, u)
		} else {
			offline = append(offline, u)
		}
	}
	return online, offline
}

// RoomName display name of roomID, or the id itself when unknown
func RoomName(rooms []domain.Room, roomID string) string {
	for _, r := range rooms {
		if r.ID == roomID {
			return r.Name
		}
	}
	return roomID
}

// FormatTimestamp clock time for today, "Yesterday at" for yesterday, full date otherwise
func FormatTimestamp(ts int64, now time.Time) string {
	t := time.UnixMilli(ts).In(now.Location())
	if sameDay(t, now) {
		return t.Format("15:04")
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday at " + t.Format("15:04")
	}
	return t.Format("Jan 2, 2006 15:04")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// TimeSince coarse relative age such as "5 minutes ago"
func TimeSince(ts int64, now time.Time) string {
	seconds := int64(now.Sub(time.UnixMilli(ts)).Seconds())

	units := []struct {
		size int64
		name string
	}{
		{31536000, "years"},
		{2592000, "months"},
		{86400, "days"},
		{3600, "hours"},
		{60, "minutes"},
	}
	for _, u := range units {
		if seconds > u.size {
			return fmt.Sprintf("%d %s ago", seconds/u.size, u.name)
		}
	}
	if seconds < 10 {
		return "just now"
	}
	return fmt.Sprintf("%d seconds ago", seconds)
}

// Line one message rendered for a terminal
func Line(m domain.Message, now time.Time) string {
	return fmt.Sprintf("[%s] %s: %s", FormatTimestamp(m.Timestamp, now), m.AuthorName, strings.TrimSpace(m.Text))
}
