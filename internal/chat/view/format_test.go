package view

import (
	"testing"
	"time"

	"tab_chat_sync/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, "09:05", FormatTimestamp(time.Date(2024, 3, 10, 9, 5, 0, 0, time.UTC).UnixMilli(), now))
	assert.Equal(t, "Yesterday at 23:59", FormatTimestamp(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC).UnixMilli(), now))
	assert.Equal(t, "Mar 1, 2024 08:00", FormatTimestamp(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).UnixMilli(), now))
}

func TestTimeSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	ago := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }

	assert.Equal(t, "just now", TimeSince(ago(3*time.Second), now))
	assert.Equal(t, "42 seconds ago", TimeSince(ago(42*time.Second), now))
	assert.Equal(t, "5 minutes ago", TimeSince(ago(5*time.Minute+10*time.Second), now))
	assert.Equal(t, "2 hours ago", TimeSince(ago(2*time.Hour+time.Minute), now))
	assert.Equal(t, "3 days ago", TimeSince(ago(73*time.Hour), now))
}

func TestFilters(t *testing.T) {
	msgs := []domain.Message{
		{ID: "1", RoomID: "general"},
		{ID: "2", RoomID: "random"},
		{ID: "3", RoomID: "general"},
	}
	got := MessagesInRoom(msgs, "general")
	assert.Equal(t, []domain.Message{msgs[0], msgs[2]}, got)
	assert.Empty(t, MessagesInRoom(msgs, "support"))

	online, offline := SplitOnline([]domain.User{
		{ID: "a", IsOnline: true},
		{ID: "b"},
		{ID: "c", IsOnline: true},
	})
	assert.Len(t, online, 2)
	assert.Len(t, offline, 1)
	assert.Equal(t, "b", offline[0].ID)

	rooms := domain.DefaultRooms()
	assert.Equal(t, "Random", RoomName(rooms, "random"))
	assert.Equal(t, "gone", RoomName(rooms, "gone"))
}

func TestLine(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	m := domain.Message{AuthorName: "Ada", Text: " hi ", Timestamp: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC).UnixMilli()}
	assert.Equal(t, "[15:00] Ada: hi", Line(m, now))
}
