package domain

// Snapshot everything a context reads back from the store
type Snapshot struct {
	Messages    []Message
	Users       []User
	CurrentUser *User
	Clock       int64
}

// PartialSnapshot the keys a write touches; nil fields are left alone
type PartialSnapshot struct {
	Messages    []Message
	Users       []User
	CurrentUser *User
	Clock       *int64
}

// IsEmpty report whether nothing would be written
func (p PartialSnapshot) IsEmpty() bool {
	return p.Messages == nil && p.Users == nil && p.CurrentUser == nil && p.Clock == nil
}

// ChangeEvent a key change as seen by other contexts
type ChangeEvent struct {
	Key      string `json:"key"`
	NewValue string `json:"newValue"`
	OldValue string `json:"oldValue"`
	Origin   string `json:"origin"`
}

// Keys store key names for one namespace and identity profile
type Keys struct {
	Messages    string
	Users       string
	CurrentUser string
	Clock       string
}

// NewKeys build the key set; profile scopes the current-user record
func NewKeys(namespace, profile string) Keys {
	if profile == "" {
		profile = "default"
	}
	return Keys{
		Messages:    namespace + ":messages",
		Users:       namespace + ":users",
		CurrentUser: namespace + ":current_user:" + profile,
		Clock:       namespace + ":clock",
	}
}

// View read-only copy of a context's state handed to presentation
type View struct {
	Messages      []Message `json:"messages"`
	Users         []User    `json:"users"`
	Rooms         []Room    `json:"rooms"`
	CurrentUser   *User     `json:"currentUser,omitempty"`
	CurrentRoomID string    `json:"currentRoomId"`
	Clock         int64     `json:"clock"`
	Degraded      bool      `json:"degraded"`
}
