package domain

// Action websocket request action
type Action string

const (
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// SetUsername websocket action set_username
	SetUsername Action = "set_username"
	// JoinRoom websocket action join_room
	JoinRoom Action = "join_room"
	// Focus websocket action focus
	Focus Action = "focus"
	// Blur websocket action blur
	Blur Action = "blur"
	// GetSnapshot websocket action snapshot
	GetSnapshot Action = "snapshot"

	// NotifyState server push of the current view
	NotifyState Action = "state"
)

// WSRequest websocket Request
type WSRequest struct {
	Action   string `json:"action"`
	Content  string `json:"content"`
	Username string `json:"username"`
	RoomID   string `json:"room_id"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
