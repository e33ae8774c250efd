package teamflow

import "encoding/json"

// Outbound frame types understood by the server.
const (
	frameJoinRoom    = "join_room"
	frameLeaveRoom   = "leave_room"
	frameSendMessage = "send_message"
	frameTyping      = "typing"
	framePing        = "ping"
)

// Inbound frame types. Lifecycle types are synthesized by the client
// itself (they are not wire frames) and delivered through the same
// dispatcher so listeners observe transport and chat events uniformly.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventReconnecting = "reconnecting"
	EventGiveUp       = "give_up"
	EventError        = "error"

	EventMessage      = "message"
	EventTyping       = "typing"
	EventJoinedRoom   = "joined_room"
	EventLeftRoom     = "left_room"
	EventUserJoined   = "user_joined"
	EventUserLeft     = "user_left"
	EventNotification = "notification"
	EventPong         = "pong"
)

// ClientFrame is the envelope client -> server.
type ClientFrame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
	Room string `json:"room,omitempty"`
}

// ServerFrame is the envelope server -> client.
type ServerFrame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Room      string          `json:"room,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Sender    string          `json:"sender,omitempty"`
}

// SendMessagePayload carries a chat message to a room.
type SendMessagePayload struct {
	Content string `json:"content"`
}

// TypingPayload signals the local user's typing state for a room.
type TypingPayload struct {
	IsTyping bool `json:"is_typing"`
}

// UnmarshalData decodes a frame's raw data into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
