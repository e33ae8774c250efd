package teamflow

import "time"

// Attachment describes a file attached to a message.
type Attachment struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MessageEvent is a chat message pushed by the server.
type MessageEvent struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	Username    string       `json:"username"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TypingEvent is a presence change for one user in one channel.
type TypingEvent struct {
	ChannelID string `json:"channel_id"`
	Username  string `json:"username"`
	IsTyping  bool   `json:"is_typing"`
}

// ReconnectEvent is the payload of the locally synthesized
// "reconnecting" lifecycle frame.
type ReconnectEvent struct {
	Attempt int   `json:"attempt"`
	DelayMS int64 `json:"delay_ms"`
}

// ErrorEvent is the payload of server "error" frames and locally
// synthesized transport error frames.
type ErrorEvent struct {
	Error string `json:"error"`
}
