package rest

import "time"

// Authentication types

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse contains the JWT token returned after authentication.
// The sync layer treats the token as opaque.
type TokenResponse struct {
	Token string `json:"access_token"`
	Type  string `json:"token_type,omitempty"`
}

// Channel types

// Channel is a channel summary as the server reports it.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsPrivate   bool      `json:"is_private,omitempty"`
	UnreadCount int       `json:"unread_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateChannelRequest is the request body for creating a channel.
type CreateChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"is_private,omitempty"`
}

// Message types

// Attachment is a file descriptor carried by a message.
type Attachment struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Message is one message as the server reports it.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	Author      string       `json:"author"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsEdited    bool         `json:"is_edited,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// MessagesPage is one page of channel history, oldest first.
type MessagesPage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// SendMessageRequest is the request body for posting a message.
type SendMessageRequest struct {
	ChannelID   string       `json:"channel_id"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// UpdateMessageRequest is the request body for editing a message.
type UpdateMessageRequest struct {
	Content string `json:"content"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
