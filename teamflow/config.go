package teamflow

import "time"

// Config controls how the SDK connects and recovers.
type Config struct {
	// URL is the WebSocket endpoint, e.g. "ws://host/api/v1/ws/connect".
	// The auth token is appended as a query parameter at connect time.
	URL string

	// User is the local username, used as the author of optimistic
	// messages. Informational only; identity is established by the
	// token.
	User string

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // 0 disables; pushes can be sparse
	WriteTimeout     time.Duration

	// ReconnectBaseDelay is the backoff unit: the Nth retry waits
	// N * ReconnectBaseDelay before redialing.
	ReconnectBaseDelay time.Duration

	// MaxReconnectAttempts bounds automatic reconnection. 0 disables
	// it entirely; after the bound is exhausted a give_up frame is
	// emitted and no further dials happen.
	MaxReconnectAttempts int

	// PendingTimeout bounds how long an optimistic message may stay
	// unconfirmed before it is rolled back with a send_timeout error.
	// 0 disables the timeout.
	PendingTimeout time.Duration

	// TypingTTL is how long a typing indicator lives without a refresh.
	TypingTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         10 * time.Second,
		ReconnectBaseDelay:   time.Second,
		MaxReconnectAttempts: 5,
		PendingTimeout:       15 * time.Second,
		TypingTTL:            5 * time.Second,
	}
}
