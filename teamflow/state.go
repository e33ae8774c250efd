package teamflow

// ConnState is the lifecycle state of the WebSocket connection.
// Transitions happen only inside the Client's own methods and
// transport callbacks.
type ConnState int

const (
	// StateIdle means Connect has never been called.
	StateIdle ConnState = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateOpen means the connection is established and frames flow.
	StateOpen

	// StateClosing means Disconnect was called and the close handshake
	// is in progress.
	StateClosing

	// StateClosed means the connection is down.
	StateClosed

	// StateReconnecting means the connection dropped and a backoff
	// timer is waiting to redial.
	StateReconnecting
)

// String returns the string representation of a ConnState.
func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
