// Package teamflow is the client-side realtime sync layer for the
// TeamFlow chat: one WebSocket connection per session, a frame
// dispatcher, sticky room membership, a channel/message cache with
// optimistic sends, and typing presence.
package teamflow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/teamflow/teamflow-sdk-go/teamflow/internal"

	"github.com/coder/websocket"
)

// transport is the surface of the underlying socket the client uses.
// The default implementation wraps coder/websocket; tests inject an
// in-memory fake so the state machine runs without a real socket.
type transport interface {
	Read(ctx context.Context, v any) error
	Write(ctx context.Context, v any) error
	Close(code websocket.StatusCode, reason string) error
}

type dialFunc func(ctx context.Context, endpoint string) (transport, error)

// Client owns the single WebSocket connection for a session: connect,
// disconnect, outbound frames, and reconnection with linear backoff.
// All inbound frames, wire and lifecycle alike, flow through the
// client's Dispatcher.
type Client struct {
	cfg        Config
	dispatcher *Dispatcher
	rooms      *Rooms
	dial       dialFunc

	mu        sync.Mutex
	logger    Logger
	state     ConnState
	conn      transport
	token     string
	attempt   int
	closing   bool // Disconnect was called; suppress auto-reconnect
	reconnect *time.Timer
	cancel    context.CancelFunc
	writeCh   chan ClientFrame
}

// NewClient constructs a client with the provided config. Use
// DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config) *Client {
	c := &Client{
		cfg:        cfg,
		dispatcher: NewDispatcher(),
		logger:     noopLogger{},
		state:      StateIdle,
	}
	c.dial = c.dialWebSocket
	c.rooms = newRooms(c)
	return c
}

// SetLogger overrides the logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.logger = l
	c.mu.Unlock()
	c.dispatcher.SetLogger(l)
}

func (c *Client) logf() Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// Dispatcher returns the dispatcher inbound frames are routed to.
func (c *Client) Dispatcher() *Dispatcher { return c.dispatcher }

// Rooms returns the room membership tracker bound to this client.
func (c *Client) Rooms() *Rooms { return c.rooms }

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the endpoint with token carried as a query parameter
// and starts the read and write loops. Calling Connect while Open or
// Connecting is a no-op. A failed dial is not returned to the caller:
// it feeds the reconnect policy and surfaces through error /
// reconnecting / give_up frames. Only configuration problems are
// returned directly.
func (c *Client) Connect(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.state == StateOpen || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	if c.cfg.URL == "" {
		c.mu.Unlock()
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	// A manual Connect during the backoff window supersedes the armed
	// reconnect; otherwise the timer would dial a second socket.
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	c.state = StateConnecting
	c.closing = false
	c.attempt = 0
	c.token = token
	c.mu.Unlock()

	if _, err := c.endpoint(); err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return WrapError(ErrorInvalidConfig, "invalid URL", err)
	}

	c.connect(ctx)
	return nil
}

// Disconnect closes the connection, cancels any pending reconnect
// timer and suppresses automatic reconnection. Safe to call at any
// time, repeatedly.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.closing = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	if conn != nil {
		c.state = StateClosing
	} else {
		c.state = StateClosed
	}
	c.mu.Unlock()

	if conn != nil {
		// The read loop observes the close and finishes the Closed
		// transition.
		return conn.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

// Send transmits one frame. It reports a not_connected error when the
// connection is not open; frames are never queued across a disconnect.
// A nil return means the frame was accepted for writing, not that it
// was delivered: a frame enqueued just as the transport fails is lost
// with the connection.
func (c *Client) Send(frameType string, data any, room string) error {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return NewError(ErrorNotConnected, "connection is not open")
	}
	ch := c.writeCh
	c.mu.Unlock()

	select {
	case ch <- ClientFrame{Type: frameType, Data: data, Room: room}:
		return nil
	default:
		return NewError(ErrorSendFailed, "write queue full")
	}
}

// SendChatMessage publishes content to a room over the socket.
func (c *Client) SendChatMessage(room, content string) error {
	return c.Send(frameSendMessage, SendMessagePayload{Content: content}, room)
}

// NotifyTyping signals the local user's typing state for a room.
// Rate-limiting outbound typing signals is the caller's concern.
func (c *Client) NotifyTyping(room string, isTyping bool) error {
	return c.Send(frameTyping, TypingPayload{IsTyping: isTyping}, room)
}

// Ping sends a heartbeat frame.
func (c *Client) Ping() error {
	return c.Send(framePing, struct{}{}, "")
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	c.mu.Lock()
	q.Set("token", c.token)
	c.mu.Unlock()
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) dialWebSocket(ctx context.Context, endpoint string) (transport, error) {
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return internal.NewConn(ws, c.cfg.ReadTimeout, c.cfg.WriteTimeout), nil
}

// connect performs one dial attempt. On success it transitions to
// Open, resets the attempt counter, emits a connected frame, replays
// room membership and starts the loops. On failure it hands off to the
// reconnect policy.
func (c *Client) connect(ctx context.Context) {
	endpoint, err := c.endpoint()
	if err != nil {
		// Validated in Connect; can only happen on a corrupted config.
		c.failDial(err)
		return
	}

	tr, err := c.dial(ctx, endpoint)
	if err != nil {
		c.logf().Warn("dial failed", map[string]any{"error": err.Error()})
		c.failDial(err)
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	writeCh := make(chan ClientFrame, 16)

	c.mu.Lock()
	if c.closing {
		// Disconnect raced the dial.
		c.mu.Unlock()
		cancel()
		_ = tr.Close(websocket.StatusNormalClosure, "client close")
		return
	}
	c.conn = tr
	c.cancel = cancel
	c.state = StateOpen
	c.attempt = 0
	c.writeCh = writeCh
	c.mu.Unlock()

	c.logf().Info("connected", map[string]any{"url": c.cfg.URL})

	go c.readLoop(runCtx, tr)
	go c.writeLoop(runCtx, tr, writeCh)

	c.dispatcher.Emit(ServerFrame{Type: EventConnected})
	c.rooms.replay()
}

func (c *Client) failDial(err error) {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	c.emitError(WrapError(ErrorTransport, "dial failed", err))
	c.scheduleReconnect()
}

func (c *Client) readLoop(ctx context.Context, tr transport) {
	for {
		var frame ServerFrame
		if err := tr.Read(ctx, &frame); err != nil {
			c.handleClose(ctx, tr, err)
			return
		}
		c.dispatcher.Emit(frame)
	}
}

func (c *Client) writeLoop(ctx context.Context, tr transport, ch <-chan ClientFrame) {
	for {
		select {
		case frame := <-ch:
			if err := tr.Write(ctx, frame); err != nil {
				c.logf().Warn("write failed", map[string]any{"error": err.Error()})
				// Closing the transport wakes the read loop, which
				// finishes the disconnect; otherwise the connection
				// would linger in Open with nothing draining writes.
				_ = tr.Close(websocket.StatusInternalError, "write failure")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleClose finishes any transport close: emits the lifecycle
// frames, transitions to Closed and, unless the close came from an
// explicit Disconnect, schedules a reconnect. A close for a transport
// that is no longer current is ignored; a Connect may already have
// replaced it.
func (c *Client) handleClose(ctx context.Context, tr transport, err error) {
	// Classify before cancelling the run context below, which would
	// make every close look expected.
	expected := isExpectedDisconnect(ctx, err)

	c.mu.Lock()
	if c.conn != tr {
		c.mu.Unlock()
		return
	}
	wasClosing := c.closing
	c.conn = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = StateClosed
	c.mu.Unlock()

	if !wasClosing && !expected {
		c.logf().Warn("connection lost", map[string]any{"error": err.Error()})
		c.emitError(WrapError(ErrorTransport, "connection lost", err))
	}
	c.dispatcher.Emit(ServerFrame{Type: EventDisconnected})

	if wasClosing {
		return
	}
	c.scheduleReconnect()
}

// scheduleReconnect arms the next backoff timer, or emits the terminal
// give_up frame once the attempt budget is spent. The Nth retry waits
// N * ReconnectBaseDelay. Disconnect during the backoff window cancels
// the timer.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closing || c.cfg.MaxReconnectAttempts <= 0 {
		c.mu.Unlock()
		return
	}
	if c.attempt >= c.cfg.MaxReconnectAttempts {
		c.mu.Unlock()
		c.logf().Error("reconnect attempts exhausted", map[string]any{
			"attempts": c.cfg.MaxReconnectAttempts,
		})
		c.emitError(NewError(ErrorReconnectExhausted, "reconnect attempts exhausted"))
		c.dispatcher.Emit(ServerFrame{Type: EventGiveUp})
		return
	}
	c.attempt++
	attempt := c.attempt
	delay := time.Duration(attempt) * c.cfg.ReconnectBaseDelay
	c.state = StateReconnecting
	c.reconnect = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnect = nil
		// Only redial from the backoff window itself. Anything else
		// means a Disconnect or a manual Connect got here first and
		// the connection is no longer this timer's to manage.
		if c.closing || c.state != StateReconnecting {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()
		c.connect(context.Background())
	})
	c.mu.Unlock()

	c.logf().Info("reconnect scheduled", map[string]any{
		"attempt": attempt,
		"delay":   delay.String(),
	})
	data, _ := json.Marshal(ReconnectEvent{Attempt: attempt, DelayMS: delay.Milliseconds()})
	c.dispatcher.Emit(ServerFrame{Type: EventReconnecting, Data: data})
}

func (c *Client) emitError(err error) {
	data, _ := json.Marshal(ErrorEvent{Error: err.Error()})
	c.dispatcher.Emit(ServerFrame{Type: EventError, Data: data})
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
