package teamflow

import (
	"context"
	"sync"

	"github.com/teamflow/teamflow-sdk-go/teamflow/rest"
)

// Session ties the sync layer together for one authenticated app
// session: the socket client, the message store, typing presence and
// the REST collaborator used for history fetches and message sends.
//
// Construct one per login and Close it at logout; nothing here is a
// process-wide singleton, so tests and multiple sessions stay
// isolated.
type Session struct {
	client *Client
	store  *Store
	typing *Typing
	rest   *rest.Client
	logger Logger

	subs []Subscription

	mu     sync.Mutex
	active string         // channel the UI currently displays
	unread map[string]int // channel -> unread count
}

// NewSession builds a session from cfg and the REST API base URL.
func NewSession(cfg Config, restBaseURL string) *Session {
	s := &Session{
		client: NewClient(cfg),
		store:  NewStore(cfg.PendingTimeout),
		typing: NewTyping(cfg.TypingTTL),
		rest:   rest.NewClient(restBaseURL),
		logger: noopLogger{},
		unread: make(map[string]int),
	}
	d := s.client.Dispatcher()
	s.subs = append(s.subs,
		d.On(EventMessage, s.onMessage),
		d.On(EventTyping, s.onTyping),
	)
	return s
}

// SetLogger overrides the logger for the session and everything it
// owns (optional).
func (s *Session) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
	s.client.SetLogger(l)
	s.store.SetLogger(l)
}

func (s *Session) logf() Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

// Client returns the connection manager.
func (s *Session) Client() *Client { return s.client }

// Store returns the channel/message store.
func (s *Session) Store() *Store { return s.store }

// Typing returns the typing presence tracker.
func (s *Session) Typing() *Typing { return s.typing }

// Rooms returns the room membership tracker.
func (s *Session) Rooms() *Rooms { return s.client.Rooms() }

// Rest returns the REST collaborator.
func (s *Session) Rest() *rest.Client { return s.rest }

// Login authenticates against the REST API and primes the REST client
// with the returned token. The token is also returned so the caller
// can pass it to Connect.
func (s *Session) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := s.rest.Login(ctx, rest.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	s.rest.SetToken(resp.Token)
	return resp.Token, nil
}

// Connect opens the WebSocket connection with token.
func (s *Session) Connect(ctx context.Context, token string) error {
	return s.client.Connect(ctx, token)
}

// Close tears the session down: dispatcher subscriptions are removed
// and the socket is closed.
func (s *Session) Close() error {
	d := s.client.Dispatcher()
	for _, sub := range s.subs {
		d.Off(sub)
	}
	s.subs = nil
	return s.client.Disconnect()
}

// ActivateChannel marks channelID as the one the user is viewing:
// joins its room, clears its unread counter and replaces its cached
// history with a fresh REST fetch.
func (s *Session) ActivateChannel(ctx context.Context, channelID string) error {
	s.mu.Lock()
	s.active = channelID
	delete(s.unread, channelID)
	s.mu.Unlock()

	s.client.Rooms().Join(channelID)

	page, err := s.rest.GetMessages(ctx, channelID, 50, "")
	if err != nil {
		return err
	}
	history := make([]Message, 0, len(page.Messages))
	for _, m := range page.Messages {
		history = append(history, messageFromREST(m))
	}
	s.store.LoadHistory(channelID, history)
	return nil
}

// SendMessage optimistically appends content to channelID, posts it to
// the REST API, and reconciles or rolls back the pending entry with
// the outcome. The returned temp ID identifies the pending entry; on
// failure it has already been rolled back when SendMessage returns.
func (s *Session) SendMessage(ctx context.Context, channelID, content string, attachments []Attachment) (string, error) {
	tempID := s.store.AppendOptimistic(channelID, Message{
		Author:      s.client.cfg.User,
		Content:     content,
		Attachments: attachments,
	})

	created, err := s.rest.SendMessage(ctx, rest.SendMessageRequest{
		ChannelID:   channelID,
		Content:     content,
		Attachments: attachmentsToREST(attachments),
	})
	if err != nil {
		s.store.Rollback(channelID, tempID, WrapError(ErrorSendFailed, "message send failed", err))
		return tempID, WrapError(ErrorSendFailed, "message send failed", err)
	}

	s.store.Reconcile(channelID, tempID, messageFromREST(*created))
	return tempID, nil
}

// NotifyTyping signals the local user's typing state for a channel.
// Callers are expected to throttle their own outbound signals.
func (s *Session) NotifyTyping(channelID string, isTyping bool) error {
	return s.client.NotifyTyping(channelID, isTyping)
}

// Unread returns the unread counter for a channel.
func (s *Session) Unread(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[channelID]
}

func (s *Session) onMessage(frame ServerFrame) {
	var ev MessageEvent
	if err := UnmarshalData(frame.Data, &ev); err != nil {
		s.logf().Error("bad message frame", map[string]any{"error": err.Error()})
		return
	}
	channelID := ev.ChannelID
	if channelID == "" {
		channelID = frame.Room
	}
	author := ev.Username
	if author == "" {
		author = frame.Sender
	}

	s.store.AppendPushed(channelID, Message{
		ID:          ev.ID,
		Author:      author,
		Content:     ev.Content,
		Attachments: ev.Attachments,
		CreatedAt:   ev.CreatedAt,
	})

	// A new message also ends the author's typing indicator.
	s.typing.SetTyping(channelID, author, false)

	s.mu.Lock()
	if channelID != s.active {
		s.unread[channelID]++
	}
	s.mu.Unlock()
}

func (s *Session) onTyping(frame ServerFrame) {
	var ev TypingEvent
	if err := UnmarshalData(frame.Data, &ev); err != nil {
		s.logf().Error("bad typing frame", map[string]any{"error": err.Error()})
		return
	}
	channelID := ev.ChannelID
	if channelID == "" {
		channelID = frame.Room
	}
	s.typing.SetTyping(channelID, ev.Username, ev.IsTyping)
}

func messageFromREST(m rest.Message) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Author:    m.Author,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, Attachment(a))
	}
	return msg
}

func attachmentsToREST(atts []Attachment) []rest.Attachment {
	if len(atts) == 0 {
		return nil
	}
	out := make([]rest.Attachment, 0, len(atts))
	for _, a := range atts {
		out = append(out, rest.Attachment(a))
	}
	return out
}
