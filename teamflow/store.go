package teamflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a channel's merged message view.
type Message struct {
	ID          string
	ChannelID   string
	Author      string
	Content     string
	Attachments []Attachment
	CreatedAt   time.Time

	// Pending marks an optimistically inserted message awaiting server
	// confirmation.
	Pending bool
}

// RollbackFunc observes every removed pending message: the channel it
// lived in, its temp ID and the reason it was rolled back.
type RollbackFunc func(channelID, tempID string, err error)

// Store is the client-side cache mapping channel -> ordered message
// list. It merges REST-fetched history, locally sent (optimistic)
// messages and server pushes into one view.
//
// Lists only ever grow at the tail or have entries replaced in place;
// the store never resorts, so insertion order is display order.
type Store struct {
	mu         sync.Mutex
	channels   map[string][]Message
	pending    map[string]*pendingEntry // temp ID -> expiry bookkeeping
	timeout    time.Duration
	onRollback RollbackFunc
	logger     Logger
}

type pendingEntry struct {
	channelID string
	timer     *time.Timer
}

// NewStore constructs an empty store. pendingTimeout bounds how long an
// optimistic message may stay unconfirmed; 0 disables the bound.
func NewStore(pendingTimeout time.Duration) *Store {
	return &Store{
		channels: make(map[string][]Message),
		pending:  make(map[string]*pendingEntry),
		timeout:  pendingTimeout,
		logger:   noopLogger{},
	}
}

// SetLogger overrides the logger (optional).
func (s *Store) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

// OnRollback registers the callback invoked whenever a pending message
// is rolled back, including by the pending timeout.
func (s *Store) OnRollback(fn RollbackFunc) {
	s.mu.Lock()
	s.onRollback = fn
	s.mu.Unlock()
}

// Messages returns a copy of channelID's current list.
func (s *Store) Messages(channelID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.channels[channelID]...)
}

// LoadHistory replaces channelID's list with a server-provided ordered
// batch. Other channels are untouched. Pending entries for the channel
// are discarded along with their timers; the batch is authoritative.
func (s *Store) LoadHistory(channelID string, msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tempID, p := range s.pending {
		if p.channelID == channelID {
			p.timer.Stop()
			delete(s.pending, tempID)
		}
	}
	s.channels[channelID] = append([]Message(nil), msgs...)
}

// AppendOptimistic inserts a pending message at the tail of channelID
// and returns the generated temp ID used to reconcile or roll the
// entry back later. When the store has a pending timeout, an
// unconfirmed entry is rolled back with a send_timeout error once the
// timeout elapses.
func (s *Store) AppendOptimistic(channelID string, draft Message) string {
	tempID := "tmp-" + uuid.NewString()
	draft.ID = tempID
	draft.ChannelID = channelID
	draft.Pending = true
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channelID] = append(s.channels[channelID], draft)
	if s.timeout > 0 {
		s.pending[tempID] = &pendingEntry{
			channelID: channelID,
			timer: time.AfterFunc(s.timeout, func() {
				s.Rollback(channelID, tempID,
					NewError(ErrorSendTimeout, "no confirmation for optimistic message"))
			}),
		}
	}
	return tempID
}

// Reconcile replaces the pending entry tempID with the authoritative
// server message and clears its pending state. When the temp entry is
// gone, or the broadcast already delivered the same server message, it
// degrades to append-if-absent so the message appears exactly once no
// matter which path wins the race.
func (s *Store) Reconcile(channelID, tempID string, server Message) {
	server.ChannelID = channelID
	server.Pending = false

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked(tempID)

	list := s.channels[channelID]
	if indexOf(list, server.ID) >= 0 {
		// The push path got here first; drop the temp entry.
		if i := indexOf(list, tempID); i >= 0 {
			s.channels[channelID] = append(list[:i:i], list[i+1:]...)
		}
		return
	}
	if i := indexOf(list, tempID); i >= 0 {
		list[i] = server
		return
	}
	s.channels[channelID] = append(list, server)
}

// Rollback removes the pending entry tempID and reports err through
// the rollback callback. Rolling back an entry that was already
// reconciled or removed is a no-op.
func (s *Store) Rollback(channelID, tempID string, err error) {
	s.mu.Lock()
	s.cancelPendingLocked(tempID)
	list := s.channels[channelID]
	i := indexOf(list, tempID)
	if i >= 0 {
		s.channels[channelID] = append(list[:i:i], list[i+1:]...)
	}
	fn := s.onRollback
	logger := s.logger
	s.mu.Unlock()

	if i < 0 {
		return
	}
	logger.Warn("message rolled back", map[string]any{
		"channel": channelID,
		"temp_id": tempID,
		"error":   err.Error(),
	})
	if fn != nil {
		fn(channelID, tempID, err)
	}
}

// AppendPushed appends a message that arrived via the push path, unless
// an entry with its server ID already exists (the send path may have
// reconciled it first).
func (s *Store) AppendPushed(channelID string, server Message) {
	server.ChannelID = channelID
	server.Pending = false

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.channels[channelID]
	if indexOf(list, server.ID) >= 0 {
		return
	}
	s.channels[channelID] = append(list, server)
}

// PendingCount returns how many optimistic entries are still awaiting
// confirmation across all channels.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Store) cancelPendingLocked(tempID string) {
	if p, ok := s.pending[tempID]; ok {
		p.timer.Stop()
		delete(s.pending, tempID)
	}
}

func indexOf(list []Message, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
