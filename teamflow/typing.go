package teamflow

import (
	"sort"
	"sync"
	"time"
)

// Typing tracks which users are currently typing in each channel.
//
// Entries expire after the TTL unless refreshed; an explicit "stopped
// typing" signal removes the entry immediately. Expired entries are
// pruned lazily on read, so no background goroutine runs.
type Typing struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]map[string]time.Time // channel -> user -> expiry
	now     func() time.Time
}

// NewTyping constructs a tracker whose entries live for ttl without a
// refresh.
func NewTyping(ttl time.Duration) *Typing {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Typing{
		ttl:     ttl,
		entries: make(map[string]map[string]time.Time),
		now:     time.Now,
	}
}

// SetTyping inserts or refreshes user's typing entry for channelID when
// isTyping is true, and removes it immediately when false.
func (t *Typing) SetTyping(channelID, user string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !isTyping {
		if users, ok := t.entries[channelID]; ok {
			delete(users, user)
			if len(users) == 0 {
				delete(t.entries, channelID)
			}
		}
		return
	}
	users, ok := t.entries[channelID]
	if !ok {
		users = make(map[string]time.Time)
		t.entries[channelID] = users
	}
	users[user] = t.now().Add(t.ttl)
}

// TypingUsers returns the users whose entries have not expired, sorted.
func (t *Typing) TypingUsers(channelID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	users, ok := t.entries[channelID]
	if !ok {
		return nil
	}
	now := t.now()
	var alive []string
	for user, expiry := range users {
		if now.After(expiry) {
			delete(users, user)
			continue
		}
		alive = append(alive, user)
	}
	if len(users) == 0 {
		delete(t.entries, channelID)
	}
	sort.Strings(alive)
	return alive
}
