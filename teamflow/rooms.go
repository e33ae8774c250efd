package teamflow

import (
	"sort"
	"sync"
)

// Rooms tracks which rooms the client intends to be joined to.
//
// Membership is sticky: entries survive disconnects and are replayed
// as join frames on every transition into Open, which is what restores
// server-side subscriptions lost on a dropped connection. Entries are
// only removed by an explicit Leave.
type Rooms struct {
	c *Client

	mu     sync.Mutex
	member map[string]struct{}
}

func newRooms(c *Client) *Rooms {
	return &Rooms{c: c, member: make(map[string]struct{})}
}

// Join adds roomID to the membership set and, when the connection is
// open, sends a join frame. Joining a room the client is already a
// member of is a no-op. When the connection is not open the join is
// deferred and sent by the replay on the next open.
func (r *Rooms) Join(roomID string) {
	r.mu.Lock()
	if _, ok := r.member[roomID]; ok {
		r.mu.Unlock()
		return
	}
	r.member[roomID] = struct{}{}
	r.mu.Unlock()

	if err := r.c.Send(frameJoinRoom, struct{}{}, roomID); err != nil {
		r.c.logf().Debug("join deferred until open", map[string]any{"room": roomID})
	}
}

// Leave removes roomID from the membership set and sends a leave frame
// when the connection is open. Leaving a room the client is not a
// member of is a no-op.
func (r *Rooms) Leave(roomID string) {
	r.mu.Lock()
	if _, ok := r.member[roomID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.member, roomID)
	r.mu.Unlock()

	if err := r.c.Send(frameLeaveRoom, struct{}{}, roomID); err != nil {
		r.c.logf().Debug("leave skipped while disconnected", map[string]any{"room": roomID})
	}
}

// Member reports whether roomID is in the membership set.
func (r *Rooms) Member(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.member[roomID]
	return ok
}

// List returns the membership set, sorted.
func (r *Rooms) List() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.member))
	for id := range r.member {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// replay re-sends a join frame for every room in the set. The client
// calls this on every transition into Open.
func (r *Rooms) replay() {
	for _, id := range r.List() {
		if err := r.c.Send(frameJoinRoom, struct{}{}, id); err != nil {
			r.c.logf().Warn("join replay failed", map[string]any{
				"room":  id,
				"error": err.Error(),
			})
		}
	}
}
