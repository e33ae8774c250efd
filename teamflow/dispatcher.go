package teamflow

import (
	"fmt"
	"sync"
)

// Handler consumes one inbound frame.
type Handler func(ServerFrame)

// Subscription identifies one registered handler so that exactly that
// registration can be removed, even when several handlers listen to
// the same frame type.
type Subscription struct {
	event string
	id    uint64
}

// Dispatcher fans inbound frames out to handlers by frame type.
//
// Delivery is synchronous and in registration order. Frames emitted
// while no handler is registered are dropped; there is no buffering
// or replay. A panicking handler does not stop delivery to the rest.
type Dispatcher struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]registration
	logger   Logger
}

type registration struct {
	id uint64
	fn Handler
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]registration),
		logger:   noopLogger{},
	}
}

// SetLogger overrides the logger used for handler panics (optional).
func (d *Dispatcher) SetLogger(l Logger) {
	if l == nil {
		return
	}
	d.mu.Lock()
	d.logger = l
	d.mu.Unlock()
}

// On registers fn for frames of the given type and returns the
// subscription that removes it.
func (d *Dispatcher) On(event string, fn Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.handlers[event] = append(d.handlers[event], registration{id: d.nextID, fn: fn})
	return Subscription{event: event, id: d.nextID}
}

// Off removes the single registration identified by sub. Other
// handlers for the same frame type are untouched. Removing an already
// removed subscription is a no-op.
func (d *Dispatcher) Off(sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	regs := d.handlers[sub.event]
	for i, r := range regs {
		if r.id == sub.id {
			d.handlers[sub.event] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Emit delivers frame to every handler registered for its type at the
// moment Emit runs.
func (d *Dispatcher) Emit(frame ServerFrame) {
	d.mu.Lock()
	regs := append([]registration(nil), d.handlers[frame.Type]...)
	logger := d.logger
	d.mu.Unlock()

	for _, r := range regs {
		invoke(logger, r.fn, frame)
	}
}

func invoke(logger Logger, fn Handler, frame ServerFrame) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic", map[string]any{
				"type":  frame.Type,
				"panic": fmt.Sprint(r),
			})
		}
	}()
	fn(frame)
}
