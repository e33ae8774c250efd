package teamflow

import "testing"

func TestDispatcherRegistrationOrder(t *testing.T) {
	d := NewDispatcher()

	var order []string
	d.On(EventMessage, func(ServerFrame) { order = append(order, "first") })
	d.On(EventMessage, func(ServerFrame) { order = append(order, "second") })
	d.On(EventMessage, func(ServerFrame) { order = append(order, "third") })

	d.Emit(ServerFrame{Type: EventMessage})

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("delivery order = %v", order)
	}
}

func TestDispatcherOffRemovesOneHandler(t *testing.T) {
	d := NewDispatcher()

	var order []string
	d.On(EventMessage, func(ServerFrame) { order = append(order, "first") })
	mid := d.On(EventMessage, func(ServerFrame) { order = append(order, "second") })
	d.On(EventMessage, func(ServerFrame) { order = append(order, "third") })

	d.Off(mid)
	d.Off(mid) // removing twice is a no-op

	d.Emit(ServerFrame{Type: EventMessage})

	if len(order) != 2 || order[0] != "first" || order[1] != "third" {
		t.Fatalf("delivery after off = %v", order)
	}
}

func TestDispatcherPanicIsolation(t *testing.T) {
	d := NewDispatcher()

	var reached bool
	d.On(EventMessage, func(ServerFrame) { panic("handler bug") })
	d.On(EventMessage, func(ServerFrame) { reached = true })

	d.Emit(ServerFrame{Type: EventMessage})

	if !reached {
		t.Fatalf("panic in earlier handler stopped delivery")
	}
}

func TestDispatcherNoDeliveryAcrossTypes(t *testing.T) {
	d := NewDispatcher()

	var called bool
	d.On(EventTyping, func(ServerFrame) { called = true })

	d.Emit(ServerFrame{Type: EventMessage})

	if called {
		t.Fatalf("handler invoked for wrong frame type")
	}
}

func TestDispatcherNoReplay(t *testing.T) {
	d := NewDispatcher()
	d.Emit(ServerFrame{Type: EventMessage})

	var called bool
	d.On(EventMessage, func(ServerFrame) { called = true })

	if called {
		t.Fatalf("frame emitted before registration was replayed")
	}
}
