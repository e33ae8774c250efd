package teamflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teamflow/teamflow-sdk-go/teamflow/rest"
)

func TestSessionSendMessageReconciles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req rest.SendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(rest.Message{
			ID:        "m42",
			ChannelID: req.ChannelID,
			Author:    "me",
			Content:   req.Content,
			CreatedAt: time.Now().UTC(),
		})
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.User = "me"
	s := NewSession(cfg, srv.URL)

	tempID, err := s.SendMessage(context.Background(), "c1", "hello", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if tempID == "" {
		t.Fatalf("empty temp id")
	}

	got := s.Store().Messages("c1")
	if len(got) != 1 || got[0].ID != "m42" || got[0].Pending {
		t.Fatalf("store after send: %+v", got)
	}
}

func TestSessionSendMessageRollsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "database down"})
	}))
	defer srv.Close()

	s := NewSession(testConfig(), srv.URL)

	var rolledBack string
	s.Store().OnRollback(func(_, tempID string, err error) {
		rolledBack = tempID
		if CodeOf(err) != ErrorSendFailed {
			t.Errorf("rollback error = %v, want send_failed", err)
		}
	})

	tempID, err := s.SendMessage(context.Background(), "c1", "hello", nil)
	if err == nil {
		t.Fatalf("expected send error")
	}
	if CodeOf(err) != ErrorSendFailed {
		t.Fatalf("error = %v, want send_failed", err)
	}
	if rolledBack != tempID {
		t.Fatalf("rollback temp id = %q, want %q", rolledBack, tempID)
	}
	if got := s.Store().Messages("c1"); len(got) != 0 {
		t.Fatalf("failed message left in store: %+v", got)
	}
}

func TestSessionActivateChannelLoadsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/c1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(rest.MessagesPage{
			Messages: []rest.Message{
				{ID: "m1", ChannelID: "c1", Author: "alex", Content: "hi"},
				{ID: "m2", ChannelID: "c1", Author: "me", Content: "hello"},
			},
		})
	}))
	defer srv.Close()

	s := NewSession(testConfig(), srv.URL)

	if err := s.ActivateChannel(context.Background(), "c1"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	got := s.Store().Messages("c1")
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("history = %+v", got)
	}
	if !s.Rooms().Member("c1") {
		t.Fatalf("activate did not record room membership")
	}
}

func TestSessionRoutesPushedFrames(t *testing.T) {
	s := NewSession(testConfig(), "http://unused.invalid")

	ft := newFakeTransport()
	s.Client().dial = func(context.Context, string) (transport, error) { return ft, nil }
	if err := s.Connect(context.Background(), "tok"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	data, _ := json.Marshal(MessageEvent{ID: "m9", ChannelID: "c2", Username: "alex", Content: "ping"})
	ft.push(ServerFrame{Type: EventMessage, Room: "c2", Data: data})

	waitUntil(t, func() bool { return len(s.Store().Messages("c2")) == 1 }, "pushed message in store")
	if got := s.Store().Messages("c2"); got[0].ID != "m9" || got[0].Author != "alex" {
		t.Fatalf("stored message = %+v", got[0])
	}
	if got := s.Unread("c2"); got != 1 {
		t.Fatalf("unread = %d, want 1", got)
	}

	typing, _ := json.Marshal(TypingEvent{ChannelID: "c2", Username: "sam", IsTyping: true})
	ft.push(ServerFrame{Type: EventTyping, Room: "c2", Data: typing})

	waitUntil(t, func() bool {
		users := s.Typing().TypingUsers("c2")
		return len(users) == 1 && users[0] == "sam"
	}, "typing entry")
}

func TestSessionSetLoggerDuringTraffic(t *testing.T) {
	s := NewSession(testConfig(), "http://unused.invalid")

	ft := newFakeTransport()
	s.Client().dial = func(context.Context, string) (transport, error) { return ft, nil }
	if err := s.Connect(context.Background(), "tok"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	// Malformed frames hit the handlers' logging branch while the
	// logger is being swapped; the race detector must stay quiet.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			ft.push(ServerFrame{Type: EventMessage, Room: "c1", Data: []byte(`{broken`)})
			ft.push(ServerFrame{Type: EventTyping, Room: "c1", Data: []byte(`{broken`)})
		}
	}()
	for i := 0; i < 50; i++ {
		s.SetLogger(noopLogger{})
	}
	<-done

	waitUntil(t, func() bool { return len(ft.frames) == 0 }, "frames drained")
	if got := s.Store().Messages("c1"); len(got) != 0 {
		t.Fatalf("malformed frames reached the store: %+v", got)
	}
}

func TestSessionMessageClearsAuthorTyping(t *testing.T) {
	s := NewSession(testConfig(), "http://unused.invalid")

	ft := newFakeTransport()
	s.Client().dial = func(context.Context, string) (transport, error) { return ft, nil }
	if err := s.Connect(context.Background(), "tok"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	typing, _ := json.Marshal(TypingEvent{ChannelID: "c1", Username: "alex", IsTyping: true})
	ft.push(ServerFrame{Type: EventTyping, Data: typing})
	waitUntil(t, func() bool { return len(s.Typing().TypingUsers("c1")) == 1 }, "typing entry")

	data, _ := json.Marshal(MessageEvent{ID: "m1", ChannelID: "c1", Username: "alex", Content: "done"})
	ft.push(ServerFrame{Type: EventMessage, Data: data})

	waitUntil(t, func() bool { return len(s.Typing().TypingUsers("c1")) == 0 }, "typing cleared")
}
