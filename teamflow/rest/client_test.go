package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetMessagesPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/c1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("limit = %q", got)
		}
		if got := r.URL.Query().Get("before"); got != "m50" {
			t.Errorf("before = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		_ = json.NewEncoder(w).Encode(MessagesPage{
			Messages: []Message{{ID: "m49", ChannelID: "c1", Content: "old"}},
			HasMore:  true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok")

	page, err := c.GetMessages(context.Background(), "c1", 20, "m50")
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].ID != "m49" || !page.HasMore {
		t.Fatalf("page = %+v", page)
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "no access to channel"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ListChannels(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "no access to channel"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not mention %q", err.Error(), want)
	}
}
