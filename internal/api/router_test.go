package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"vox/relay/internal/config"
	"vox/relay/internal/events"
	"vox/relay/internal/relay"
	"vox/relay/internal/sessions"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	cfg := config.Load()
	st := sessions.NewStore()
	ev := events.NewStore()
	mgr := relay.NewManager(context.Background(), func(id string) *relay.Hub {
		return relay.NewHub(id, nil, nil, ev, relay.Config{})
	})
	return NewHandlers(cfg, st, ev, nil, mgr)
}

func TestUnknownSession404(t *testing.T) {
	h := newTestHandlers(t)
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sessions/unknown")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/sessions/unknown/end", "application/json", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestEventsForKnownSession(t *testing.T) {
	h := newTestHandlers(t)
	sess := h.sessions.Create()
	h.sessions.Put(sess)
	h.events.Append(sess.ID, "session_created", nil)

	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sessions/" + sess.ID + "/events")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCreateSessionWithoutAPIKey400(t *testing.T) {
	h := newTestHandlers(t)
	h.cfg.OpenAI.APIKey = ""
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
