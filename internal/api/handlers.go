package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"vox/relay/internal/auth"
	"vox/relay/internal/config"
	"vox/relay/internal/events"
	"vox/relay/internal/relay"
	"vox/relay/internal/sessions"
	"vox/relay/internal/upstream"
)

type Handlers struct {
	cfg      config.Config
	sessions *sessions.Store
	events   *events.Store
	upstream *upstream.Client
	hubs     *relay.Manager
}

func NewHandlers(cfg config.Config, st *sessions.Store, ev *events.Store, up *upstream.Client, hubs *relay.Manager) *Handlers {
	return &Handlers{cfg: cfg, sessions: st, events: ev, upstream: up, hubs: hubs}
}

// HandleCreateSession bootstraps one conversation: a realtime session at
// the provider, a local record, and the token the browser uses for its
// websocket connect.
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if h.cfg.OpenAI.APIKey == "" {
		http.Error(w, "missing OpenAI configuration", http.StatusBadRequest)
		return
	}

	sess := h.sessions.Create()
	sess.Upstream.Model = h.cfg.OpenAI.Model

	rt, err := h.upstream.CreateSession(r.Context(), h.cfg.OpenAI.Model, upstream.DefaultSessionConfig(h.cfg.OpenAI.Voice))
	if err != nil {
		log.Printf("[api] create realtime session: %v", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	sess.Upstream.SessionID = rt.ID
	sess.Upstream.ClientSecret = rt.ClientSecret.Value

	h.sessions.Put(sess)
	h.events.Append(sess.ID, "session_created", map[string]any{"upstream_session": rt.ID})

	resp := map[string]any{
		"session_id": sess.ID,
		"model":      h.cfg.OpenAI.Model,
	}
	if h.cfg.Client.TokenSecret != "" {
		exp := time.Now().Add(time.Duration(h.cfg.Client.TokenExpMin) * time.Minute).Unix()
		resp["client_token"] = auth.GenerateSessionToken(h.cfg.Client.TokenSecret, sess.ID, exp)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.sessions.Get(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sess)
}

func (h *Handlers) HandleEndSession(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.sessions.Get(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	h.hubs.Teardown(id)
	h.sessions.SetStatus(id, "ended")
	h.events.Append(id, "session_ended", nil)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.sessions.Get(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": id,
		"events":     h.events.List(id),
	})
}
