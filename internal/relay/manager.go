package relay

import (
	"context"
	"sync"
)

// Manager creates one hub (and its event loop goroutine) per session id.
// Sessions share nothing: isolation between conversations is per-Hub.
type Manager struct {
	ctx    context.Context
	newHub func(sessionID string) *Hub

	mu   sync.Mutex
	hubs map[string]*Hub
}

func NewManager(ctx context.Context, newHub func(sessionID string) *Hub) *Manager {
	return &Manager{ctx: ctx, newHub: newHub, hubs: make(map[string]*Hub)}
}

// Hub returns the session's hub, starting its loop on first use.
func (m *Manager) Hub(sessionID string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hubs[sessionID]
	if h == nil {
		h = m.newHub(sessionID)
		m.hubs[sessionID] = h
		go h.Run(m.ctx)
	}
	return h
}

// Teardown ends a session's hub if it exists.
func (m *Manager) Teardown(sessionID string) {
	m.mu.Lock()
	h := m.hubs[sessionID]
	delete(m.hubs, sessionID)
	m.mu.Unlock()
	if h != nil {
		h.Deliver(Event{Kind: Teardown})
	}
}
