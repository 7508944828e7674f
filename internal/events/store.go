package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one entry in a session's relay lifecycle log: connections
// coming and going, truncations sent, queue overflows.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// maxPerSession caps each session's log; oldest entries are dropped and a
// single truncation marker keeps the loss visible.
const maxPerSession = 500

type Store struct {
	mu     sync.RWMutex
	bySess map[string][]Event
}

func NewStore() *Store {
	return &Store{bySess: make(map[string][]Event)}
}

func (s *Store) Append(sessionID, typ string, payload map[string]any) Event {
	evt := Event{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	log := append(s.bySess[sessionID], evt)
	if len(log) > maxPerSession {
		dropped := len(log) - (maxPerSession - 1)
		log = append([]Event(nil), log[dropped:]...)
		log = append(log, Event{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Type:      "log_truncated",
			Timestamp: time.Now().UTC(),
			Payload:   map[string]any{"dropped": dropped},
		})
	}
	s.bySess[sessionID] = log
	return evt
}

func (s *Store) List(sessionID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.bySess[sessionID]
	out := make([]Event, len(src))
	copy(out, src)
	return out
}

func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bySess, sessionID)
}
