package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the bootstrap record handed to the browser: the local id it
// connects the websocket with, plus what the upstream realtime API
// returned. Purely in-memory; a restart drops all sessions.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`

	Upstream UpstreamMetadata `json:"upstream"`
}

// UpstreamMetadata describes the realtime session created at the model
// provider for this conversation.
type UpstreamMetadata struct {
	SessionID    string `json:"session_id,omitempty"`
	Model        string `json:"model,omitempty"`
	ClientSecret string `json:"-"` // never serialized to the browser
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (s *Store) Create() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Status:    "created",
	}
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Store) SetStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Status = status
	}
}
