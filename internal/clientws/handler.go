// Package clientws accepts the browser's websocket and feeds it into the
// session hub. The hub owns connection replacement: a second accept for
// the same session closes the first.
package clientws

import (
	"context"
	"log"
	"net/http"
	"time"

	ws "nhooyr.io/websocket"

	"vox/relay/internal/auth"
	"vox/relay/internal/relay"
	"vox/relay/internal/sessions"
)

// HubProvider resolves the hub for a session id, creating it on first use.
type HubProvider interface {
	Hub(sessionID string) *relay.Hub
}

type Server struct {
	Sessions    *sessions.Store
	Hubs        HubProvider
	TokenSecret string
	TokenSkew   int
}

func NewServer(st *sessions.Store, hubs HubProvider, tokenSecret string, tokenSkewSecs int) *Server {
	return &Server{Sessions: st, Hubs: hubs, TokenSecret: tokenSecret, TokenSkew: tokenSkewSecs}
}

// HandleClientWS upgrades /ws?session_id=...&token=... and pumps frames
// into the hub until the socket dies. Token comes as a query parameter
// because browsers cannot set websocket headers.
func (s *Server) HandleClientWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	if s.Sessions.Get(sessionID) == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if s.TokenSecret != "" {
		token := q.Get("token")
		if _, _, err := auth.ValidateSessionToken(s.TokenSecret, token, sessionID, time.Now(), s.TokenSkew); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	c, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		log.Printf("[clientws] ws accept: %v", err)
		return
	}
	c.SetReadLimit(1 << 20)

	hub := s.Hubs.Hub(sessionID)
	cc := &clientConn{conn: c}
	hub.Deliver(relay.Event{Kind: relay.ClientOpened, Conn: cc})

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		hub.Deliver(relay.Event{Kind: relay.ClientMessage, Data: data})
	}
	hub.Deliver(relay.Event{Kind: relay.ClientClosed, Conn: cc})
	_ = c.Close(ws.StatusNormalClosure, "done")
}

type clientConn struct {
	conn *ws.Conn
}

func (c *clientConn) Send(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, ws.MessageText, data)
}

func (c *clientConn) Close(reason string) error {
	return c.conn.Close(ws.StatusNormalClosure, reason)
}
