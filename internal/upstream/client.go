// Package upstream talks to the realtime speech-model endpoint: a REST
// call to mint a per-conversation session, and the websocket the hub
// relays over.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	ws "nhooyr.io/websocket"

	"vox/relay/internal/relay"
)

// RealtimeSession is what the provider returns from the sessions endpoint.
type RealtimeSession struct {
	ID           string `json:"id"`
	ClientSecret struct {
		Value string `json:"value"`
	} `json:"client_secret"`
}

// Client holds the credentials and endpoints for one provider account.
type Client struct {
	http   *http.Client
	apiKey string
	// restBase is the sessions endpoint base, e.g. https://api.openai.com/v1
	restBase string
	// wsURL is the realtime websocket URL including the model query param
	wsURL string
}

func NewClient(apiKey, restBase, wsURL string) *Client {
	return &Client{
		http:     &http.Client{},
		apiKey:   apiKey,
		restBase: restBase,
		wsURL:    wsURL,
	}
}

// CreateSession mints a realtime session and its ephemeral client secret,
// mirroring the browser bootstrap flow.
func (c *Client) CreateSession(ctx context.Context, model string, sessionCfg json.RawMessage) (*RealtimeSession, error) {
	body := map[string]any{"model": model}
	if sessionCfg != nil {
		var extra map[string]any
		if err := json.Unmarshal(sessionCfg, &extra); err == nil {
			for k, v := range extra {
				body[k] = v
			}
		}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.restBase+"/realtime/sessions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relay.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: create session: %s: %s", relay.ErrUpstreamUnavailable, resp.Status, string(b))
	}
	var out RealtimeSession
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dial opens the realtime websocket and starts the read pump. It
// implements relay.ModelDialer: every inbound frame becomes a
// ModelMessage event, and the pump's exit becomes ModelClosed.
func (c *Client) Dial(ctx context.Context, deliver func(relay.Event)) (relay.Conn, error) {
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+c.apiKey)
	hdr.Set("OpenAI-Beta", "realtime=v1")
	conn, _, err := ws.Dial(ctx, c.wsURL, &ws.DialOptions{HTTPHeader: hdr})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relay.ErrUpstreamUnavailable, err)
	}
	// Audio deltas for a whole utterance can be large.
	conn.SetReadLimit(1 << 22)

	mc := &modelConn{conn: conn}
	go func() {
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				deliver(relay.Event{Kind: relay.ModelClosed, Conn: mc, Err: err})
				return
			}
			if typ != ws.MessageText && typ != ws.MessageBinary {
				continue
			}
			deliver(relay.Event{Kind: relay.ModelMessage, Data: data})
		}
	}()
	return mc, nil
}

type modelConn struct {
	conn *ws.Conn
}

func (m *modelConn) Send(ctx context.Context, data []byte) error {
	return m.conn.Write(ctx, ws.MessageText, data)
}

func (m *modelConn) Close(reason string) error {
	log.Printf("[upstream] closing model connection: %s", reason)
	return m.conn.Close(ws.StatusNormalClosure, reason)
}
