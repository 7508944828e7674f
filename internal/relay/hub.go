// Package relay holds the session hub: the single authoritative router
// between one browser client connection and one model connection, and the
// truncation protocol that keeps both sides' idea of "audio actually
// heard" consistent when the user barges in.
package relay

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"vox/relay/internal/events"
	"vox/relay/internal/protocol"
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateOpen
)

// Invoker dispatches a function call requested by the model. Failures are
// reported as structured payloads, never as connection faults.
type Invoker interface {
	Invoke(ctx context.Context, name, argsJSON string) (string, error)
}

// Config tunes the hub.
type Config struct {
	// QueueMax bounds the model-bound pending queue (drop-oldest).
	QueueMax int
	// DefaultSessionConfig is the session object sent on model open when
	// the client has not supplied one yet.
	DefaultSessionConfig json.RawMessage
}

// Hub owns the Session record and both connection roles. All state lives
// behind one event loop: inbound occurrences are serialized through Run,
// so Session is never touched by two callbacks at once.
type Hub struct {
	cfg       Config
	sessionID string
	dialer    ModelDialer
	functions Invoker
	eventLog  *events.Store

	inbox chan Event
	done  chan struct{}

	// written only by the Run goroutine
	sess       Session
	client     Conn
	model      Conn
	modelState connState
	pending    *sendQueue

	now func() int64 // epoch ms, swappable in tests
}

func NewHub(sessionID string, dialer ModelDialer, functions Invoker, eventLog *events.Store, cfg Config) *Hub {
	return &Hub{
		cfg:       cfg,
		sessionID: sessionID,
		dialer:    dialer,
		functions: functions,
		eventLog:  eventLog,
		inbox:     make(chan Event, 256),
		done:      make(chan struct{}),
		sess:      Session{ID: sessionID},
		pending:   newSendQueue(cfg.QueueMax),
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

// Deliver posts one inbound event to the hub. Safe to call from any
// goroutine; events from a single source are processed in delivery order.
func (h *Hub) Deliver(ev Event) {
	select {
	case h.inbox <- ev:
	case <-h.done:
	}
}

// Run consumes events until ctx is cancelled, then tears the session down.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.teardown()
			return
		case ev := <-h.inbox:
			h.handle(ctx, ev)
			if ev.Kind == Teardown {
				return
			}
		}
	}
}

func (h *Hub) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case ClientOpened:
		h.acceptClient(ctx, ev.Conn)
	case ClientMessage:
		h.onClientMessage(ctx, ev.Data)
	case ClientClosed:
		h.onClientClosed(ev.Conn)
	case ModelOpened:
		h.onModelOpened(ctx, ev.Conn)
	case ModelMessage:
		h.onModelMessage(ctx, ev.Data)
	case ModelClosed:
		h.onModelClosed(ev.Conn)
	case ModelDialFailed:
		h.onModelDialFailed(ctx, ev.Err)
	case FunctionResult:
		h.sendUpstream(ctx, ev.Data)
		h.sendUpstream(ctx, []byte(`{"type":"response.create"}`))
	case Teardown:
		h.teardown()
	}
}

// acceptClient replaces any existing client connection; the previous one
// is closed first so at most one is ever live.
func (h *Hub) acceptClient(ctx context.Context, c Conn) {
	if h.client != nil {
		_ = h.client.Close("replaced by newer connection")
		metricClientReplaced.Inc()
		h.eventLog.Append(h.sessionID, "client_replaced", nil)
	}
	h.client = c
	h.eventLog.Append(h.sessionID, "client_connected", nil)
	h.connectModel(ctx)
}

func (h *Hub) onClientMessage(ctx context.Context, data []byte) {
	metricClientMessages.Inc()
	env, err := protocol.Parse(data)
	if err != nil {
		metricMalformed.Inc()
		log.Printf("[relay] dropping malformed client message: %v", err)
		return
	}

	// Bookkeeping happens regardless of forwarding success.
	switch env.Type {
	case protocol.TypeSessionUpdate:
		h.sess.SavedConfig = env.Session
	case protocol.TypeInputAudioAppend:
		if env.TsMs > 0 {
			h.sess.LatestMediaMs = env.TsMs
		} else {
			h.sess.LatestMediaMs = h.now()
		}
	}

	h.sendUpstream(ctx, env.Raw)
}

func (h *Hub) onClientClosed(c Conn) {
	if c != nil && c != h.client {
		return // a replaced connection finishing its read loop
	}
	h.client = nil
	h.eventLog.Append(h.sessionID, "client_disconnected", nil)
	if h.model == nil {
		h.sess.Reset()
	}
}

func (h *Hub) onModelOpened(ctx context.Context, c Conn) {
	h.model = c
	h.modelState = stateOpen
	metricModelConnects.Inc()
	h.eventLog.Append(h.sessionID, "model_connected", nil)

	// Apply saved (or default) configuration before anything queued.
	cfg := h.sess.SavedConfig
	if cfg == nil {
		cfg = h.cfg.DefaultSessionConfig
	}
	if cfg != nil {
		update, _ := json.Marshal(map[string]json.RawMessage{
			"type":    json.RawMessage(`"session.update"`),
			"session": cfg,
		})
		if err := c.Send(ctx, update); err != nil {
			log.Printf("[relay] send session config: %v", err)
		}
	}
	for _, msg := range h.pending.Drain() {
		if err := c.Send(ctx, msg); err != nil {
			log.Printf("[relay] flush queued message: %v", err)
		}
	}
}

func (h *Hub) onModelMessage(ctx context.Context, data []byte) {
	metricModelMessages.Inc()
	env, err := protocol.Parse(data)
	if err != nil {
		metricMalformed.Inc()
		log.Printf("[relay] dropping malformed model message: %v", err)
		return
	}

	// speech_started stays hub-internal; the client reacts to the
	// conversation.item.truncated confirmation instead.
	if env.Type != protocol.TypeSpeechStarted {
		h.sendDownstream(ctx, env.Raw)
	}

	switch env.Type {
	case protocol.TypeSpeechStarted:
		h.truncate(ctx)
	case protocol.TypeResponseAudioDelta:
		if h.sess.Utterance == nil {
			h.sess.Utterance = &Utterance{ItemID: env.ItemID, StartMs: h.sess.LatestMediaMs}
			h.eventLog.Append(h.sessionID, "response_started", map[string]any{"item_id": env.ItemID})
		} else if env.ItemID != "" {
			h.sess.Utterance.ItemID = env.ItemID
		}
	case protocol.TypeOutputItemDone:
		if env.Item != nil && env.Item.Type == "function_call" {
			h.dispatchFunction(ctx, env.Item)
		}
	}
}

func (h *Hub) onModelClosed(c Conn) {
	if c != nil && h.model != nil && c != h.model {
		return
	}
	h.model = nil
	h.modelState = stateDisconnected
	h.pending.Clear()
	h.sess.ClearUtterance()
	h.eventLog.Append(h.sessionID, "model_disconnected", nil)
	if h.client == nil {
		h.sess.Reset()
	}
}

func (h *Hub) onModelDialFailed(ctx context.Context, err error) {
	h.modelState = stateDisconnected
	metricModelDialFailures.Inc()
	log.Printf("[relay] model dial failed: %v", err)
	h.eventLog.Append(h.sessionID, "model_dial_failed", map[string]any{"error": errString(err)})
	h.sendDownstream(ctx, protocol.MustJSON(protocol.NewError("upstream unavailable")))
}

// truncate implements the barge-in protocol: compute how much of the
// in-flight utterance was heard, tell the model to forget the rest, and
// return to idle. Idempotent when no utterance is in flight.
func (h *Hub) truncate(ctx context.Context) {
	u := h.sess.Utterance
	if u == nil {
		return
	}
	elapsed := ElapsedMs(h.sess.LatestMediaMs, u.StartMs)
	h.sendUpstream(ctx, protocol.MustJSON(protocol.NewTruncate(u.ItemID, elapsed)))
	metricTruncations.Inc()
	metricTruncateElapsed.Observe(float64(elapsed))
	h.eventLog.Append(h.sessionID, "truncation_sent", map[string]any{
		"item_id":      u.ItemID,
		"audio_end_ms": elapsed,
	})
	h.sess.ClearUtterance()
}

// dispatchFunction runs the handler off the event loop and feeds the
// result back in as a FunctionResult event, keeping Session mutation
// serialized.
func (h *Hub) dispatchFunction(ctx context.Context, item *protocol.Item) {
	if h.functions == nil {
		return
	}
	name, callID, args := item.Name, item.CallID, item.Arguments
	go func() {
		output, err := h.functions.Invoke(ctx, name, args)
		if err != nil {
			metricFunctionCalls.WithLabelValues("error").Inc()
			output = string(protocol.MustJSON(map[string]string{"error": err.Error()}))
		} else {
			metricFunctionCalls.WithLabelValues("ok").Inc()
		}
		out := protocol.NewFunctionOutput("item_"+uuid.NewString()[:8], callID, output)
		h.Deliver(Event{Kind: FunctionResult, Data: protocol.MustJSON(out)})
	}()
}

// connectModel is idempotent: a no-op while a connection is open or a
// dial is pending. The dial itself runs off the loop so message handling
// never blocks on the remote handshake.
func (h *Hub) connectModel(ctx context.Context) {
	if h.modelState != stateDisconnected || h.dialer == nil {
		return
	}
	h.modelState = stateConnecting
	go func() {
		conn, err := h.dialer.Dial(ctx, h.Deliver)
		if err != nil {
			h.Deliver(Event{Kind: ModelDialFailed, Err: err})
			return
		}
		h.Deliver(Event{Kind: ModelOpened, Conn: conn})
	}()
}

// sendUpstream forwards to the model when open, otherwise queues.
func (h *Hub) sendUpstream(ctx context.Context, data []byte) {
	if h.modelState == stateOpen && h.model != nil {
		if err := h.model.Send(ctx, data); err != nil {
			log.Printf("[relay] upstream send: %v", err)
		}
		return
	}
	if h.pending.Push(data) {
		metricQueueDropped.Inc()
		h.eventLog.Append(h.sessionID, "queue_overflow", nil)
	}
}

// sendDownstream is fire-and-forget: a failed client send is logged and
// the client's own reconnect is its recovery path.
func (h *Hub) sendDownstream(ctx context.Context, data []byte) {
	if h.client == nil {
		log.Printf("[relay] no client connection; dropping downstream message")
		return
	}
	if err := h.client.Send(ctx, data); err != nil {
		log.Printf("[relay] downstream send: %v", err)
	}
}

func (h *Hub) teardown() {
	if h.client != nil {
		_ = h.client.Close("session ended")
		h.client = nil
	}
	if h.model != nil {
		_ = h.model.Close("session ended")
		h.model = nil
	}
	h.modelState = stateDisconnected
	h.pending.Clear()
	h.sess.Reset()
	h.eventLog.Append(h.sessionID, "session_teardown", nil)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
