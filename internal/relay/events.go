package relay

import "context"

// EventKind tags the inbound events consumed by the Hub's single event
// loop. Serializing them through one channel is what makes Session
// mutation race-free without locks.
type EventKind int

const (
	ClientOpened EventKind = iota
	ClientMessage
	ClientClosed
	ModelOpened
	ModelMessage
	ModelClosed
	ModelDialFailed
	FunctionResult
	Teardown
)

var eventKindNames = map[EventKind]string{
	ClientOpened:    "client_opened",
	ClientMessage:   "client_message",
	ClientClosed:    "client_closed",
	ModelOpened:     "model_opened",
	ModelMessage:    "model_message",
	ModelClosed:     "model_closed",
	ModelDialFailed: "model_dial_failed",
	FunctionResult:  "function_result",
	Teardown:        "teardown",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is one inbound occurrence. Conn is set for *Opened events, Data
// for *Message and FunctionResult, Err for ModelDialFailed and closes.
type Event struct {
	Kind EventKind
	Conn Conn
	Data []byte
	Err  error
}

// Conn is the minimal send side of a websocket, implemented by the client
// and upstream transports and by in-memory fakes in tests.
type Conn interface {
	Send(ctx context.Context, data []byte) error
	Close(reason string) error
}

// ModelDialer establishes the upstream model connection. Implementations
// must run their own read pump, posting ModelMessage and finally
// ModelClosed through deliver.
type ModelDialer interface {
	Dial(ctx context.Context, deliver func(Event)) (Conn, error)
}
