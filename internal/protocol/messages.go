package protocol

import (
	"encoding/json"
	"errors"
)

// Message type strings exchanged with the client and the model endpoint.
// The hub forwards most messages verbatim; these are the kinds it also
// inspects for its own bookkeeping.
const (
	TypeSessionUpdate      = "session.update"
	TypeInputAudioAppend   = "input_audio_buffer.append"
	TypeSpeechStarted      = "input_audio_buffer.speech_started"
	TypeResponseAudioDelta = "response.audio.delta"
	TypeItemTruncate       = "conversation.item.truncate"
	TypeItemTruncated      = "conversation.item.truncated"
	TypeOutputItemDone     = "response.output_item.done"
	TypeItemCreate         = "conversation.item.create"
	TypeResponseCreate     = "response.create"
	TypeError              = "error"
)

var ErrMalformedMessage = errors.New("malformed message")

// Envelope carries the (typed) fields the hub cares about plus the raw
// bytes so forwarding never re-serializes and never reorders unknown fields.
type Envelope struct {
	Type string `json:"type"`

	// session.update
	Session json.RawMessage `json:"session,omitempty"`

	// input_audio_buffer.append
	Audio string `json:"audio,omitempty"`
	TsMs  int64  `json:"ts_ms,omitempty"`

	// response.audio.delta
	ItemID string `json:"item_id,omitempty"`
	Delta  string `json:"delta,omitempty"`

	// response.output_item.done
	Item *Item `json:"item,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Item is the subset of a conversation item the hub inspects for
// function-call dispatch.
type Item struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type,omitempty"`
	Name      string `json:"name,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Parse decodes a wire message, keeping the original bytes for forwarding.
func Parse(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedMessage
	}
	if env.Type == "" {
		return nil, ErrMalformedMessage
	}
	env.Raw = data
	return &env, nil
}

// Truncate is the upstream conversation.item.truncate request.
type Truncate struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int64  `json:"audio_end_ms"`
}

// NewTruncate builds the truncate request for an interrupted utterance.
func NewTruncate(itemID string, audioEndMs int64) Truncate {
	return Truncate{Type: TypeItemTruncate, ItemID: itemID, ContentIndex: 0, AudioEndMs: audioEndMs}
}

// FunctionOutput is the conversation.item.create payload carrying a
// function call result back to the model.
type FunctionOutput struct {
	Type string             `json:"type"`
	Item FunctionOutputItem `json:"item"`
}

type FunctionOutputItem struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

func NewFunctionOutput(itemID, callID, output string) FunctionOutput {
	return FunctionOutput{
		Type: TypeItemCreate,
		Item: FunctionOutputItem{ID: itemID, Type: "function_call_output", CallID: callID, Output: output},
	}
}

// ErrorMessage is sent downstream so the client sees failures explicitly
// instead of a silently closed connection.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewError(msg string) ErrorMessage { return ErrorMessage{Type: TypeError, Error: msg} }

// MustJSON marshals v, which is always one of the package's own types.
func MustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
