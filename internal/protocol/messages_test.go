package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestParseKeepsRawBytes(t *testing.T) {
	data := []byte(`{"type":"response.audio.delta","item_id":"a1","delta":"QUJD","event_id":"evt_9"}`)
	env, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Type != TypeResponseAudioDelta || env.ItemID != "a1" || env.Delta != "QUJD" {
		t.Fatalf("fields not decoded: %+v", env)
	}
	// Unknown fields like event_id must survive forwarding untouched.
	if !bytes.Equal(env.Raw, data) {
		t.Fatal("raw bytes were rewritten")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, data := range [][]byte{
		[]byte(`{`),
		[]byte(`{"item_id":"a1"}`), // no type
		[]byte(``),
		[]byte(`42`),
	} {
		if _, err := Parse(data); !errors.Is(err, ErrMalformedMessage) {
			t.Errorf("%q: want ErrMalformedMessage, got %v", data, err)
		}
	}
}

func TestParseSessionUpdate(t *testing.T) {
	env, err := Parse([]byte(`{"type":"session.update","session":{"voice":"verse","temperature":0.7}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var sess map[string]any
	if err := json.Unmarshal(env.Session, &sess); err != nil {
		t.Fatalf("session payload: %v", err)
	}
	if sess["voice"] != "verse" {
		t.Fatalf("session payload lost: %v", sess)
	}
}

func TestNewTruncateShape(t *testing.T) {
	b := MustJSON(NewTruncate("a1", 800))
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != TypeItemTruncate {
		t.Fatalf("type %v", m["type"])
	}
	if m["item_id"] != "a1" || m["audio_end_ms"].(float64) != 800 {
		t.Fatalf("payload %v", m)
	}
	// content_index is always present, even at its zero value.
	if _, ok := m["content_index"]; !ok {
		t.Fatal("content_index omitted")
	}
}

func TestNewFunctionOutputShape(t *testing.T) {
	b := MustJSON(NewFunctionOutput("item_1", "call_7", `{"ok":true}`))
	var m struct {
		Type string `json:"type"`
		Item struct {
			Type   string `json:"type"`
			CallID string `json:"call_id"`
			Output string `json:"output"`
		} `json:"item"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Type != TypeItemCreate || m.Item.Type != "function_call_output" {
		t.Fatalf("wrong shape: %+v", m)
	}
	if m.Item.CallID != "call_7" || m.Item.Output != `{"ok":true}` {
		t.Fatalf("wrong payload: %+v", m)
	}
}

func TestParseFunctionCallItem(t *testing.T) {
	data := []byte(`{"type":"response.output_item.done","item":{"id":"i1","type":"function_call","name":"weather","call_id":"c1","arguments":"{}"}}`)
	env, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Item == nil || env.Item.Type != "function_call" || env.Item.Name != "weather" {
		t.Fatalf("item not decoded: %+v", env.Item)
	}
}
