package functions

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
)

func TestInvoke(t *testing.T) {
	r := NewRegistry()
	r.Register("echo", func(_ context.Context, args json.RawMessage) (string, error) {
		var in struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return "", err
		}
		return in.Text, nil
	})

	out, err := r.Invoke(context.Background(), "echo", `{"text":"hi"}`)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "hi" {
		t.Fatalf("want hi, got %q", out)
	}
}

func TestInvokeUnknownName(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Invoke(context.Background(), "ghost", "{}"); err == nil {
		t.Fatal("want error for unregistered function")
	}
}

func TestInvokeInvalidArguments(t *testing.T) {
	r := NewRegistry()
	r.Register("noop", func(context.Context, json.RawMessage) (string, error) { return "", nil })
	_, err := r.Invoke(context.Background(), "noop", `{not json`)
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("want invalid-arguments error, got %v", err)
	}
}

func TestInvokeWrapsHandlerError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	r.Register("fail", func(context.Context, json.RawMessage) (string, error) { return "", boom })
	_, err := r.Invoke(context.Background(), "fail", "{}")
	if !errors.Is(err, boom) {
		t.Fatalf("handler error not wrapped: %v", err)
	}
}

func TestNames(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func(context.Context, json.RawMessage) (string, error) { return "", nil })
	r.Register("a", func(context.Context, json.RawMessage) (string, error) { return "", nil })
	names := r.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names %v", names)
	}
}
