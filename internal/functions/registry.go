// Package functions dispatches the model's function-call items to local
// handlers. A failing handler is reported back to the model as a
// structured error payload, never as a connection fault.
package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Handler executes one named function. args is the raw JSON argument
// object produced by the model.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Invoke runs the named handler. Unknown names and invalid argument JSON
// come back as errors; the caller wraps them into the function output
// payload so the conversation continues.
func (r *Registry) Invoke(ctx context.Context, name, argsJSON string) (string, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no handler registered for function %q", name)
	}
	var args json.RawMessage
	if argsJSON != "" {
		if !json.Valid([]byte(argsJSON)) {
			return "", fmt.Errorf("invalid JSON arguments for function %q", name)
		}
		args = json.RawMessage(argsJSON)
	}
	log.Printf("[functions] invoking %s", name)
	out, err := h(ctx, args)
	if err != nil {
		return "", fmt.Errorf("function %q failed: %w", name, err)
	}
	return out, nil
}

// Names lists registered functions, for the session tools advertisement.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		out = append(out, n)
	}
	return out
}
