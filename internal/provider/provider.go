// Package provider abstracts the external completion service.
package provider

import (
	"context"
	"fmt"
	"sync"
)

// ChatMessage is one {role, content} pair of the request payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions is the sampling options map sent with every request. Field
// names follow the service's native wire format.
type ChatOptions struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	NumPredict       int     `json:"num_predict"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

// ChatRequest is a complete completion request.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Options  ChatOptions   `json:"options"`
	Stream   bool          `json:"stream"`
}

// Provider is a completion backend. Implementations perform a single call
// per ChatCompletion invocation; retry policy belongs to the caller.
type Provider interface {
	// ID returns the provider identifier.
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// Ping checks that the service is reachable.
	Ping(ctx context.Context) error

	// ChatCompletion performs one completion call and returns the full text
	// of the assistant's reply.
	ChatCompletion(ctx context.Context, req *ChatRequest) (string, error)
}

// Registry holds the configured providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider, replacing any previous one with the same ID.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get returns the provider with the given ID.
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider not registered: %s", id)
	}
	return p, nil
}

// IDs returns the registered provider IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
