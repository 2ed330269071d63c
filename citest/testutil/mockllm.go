// Package testutil provides the in-process harness for API-level tests.
package testutil

import (
	"context"
	"sync"

	"github.com/svgpro/svgpro/internal/provider"
)

// DefaultMockResponse is the canned reply used when no script is queued.
const DefaultMockResponse = "A circle, as requested.\n```xml\n<svg xmlns=\"http://www.w3.org/2000/svg\"><circle cx=\"50\" cy=\"50\" r=\"40\"/></svg>\n```"

type mockResult struct {
	text string
	err  error
}

// MockLLM is a scriptable completion provider. Queued replies are consumed
// in order; an empty queue yields DefaultMockResponse.
type MockLLM struct {
	mu      sync.Mutex
	queue   []mockResult
	calls   int
	lastReq *provider.ChatRequest
}

// NewMockLLM creates an empty-scripted mock provider.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) ID() string   { return "mockllm" }
func (m *MockLLM) Name() string { return "Mock LLM" }

func (m *MockLLM) Ping(ctx context.Context) error { return nil }

// Enqueue queues a scripted reply.
func (m *MockLLM) Enqueue(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResult{text: text})
}

// EnqueueError queues a scripted transport failure.
func (m *MockLLM) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResult{err: err})
}

// Calls returns how many completion calls were made.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent completion request.
func (m *MockLLM) LastRequest() *provider.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

func (m *MockLLM) ChatCompletion(ctx context.Context, req *provider.ChatRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastReq = req

	if len(m.queue) == 0 {
		return DefaultMockResponse, nil
	}
	res := m.queue[0]
	m.queue = m.queue[1:]
	return res.text, res.err
}
