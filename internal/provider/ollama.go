package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaBaseURL is where a local Ollama daemon listens.
const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) {
		p.client = client
	}
}

// OllamaProvider talks to an Ollama daemon over its native chat API.
type OllamaProvider struct {
	baseURL string
	client  *http.Client
}

// NewOllama creates a provider for the daemon at baseURL. An empty baseURL
// falls back to the default local address.
func NewOllama(baseURL string, opts ...OllamaOption) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			// Local model inference can be slow; the request context is the
			// real deadline.
			Timeout: 10 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OllamaProvider) ID() string {
	return "ollama"
}

func (p *OllamaProvider) Name() string {
	return "Ollama"
}

// Ping checks that the daemon answers its version endpoint.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/version", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s answered %s", p.baseURL, resp.Status)
	}
	return nil
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

type ollamaErrorResponse struct {
	Error string `json:"error"`
}

// ChatCompletion performs one non-streaming chat call and returns the
// assistant message content.
func (p *OllamaProvider) ChatCompletion(ctx context.Context, req *ChatRequest) (string, error) {
	payload := *req
	payload.Stream = false

	body, err := json.Marshal(&payload)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama chat call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("ollama: %s", apiErr.Error)
		}
		return "", fmt.Errorf("ollama answered %s", resp.Status)
	}

	var chat ollamaChatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return chat.Message.Content, nil
}
