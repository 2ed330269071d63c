package chat

import (
	"strings"

	"github.com/svgpro/svgpro/internal/provider"
)

// ModelConfig holds the sampling parameters sent with every completion
// request.
type ModelConfig struct {
	Model            string
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
	ContextWindow    int
}

// DefaultModelConfig returns the stock model configuration.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:            "qwen3:8b",
		Temperature:      0.7,
		TopP:             0.95,
		MaxTokens:        20000,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
		ContextWindow:    10,
	}
}

// DefaultSystemPrompt is the strict markup-generation directive installed on
// new sessions.
var DefaultSystemPrompt = strings.ReplaceAll(`You are a specialized SVG code generation assistant.
Your sole purpose is to provide valid, complete SVG code based on user requests.

**CRITICAL RULES:**
1.  **SVG ONLY:** Your response MUST contain a valid SVG code block.
2.  **MANDATORY FORMAT:** The response format is NOT optional. Any deviation will result in failure.
    -   Explanations or text MUST come BEFORE the code block.
    -   The code block MUST start with ~~~xml or ~~~svg.
    -   The final part of your response MUST be the closing ~~~ of the code block.
3.  **NO TEXT AFTER:** There must be absolutely NO text, explanation, or any characters after the final ~~~ that closes the code block.

**EXAMPLE OF A PERFECT RESPONSE:**
Here is the SVG for a simple blue circle.
~~~xml
<svg width="100" height="100" xmlns="http://www.w3.org/2000/svg">
  <circle cx="50" cy="50" r="40" stroke="black" stroke-width="3" fill="blue" />
</svg>
~~~
Failure to adhere to this format will render your output useless. Do not fail.`, "~~~", "```")

// Agent shapes completion requests from a session transcript. It owns the
// session and the model configuration but performs no network calls itself.
type Agent struct {
	session *Session
	config  ModelConfig
}

// NewAgent wraps a session with the given model configuration. A zero
// ContextWindow falls back to the default.
func NewAgent(session *Session, cfg ModelConfig) *Agent {
	if cfg.ContextWindow == 0 {
		cfg.ContextWindow = DefaultModelConfig().ContextWindow
	}
	return &Agent{session: session, config: cfg}
}

// Session returns the agent's session.
func (a *Agent) Session() *Session {
	return a.session
}

// Config returns the agent's model configuration.
func (a *Agent) Config() ModelConfig {
	return a.config
}

// BuildRequest builds a completion request from the current context window.
// The caller appends the user (or steering) message before calling.
func (a *Agent) BuildRequest() *provider.ChatRequest {
	window := a.session.ContextWindow(a.config.ContextWindow)
	msgs := make([]provider.ChatMessage, 0, len(window))
	for _, m := range window {
		msgs = append(msgs, provider.ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return &provider.ChatRequest{
		Model:    a.config.Model,
		Messages: msgs,
		Options: provider.ChatOptions{
			Temperature:      a.config.Temperature,
			TopP:             a.config.TopP,
			NumPredict:       a.config.MaxTokens,
			FrequencyPenalty: a.config.FrequencyPenalty,
			PresencePenalty:  a.config.PresencePenalty,
		},
	}
}
