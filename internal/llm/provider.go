// Package llm talks to generative-AI providers. Every provider accepts the
// same Request and returns the same Response so callers can swap Gemini,
// OpenAI, OpenRouter and Anthropic through configuration.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Generation defaults used by the insight proxy.
const (
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.7
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends a prompt to the LLM. When req.Schema is set the
	// provider uses its native structured output mechanism and Content is
	// validated JSON; otherwise Content holds the raw reply text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation history. Question and prompt calls send
	// one user message; chat passthrough sends the whole history.
	Messages []Message

	// Schema is the JSON Schema the response must conform to, or nil for
	// free text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps the role names used by chat clients onto Role. Gemini
// style "model" is treated as the assistant; everything else is the user.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assistant", "model":
		return RoleAssistant
	default:
		return RoleUser
	}
}

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema. Kebab-case, e.g. "learning-insight".
	Name string

	// Description is sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns the reply as plain text. Content that is a JSON string
// literal is unquoted; anything else is returned verbatim.
func (r *Response) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
