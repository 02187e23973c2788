package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/lodboard/internal/llm"
)

// Service answers questions about analytics snapshots and forwards raw
// prompts to the provider.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// NewService creates an insight service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// ModelID reports the model behind the service.
func (s *Service) ModelID() string {
	return s.provider.ModelID()
}

type insightOutput struct {
	Summary     string   `json:"summary"`
	Highlight   string   `json:"highlight"`
	Suggestions []string `json:"suggestions"`
}

// Ask answers a question using only the supplied snapshot.
func (s *Service) Ask(ctx context.Context, question string, snapshot json.RawMessage) (*Insight, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeInsight)

	req := llm.Request{
		System: questionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: BuildQuestionPrompt(question, snapshot)},
		},
		Schema:      InsightSchema,
		MaxTokens:   s.cfg.AskMaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("insight generation: %w", err)
	}

	var out insightOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse insight response: %w", err)
	}

	in := &Insight{
		Summary:     strings.TrimSpace(out.Summary),
		Highlight:   strings.TrimSpace(out.Highlight),
		Suggestions: out.Suggestions,
	}
	in.Text = formatInsight(in)
	return in, nil
}

func formatInsight(in *Insight) string {
	var parts []string
	if in.Summary != "" {
		parts = append(parts, in.Summary)
	}
	if in.Highlight != "" {
		parts = append(parts, "Most notable: "+in.Highlight)
	}
	if len(in.Suggestions) > 0 {
		var b strings.Builder
		b.WriteString("Suggestions:")
		for i, sg := range in.Suggestions {
			fmt.Fprintf(&b, "\n%d. %s", i+1, strings.TrimSpace(sg))
		}
		parts = append(parts, b.String())
	}
	if len(parts) == 0 {
		return NoReply
	}
	return strings.Join(parts, "\n\n")
}

// Explain writes the bullet summary of a practice view.
func (s *Service) Explain(ctx context.Context, p PracPromptParams) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeExplain)
	return s.text(ctx, llm.Request{
		System:      pracSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: BuildPracPrompt(p)}},
		MaxTokens:   s.cfg.ExplainMaxTokens,
		Temperature: s.cfg.Temperature,
	})
}

// Complete forwards a single prompt.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeComplete)
	return s.text(ctx, llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
}

// Chat forwards a chat history as one flattened prompt.
func (s *Service) Chat(ctx context.Context, msgs []ChatMessage) (string, error) {
	if len(msgs) == 0 {
		return "", ErrNoMessages
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeChat)
	return s.text(ctx, llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: BuildChatPrompt(msgs)}},
	})
}

func (s *Service) text(ctx context.Context, req llm.Request) (string, error) {
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if t := strings.TrimSpace(resp.Text()); t != "" {
		return t, nil
	}
	return NoReply, nil
}
