package server

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/lodboard/internal/events"
	"github.com/abhisek/lodboard/internal/insight"
)

// proxyRequest accepts the three request shapes the dashboard has used:
// a question about an analytics snapshot, a bare prompt, and a chat history.
type proxyRequest struct {
	Question string                `json:"question"`
	Context  json.RawMessage       `json:"context"`
	Prompt   string                `json:"prompt"`
	Messages []insight.ChatMessage `json:"messages"`
}

func (r proxyRequest) kind() string {
	switch {
	case strings.TrimSpace(r.Question) != "":
		return "question"
	case strings.TrimSpace(r.Prompt) != "":
		return "prompt"
	case len(r.Messages) > 0:
		return "chat"
	}
	return ""
}

func (s *Server) proxy(c *fiber.Ctx) error {
	var req proxyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	kind := req.kind()
	if kind == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing prompt")
	}
	if s.deps.Insight == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no LLM provider configured")
	}

	ctx := c.UserContext()
	var (
		body fiber.Map
		err  error
	)
	switch kind {
	case "question":
		var in *insight.Insight
		if in, err = s.deps.Insight.Ask(ctx, req.Question, req.Context); err == nil {
			body = fiber.Map{"text": in.Text, "insight": in}
		}
	case "prompt":
		var text string
		if text, err = s.deps.Insight.Complete(ctx, req.Prompt); err == nil {
			body = fiber.Map{"text": text}
		}
	case "chat":
		var reply string
		if reply, err = s.deps.Insight.Chat(ctx, req.Messages); err == nil {
			body = fiber.Map{"reply": reply}
		}
	}

	s.metrics.observeInsight(kind, err)
	_ = s.deps.Publisher.Publish(ctx, events.Event{
		Type:    events.TypeInsightRequested,
		Payload: map[string]any{"kind": kind, "ok": err == nil, "client": clientAddr(c)},
	})

	if err != nil {
		requestLogger(s.logger, c).Error().Err(err).Str("kind", kind).Msg("llm request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "Gemini API error",
			"detail": err.Error(),
		})
	}
	return c.JSON(body)
}
