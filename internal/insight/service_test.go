package insight

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lodboard/internal/llm"
)

func validInsightJSON() json.RawMessage {
	return json.RawMessage(`{
		"summary": "Accuracy is steady at 72% across 14 practices.",
		"highlight": "Indicator 3 is 15 points below the class average.",
		"suggestions": ["Redo the wrong items of indicator 3", "Slow down on long items"]
	}`)
}

func TestAsk(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validInsightJSON()})
	svc := NewService(mock, DefaultConfig())

	snapshot := json.RawMessage(`{"avgScore":72,"belowClassCount":1}`)
	in, err := svc.Ask(context.Background(), "How am I doing?", snapshot)
	require.NoError(t, err)

	assert.Equal(t, "Indicator 3 is 15 points below the class average.", in.Highlight)
	assert.Len(t, in.Suggestions, 2)
	assert.Contains(t, in.Text, "Most notable: Indicator 3")
	assert.Contains(t, in.Text, "\n1. Redo the wrong items of indicator 3\n2. Slow down")

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, InsightSchema, req.Schema)
	assert.Equal(t, questionSystemPrompt, req.System)
	assert.Contains(t, req.Messages[0].Content, `"avgScore": 72`)
	assert.Contains(t, req.Messages[0].Content, "How am I doing?")
}

func TestAsk_EmptyQuestion(t *testing.T) {
	mock := llm.NewMockProvider()
	svc := NewService(mock, DefaultConfig())

	_, err := svc.Ask(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Equal(t, 0, mock.CallCount())
}

func TestAsk_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}})
	svc := NewService(mock, DefaultConfig())

	_, err := svc.Ask(context.Background(), "q", nil)
	var rl *llm.ErrRateLimit
	assert.True(t, errors.As(err, &rl))
}

func TestAsk_EmptyAnswerUsesPlaceholder(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"summary":"","highlight":"","suggestions":[]}`)})
	svc := NewService(mock, DefaultConfig())

	in, err := svc.Ask(context.Background(), "q", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, NoReply, in.Text)
}

func TestExplain(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("### Overall learning status\n- Steady")})
	svc := NewService(mock, DefaultConfig())

	text, err := svc.Explain(context.Background(), PracPromptParams{
		Subject: "Math",
		Charts:  []Chart{ChartIndicatorGap},
		Stats:   PracStats{AvgScore: 72, AvgSpeedSec: 6.5, TotalCount: 14},
	})
	require.NoError(t, err)
	assert.Equal(t, "### Overall learning status\n- Steady", text)
	assert.Equal(t, 1500, mock.Calls[0].MaxTokens)
	assert.Nil(t, mock.Calls[0].Schema)
}

func TestComplete(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`hello back`)},
		llm.MockResponse{Content: json.RawMessage(``)},
	)
	svc := NewService(mock, DefaultConfig())

	text, err := svc.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello back", text)

	text, err = svc.Complete(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, NoReply, text)

	_, err = svc.Complete(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestChat(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`sure`)})
	svc := NewService(mock, DefaultConfig())

	reply, err := svc.Chat(context.Background(), []ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "summarise my week"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sure", reply)
	assert.Equal(t, "system: be brief\nuser: summarise my week", mock.Calls[0].Messages[0].Content)

	_, err = svc.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestBuildPracPrompt(t *testing.T) {
	tests := []struct {
		name   string
		params PracPromptParams
		want   []string
	}{
		{
			name:   "unfiltered",
			params: PracPromptParams{Subject: "all", Indicator: "all"},
			want: []string{
				"Period: whole period",
				"Subject: all subjects",
				"Indicator: multiple indicators",
				"- none selected",
				"Learning goal reached: no",
			},
		},
		{
			name: "filtered with charts",
			params: PracPromptParams{
				Date:      "2024-03-01",
				Subject:   "Math",
				Indicator: "Fractions",
				Charts:    []Chart{ChartDailyOverview, ChartIndicatorGap, "custom"},
				Stats:     PracStats{AvgScore: 85.5, AvgSpeedSec: 4.2, TotalCount: 9, BelowClassCount: 2, ReachedGoal: true},
			},
			want: []string{
				"Period: 2024-03-01",
				"Subject: Math",
				"Indicator: Fractions",
				"Average accuracy: 85.5%",
				"Average answer time: 4.2 seconds",
				"Practice count: 9",
				"Indicators below class average: 2",
				"Learning goal reached: yes",
				"- " + ChartDailyOverview.Label(),
				"- " + ChartIndicatorGap.Label(),
				"- custom",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPracPrompt(tt.params)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("prompt missing %q", w)
				}
			}
		})
	}
}

func TestBuildQuestionPrompt_InvalidSnapshotPassedThrough(t *testing.T) {
	got := BuildQuestionPrompt("q", json.RawMessage(`not json`))
	assert.Contains(t, got, "not json")

	got = BuildQuestionPrompt("q", nil)
	assert.Contains(t, got, "null")
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("｜Overall\n• Steady\n◦ accuracy is 72%\n\n<script>x</script>")
	require.NoError(t, err)

	assert.Contains(t, html, "<h3>Overall</h3>")
	assert.Contains(t, html, "<li>Steady")
	assert.Contains(t, html, "<li>accuracy is 72%</li>")
	assert.NotContains(t, html, "<script>")
}
