// Package insight turns analytics snapshots into written advice through
// an LLM provider.
package insight

import "errors"

// NoReply is returned in place of an empty model answer.
const NoReply = "(The AI model returned no reply.)"

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrEmptyPrompt   = errors.New("prompt is required")
	ErrNoMessages    = errors.New("messages are required")
)

// Insight is the structured answer to a question about a snapshot.
type Insight struct {
	Summary     string   `json:"summary"`
	Highlight   string   `json:"highlight"`
	Suggestions []string `json:"suggestions"`

	// Text is the three parts joined for display.
	Text string `json:"text"`
}

// Chart names a practice chart the student asked to have explained.
type Chart string

const (
	ChartDailyOverview   Chart = "daily_overview"
	ChartIndicatorEffect Chart = "indicator_effect"
	ChartLearningProcess Chart = "learning_process"
	ChartIndicatorGap    Chart = "indicator_gap"
)

var chartLabels = map[Chart]string{
	ChartDailyOverview:   "Daily practice overview (time spent and accuracy over days)",
	ChartIndicatorEffect: "Indicator effort and results (which indicators were practised most and how they went)",
	ChartLearningProcess: "Learning process (speed versus accuracy of each attempt)",
	ChartIndicatorGap:    "Indicator gap analysis (comparison with the class average)",
}

// Label returns the description sent to the model. Unknown charts are
// passed through by name.
func (c Chart) Label() string {
	if l, ok := chartLabels[c]; ok {
		return l
	}
	return string(c)
}

// PracStats is the practice summary quoted in the explain prompt.
type PracStats struct {
	AvgScore        float64 `json:"avg_score"`
	AvgSpeedSec     float64 `json:"avg_speed_sec"`
	TotalCount      int     `json:"total_count"`
	BelowClassCount int     `json:"below_class_count"`
	ReachedGoal     bool    `json:"reached_goal"`
}

// PracPromptParams describes the practice view being explained. An empty
// Date means the whole period; "all" or empty Subject and Indicator mean
// no filter.
type PracPromptParams struct {
	Date      string    `json:"date"`
	Subject   string    `json:"subject"`
	Indicator string    `json:"indicator"`
	Charts    []Chart   `json:"charts"`
	Stats     PracStats `json:"stats"`
}

// ChatMessage is one turn of a chat passthrough request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
