package insight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const questionSystemPrompt = `You are a learning analytics assistant. You may only answer from the learning analytics JSON supplied by the user. Do not assume any information that is not in it.`

// BuildQuestionPrompt builds the user message for a question about a
// snapshot. The snapshot is pretty-printed when it is valid JSON.
func BuildQuestionPrompt(question string, snapshot json.RawMessage) string {
	var b strings.Builder

	b.WriteString("Learning analytics data:\n")
	b.WriteString(prettyJSON(snapshot))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(strings.TrimSpace(question))

	b.WriteString(`

Please provide:
1. A description explaining the current learning situation
2. The single most notable learning phenomenon
3. 1-2 concrete, actionable learning suggestions`)

	return b.String()
}

func prettyJSON(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

const pracSystemPrompt = `You are a study assistant explaining a student's own learning analytics to them. Be clear, gentle and specific, and avoid technical jargon.`

// BuildPracPrompt builds the user message that asks for a bullet summary
// of the practice page.
func BuildPracPrompt(p PracPromptParams) string {
	var b strings.Builder

	period := p.Date
	if period == "" {
		period = "whole period"
	}
	subject := p.Subject
	if subject == "" || subject == "all" {
		subject = "all subjects"
	}
	indicator := p.Indicator
	if indicator == "" || indicator == "all" {
		indicator = "multiple indicators"
	}

	b.WriteString("## Learning context\n")
	fmt.Fprintf(&b, "Period: %s\n", period)
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Indicator: %s\n", indicator)

	b.WriteString("\n## Current status\n")
	fmt.Fprintf(&b, "Average accuracy: %g%%\n", p.Stats.AvgScore)
	fmt.Fprintf(&b, "Average answer time: %g seconds\n", p.Stats.AvgSpeedSec)
	fmt.Fprintf(&b, "Practice count: %d\n", p.Stats.TotalCount)
	fmt.Fprintf(&b, "Indicators below class average: %d\n", p.Stats.BelowClassCount)
	fmt.Fprintf(&b, "Learning goal reached: %s\n", yesNo(p.Stats.ReachedGoal))

	b.WriteString("\n## Charts to explain\n")
	if len(p.Charts) == 0 {
		b.WriteString("- none selected\n")
	}
	for _, c := range p.Charts {
		fmt.Fprintf(&b, "- %s\n", c.Label())
	}

	b.WriteString(`
## Output format (follow exactly)

Use markdown: "### " for section titles, "- " for main points and "  - " for sub-points.
Leave a blank line between sections. Use bullet points only, no paragraphs.

### Overall learning status
- 3-4 points, one sentence each
  - the overall level (steady, improving, needs work)
  - the trend of accuracy and answer speed
  - the position relative to the class average

### Chart highlights
- one point per chart, in the order listed above
  - what the chart observes
  - the learning pattern or change it shows

### Strengths and things to watch
- Strength:
  - one thing going well, with a short reason
- To watch:
  - one thing to adjust or strengthen, phrased positively

### Next actions
- 2-3 points
  - each as "action + purpose", e.g. "Practise ___ more to improve ___"

Keep these titles. Do not add other titles or a closing paragraph; output the content directly.`)

	return b.String()
}

// BuildChatPrompt flattens a chat history into a single prompt, one
// "role: content" line per message.
func BuildChatPrompt(msgs []ChatMessage) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
