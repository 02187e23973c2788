package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lodboard/internal/advisor"
	"github.com/abhisek/lodboard/internal/ui/theme"
)

// SuggestionCard renders an advisory suggestion as a bordered card whose
// accent follows the suggestion level.
func SuggestionCard(s advisor.Suggestion, width int) string {
	accent := theme.LevelColor(s.Level)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(accent).Render(s.Title))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(s.Explanation))
	b.WriteString("\n")
	for i, a := range s.Actions {
		fmt.Fprintf(&b, "\n%s %s", lipgloss.NewStyle().Foreground(accent).Render(fmt.Sprintf("%d.", i+1)), a)
	}
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%s · %s · next: %s", s.Scenario, s.Tag, s.NextStep)))

	return theme.Card.
		BorderForeground(accent).
		Width(width).
		Render(b.String())
}
