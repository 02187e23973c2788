package insight

import "github.com/abhisek/lodboard/internal/llm"

// InsightSchema defines the JSON schema for answers to snapshot questions.
var InsightSchema = &llm.Schema{
	Name:        "learning-insight",
	Description: "Explanation of a student's learning analytics with one highlight and concrete suggestions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "A description of the current learning situation (2-4 sentences)",
			},
			"highlight": map[string]any{
				"type":        "string",
				"description": "The single most notable learning phenomenon",
			},
			"suggestions": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1-2 concrete, actionable learning suggestions",
			},
		},
		"required":             []any{"summary", "highlight", "suggestions"},
		"additionalProperties": false,
	},
}
