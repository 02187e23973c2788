// Package advisor maps a practice statistics snapshot to one of six
// prioritized advisory scenarios and renders it at a level of detail.
package advisor

// Suggest classifies c and renders the matched scenario at c's level of
// detail. It is pure and total: every input yields exactly one suggestion.
func Suggest(c PracContext) Suggestion {
	return Render(Classify(c), c.LOD())
}

// Render builds the suggestion for rule r at the given level of detail.
func Render(r Rule, lod LOD) Suggestion {
	if !lod.Valid() {
		lod = LODOverview
	}
	text := Catalog[r.Scenario]
	v := text.Variants[lod-1]

	// Callers own the returned slice; the catalog must not be aliased.
	actions := make([]string, len(v.Actions))
	copy(actions, v.Actions)

	return Suggestion{
		Scenario:    r.Scenario,
		Level:       r.Level,
		Title:       text.Title,
		Explanation: v.Explanation,
		Actions:     actions,
		NextStep:    r.Next(lod),
		Tag:         r.Tag,
	}
}
