package advisor

// LOD is the level of detail a suggestion is rendered at.
type LOD int

const (
	LODOverview  LOD = 1 // one sentence, one action
	LODIndicator LOD = 2 // more specific, one or two actions
	LODItem      LOD = 3 // procedural, two or three actions
)

// Valid reports whether l is one of the three supported levels.
func (l LOD) Valid() bool {
	return l >= LODOverview && l <= LODItem
}

// Level is the severity of a suggestion, used for UI tone.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
)

// NextStep is the drill-down target a suggestion points at.
type NextStep string

const (
	NextOverview  NextStep = "overview"
	NextIndicator NextStep = "indicator"
	NextItem      NextStep = "item"
)

// Tag classifies a suggestion for downstream filtering.
type Tag string

const (
	TagRisk        Tag = "risk"
	TagOpportunity Tag = "opportunity"
	TagMaintenance Tag = "maintenance"
)

// Scenario identifies which advisory branch produced a suggestion.
type Scenario string

const (
	ScenarioStuckIndicator   Scenario = "stuck-indicator"
	ScenarioCorrectNotFluent Scenario = "correct-not-fluent"
	ScenarioFastLowAccuracy  Scenario = "fast-low-accuracy"
	ScenarioBelowClass       Scenario = "below-class-average"
	ScenarioGoalReached      Scenario = "goal-reached"
	ScenarioStable           Scenario = "stable"
)

// PracContext is a snapshot of one student's aggregated practice statistics
// under whatever subject/indicator/date filter is active.
type PracContext struct {
	LODLevel LOD `json:"lodLevel,omitempty"`

	AvgScore        float64 `json:"avgScore"`    // 0–100
	AvgSpeedSec     float64 `json:"avgSpeedSec"` // seconds per answered item
	BelowClassCount int     `json:"belowClassCount"`
	StruggleCount   int     `json:"struggleCount"`
	ReachedGoal     bool    `json:"reachedGoal"`

	// Reserved. No rule reads these.
	RecentDrop        *bool `json:"recentDrop,omitempty"`
	RecentImprovement *bool `json:"recentImprovement,omitempty"`
	SlowSpeed         *bool `json:"slowSpeed,omitempty"`
}

// LOD returns the requested level of detail, defaulting to LODOverview when
// unset or out of range.
func (c PracContext) LOD() LOD {
	if !c.LODLevel.Valid() {
		return LODOverview
	}
	return c.LODLevel
}

// Suggestion is a single rendered recommendation.
type Suggestion struct {
	Scenario    Scenario `json:"scenario"`
	Level       Level    `json:"level"`
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Actions     []string `json:"actions"`
	NextStep    NextStep `json:"nextStep,omitempty"`
	Tag         Tag      `json:"tag,omitempty"`
}
