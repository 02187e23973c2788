package advisor

// Fixed thresholds. Scores are percentages, speeds are seconds per item.
const (
	PassScore    = 60
	GoalScore    = 80
	FastSpeedSec = 4
	SlowSpeedSec = 8
)

// Rule is one advisory scenario: a predicate plus the fixed classification
// it produces when it matches.
type Rule struct {
	Scenario Scenario
	Level    Level
	Tag      Tag
	Match    func(c PracContext) bool
	Next     func(lod LOD) NextStep
}

// itemAtDetail drills to items at LOD 3 and to indicators otherwise.
func itemAtDetail(lod LOD) NextStep {
	if lod == LODItem {
		return NextItem
	}
	return NextIndicator
}

func always(step NextStep) func(LOD) NextStep {
	return func(LOD) NextStep { return step }
}

// rules is evaluated top to bottom and the first match wins. Scenarios
// overlap, so the order is part of the contract.
var rules = []Rule{
	{
		Scenario: ScenarioStuckIndicator,
		Level:    LevelWarning,
		Tag:      TagRisk,
		Match: func(c PracContext) bool {
			return c.StruggleCount > 0 && c.AvgScore < PassScore
		},
		Next: itemAtDetail,
	},
	{
		Scenario: ScenarioCorrectNotFluent,
		Level:    LevelInfo,
		Tag:      TagMaintenance,
		Match: func(c PracContext) bool {
			return c.AvgScore >= GoalScore && c.AvgSpeedSec > SlowSpeedSec
		},
		Next: itemAtDetail,
	},
	{
		Scenario: ScenarioFastLowAccuracy,
		Level:    LevelWarning,
		Tag:      TagRisk,
		Match: func(c PracContext) bool {
			return c.AvgScore < PassScore && c.AvgSpeedSec <= FastSpeedSec
		},
		Next: always(NextItem),
	},
	{
		Scenario: ScenarioBelowClass,
		Level:    LevelInfo,
		Tag:      TagRisk,
		Match: func(c PracContext) bool {
			return c.BelowClassCount > 0
		},
		Next: itemAtDetail,
	},
	{
		Scenario: ScenarioGoalReached,
		Level:    LevelSuccess,
		Tag:      TagOpportunity,
		Match: func(c PracContext) bool {
			return c.ReachedGoal
		},
		Next: always(NextOverview),
	},
}

// stableRule applies when no other rule matches.
var stableRule = Rule{
	Scenario: ScenarioStable,
	Level:    LevelInfo,
	Tag:      TagMaintenance,
	Match:    func(PracContext) bool { return true },
	Next:     always(NextOverview),
}

// Rules returns the advisory rules in priority order, ending with the
// catch-all stable rule.
func Rules() []Rule {
	out := make([]Rule, 0, len(rules)+1)
	out = append(out, rules...)
	return append(out, stableRule)
}

// Classify returns the first rule matching c.
func Classify(c PracContext) Rule {
	for _, r := range rules {
		if r.Match(c) {
			return r
		}
	}
	return stableRule
}
