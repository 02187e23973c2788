package analytics

import "sort"

// Viewing strategies assigned by the warehouse.
const (
	StrategyStableComplete    = "stable_complete"
	StrategyActiveRegulated   = "active_regulated"
	StrategyFastSkimming      = "fast_skimming"
	StrategyStrugglingRewatch = "struggling_rewatch"
	StrategyNoEngagement      = "no_engagement"
	StrategyOther             = "other"
	StrategyUnknown           = "unknown"
)

var strategyLabels = map[string]string{
	StrategyStableComplete:    "Steady full viewing",
	StrategyActiveRegulated:   "Self-regulated learning",
	StrategyFastSkimming:      "Fast skimming",
	StrategyStrugglingRewatch: "Stuck and rewatching",
	StrategyNoEngagement:      "Low engagement",
	StrategyOther:             "Mixed learning",
	StrategyUnknown:           "Not yet determined",
}

// StrategyLabel returns the display label of a viewing strategy. Unknown or
// empty strategies share the "unknown" label.
func StrategyLabel(s string) string {
	if l, ok := strategyLabels[s]; ok {
		return l
	}
	return strategyLabels[StrategyUnknown]
}

// WeakCoverage is the average coverage below which a video counts as weak.
const WeakCoverage = 0.5

// weakVideoLimit caps the weak video list.
const weakVideoLimit = 10

// FilterVideoViews returns the views inside r.
func FilterVideoViews(rows []VideoView, r DateRange) []VideoView {
	out := make([]VideoView, 0, len(rows))
	for _, v := range rows {
		if r.Contains(v.ActivityDate) {
			out = append(out, v)
		}
	}
	return out
}

// CoverageSummary is the KPI card of the video views.
type CoverageSummary struct {
	DistinctVideos   int     `json:"distinctVideos"`
	AvgCoverage      float64 `json:"avgCoverage"` // 0–1
	DominantStrategy string  `json:"dominantStrategy"`
	StrategyLabel    string  `json:"strategyLabel"`
}

// VideoCoverage counts distinct videos, averages coverage over every view
// and picks the most frequent strategy. Ties go to the strategy seen first.
func VideoCoverage(rows []VideoView) CoverageSummary {
	s := CoverageSummary{DominantStrategy: StrategyUnknown}
	if len(rows) == 0 {
		s.StrategyLabel = StrategyLabel(s.DominantStrategy)
		return s
	}

	videos := map[string]struct{}{}
	counts := map[string]int{}
	var order []string
	var total float64
	for _, v := range rows {
		videos[v.VideoName] = struct{}{}
		total += v.CoverageRatio

		key := v.LearningStrategyType
		if key == "" {
			key = StrategyUnknown
		}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	best := 0
	for _, k := range order {
		if counts[k] > best {
			best = counts[k]
			s.DominantStrategy = k
		}
	}
	s.DistinctVideos = len(videos)
	s.AvgCoverage = total / float64(len(rows))
	s.StrategyLabel = StrategyLabel(s.DominantStrategy)
	return s
}

// VideoStat aggregates the views of one video.
type VideoStat struct {
	VideoName     string  `json:"videoName"`
	IndicatorName string  `json:"indicatorName"`
	Views         int     `json:"views"`
	AvgCoverage   float64 `json:"avgCoverage"`
	TotalCoverage float64 `json:"cumulativeCoverage"` // capped at 1
	MaxCoverage   float64 `json:"maxCoverage"`
	Strategy      string  `json:"strategy"`
	StrategyLabel string  `json:"strategyLabel"`
}

const unnamedVideo = "Untitled video"

// VideoHistory aggregates views per video in first-seen order. Indicator and
// strategy come from the first view of each video.
func VideoHistory(rows []VideoView) []VideoStat {
	out := []VideoStat{}
	index := map[string]int{}
	for _, v := range rows {
		name := v.VideoName
		if name == "" {
			name = unnamedVideo
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, VideoStat{
				VideoName:     name,
				IndicatorName: v.IndicatorName,
				Strategy:      v.LearningStrategyType,
				MaxCoverage:   v.CoverageRatio,
			})
		}
		st := &out[i]
		st.Views++
		st.TotalCoverage += v.CoverageRatio
		st.MaxCoverage = max(st.MaxCoverage, v.CoverageRatio)
	}
	for i := range out {
		st := &out[i]
		st.AvgCoverage = st.TotalCoverage / float64(st.Views)
		st.TotalCoverage = min(st.TotalCoverage, 1)
		st.StrategyLabel = StrategyLabel(st.Strategy)
	}
	return out
}

// WeakVideos returns up to ten videos whose average coverage is under
// WeakCoverage, lowest first.
func WeakVideos(rows []VideoView) []VideoStat {
	out := []VideoStat{}
	for _, st := range VideoHistory(rows) {
		if st.AvgCoverage < WeakCoverage {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgCoverage < out[j].AvgCoverage })
	if len(out) > weakVideoLimit {
		out = out[:weakVideoLimit]
	}
	return out
}
