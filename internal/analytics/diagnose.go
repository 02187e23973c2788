package analytics

// Zone is a quadrant of the accuracy versus speed scatter.
type Zone string

const (
	ZoneMastery  Zone = "mastery"  // accurate and quick
	ZoneStable   Zone = "stable"   // accurate but slow
	ZoneGuessing Zone = "guessing" // inaccurate and quick
	ZoneStuck    Zone = "stuck"    // inaccurate and slow
)

// DefaultMedianSec is used when no attempt has a measurable item time.
const DefaultMedianSec = 5

// ScatterPoint is one attempt on the diagnosis scatter.
type ScatterPoint struct {
	Indicator     string  `json:"indicator"`
	TimeSec       float64 `json:"timeSec"`
	ScoreRate     float64 `json:"scoreRate"`
	ItemsCount    int     `json:"itemsCount"`
	AttemptIndex  int     `json:"attemptIndex"`
	TotalAttempts int     `json:"totalAttempts"`
	IsLatest      bool    `json:"isLatest"`
	Zone          Zone    `json:"zone"`
}

// Diagnosis is the scatter chart with its split lines.
type Diagnosis struct {
	Points        []ScatterPoint `json:"points"`
	MedianTimeSec float64        `json:"medianTimeSec"`
	PassScore     float64        `json:"passScore"`
}

// Diagnose places each attempt with at least one item on the scatter. The
// attempt index counts attempts per indicator in date order. The speed split
// is the median seconds per item over plotted points.
func Diagnose(attempts []PracAttempt) Diagnosis {
	d := Diagnosis{PassScore: PassScore}
	if len(attempts) == 0 {
		return d
	}

	var points []ScatterPoint
	order, groups := groupAttempts(attempts, byIndicator)
	for _, name := range order {
		sorted := sortedByDate(groups[name])
		for i, a := range sorted {
			if a.ItemsCount < 1 {
				continue
			}
			points = append(points, ScatterPoint{
				Indicator:     a.IndicatorName,
				TimeSec:       a.AvgItemTimeMs / 1000,
				ScoreRate:     a.ScoreRate,
				ItemsCount:    a.ItemsCount,
				AttemptIndex:  i + 1,
				TotalAttempts: len(sorted),
				IsLatest:      i == len(sorted)-1,
			})
		}
	}

	secs := make([]float64, 0, len(points))
	for _, p := range points {
		secs = append(secs, p.TimeSec)
	}
	d.MedianTimeSec = median(secs)
	if d.MedianTimeSec == 0 {
		d.MedianTimeSec = DefaultMedianSec
	}

	for i := range points {
		points[i].Zone = zoneOf(points[i].ScoreRate, points[i].TimeSec, d.MedianTimeSec)
	}
	d.Points = points
	return d
}

func zoneOf(score, sec, medianSec float64) Zone {
	switch {
	case score >= PassScore && sec <= medianSec:
		return ZoneMastery
	case score >= PassScore:
		return ZoneStable
	case sec <= medianSec:
		return ZoneGuessing
	default:
		return ZoneStuck
	}
}
