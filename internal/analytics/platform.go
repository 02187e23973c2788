package analytics

import (
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// PlatformSeries is activity per platform for each day of a range. Every
// series has one value per entry of Dates.
type PlatformSeries struct {
	Dates  []string           `json:"dates"`
	Counts map[Platform][]int `json:"counts"`
}

// PlatformActivity lays platform events onto every day of r. Open bounds
// take the earliest or latest event date. Events for unknown platforms or
// days outside r are dropped.
func PlatformActivity(events []PlatformEvent, r DateRange) PlatformSeries {
	start, end := r.Start, r.End
	for _, e := range events {
		if r.Start == "" && (start == "" || e.EventDate < start) {
			start = e.EventDate
		}
		if r.End == "" && (end == "" || e.EventDate > end) {
			end = e.EventDate
		}
	}

	dates := dateSeq(start, end)
	s := PlatformSeries{Dates: dates, Counts: make(map[Platform][]int, len(Platforms))}
	for _, p := range Platforms {
		s.Counts[p] = make([]int, len(dates))
	}

	pos := make(map[string]int, len(dates))
	for i, d := range dates {
		pos[d] = i
	}
	for _, e := range events {
		i, ok := pos[e.EventDate]
		if !ok {
			continue
		}
		series, ok := s.Counts[Platform(strings.ToLower(strings.TrimSpace(e.Platform)))]
		if !ok {
			continue
		}
		n := e.ActivityCount
		if n == 0 {
			n = 1
		}
		series[i] += n
	}
	return s
}

// dateSeq lists the ISO dates from start to end inclusive. It returns nil
// when either bound is missing or malformed, or end precedes start.
func dateSeq(start, end string) []string {
	from, err := time.Parse(isoDate, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(isoDate, end)
	if err != nil {
		return nil
	}
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(isoDate))
	}
	return out
}
