package models

import (
	"strconv"
	"strings"
	"time"
)

// HVAC action values as reported by the climate entity.
const (
	HVACActionHeating = "heating"
	HVACActionIdle    = "idle"
)

// Sample is one recorded sensor state at an instant. Immutable once fetched.
type Sample struct {
	EntityID   string    `json:"entity_id"`
	Timestamp  time.Time `json:"ts"` // UTC
	State      string    `json:"state"`
	TargetTemp *float64  `json:"target_temp,omitempty"` // climate setpoint attribute
	HVACAction string    `json:"hvac_action,omitempty"` // "heating", "idle", "" when absent
}

// Float parses the state as a numeric reading. Placeholder states
// ("unknown", "unavailable") and unparseable values report false.
func (s Sample) Float() (float64, bool) {
	st := strings.TrimSpace(s.State)
	if st == "" || st == "unknown" || st == "unavailable" {
		return 0, false
	}
	v, err := strconv.ParseFloat(st, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// TimeSeries is an ordered sequence of samples for one entity over a queried
// interval. Timestamps are non-decreasing; duplicates are last-write-wins.
type TimeSeries []Sample

// AnalysisWindow is a half-open UTC interval [Start, End).
type AnalysisWindow struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the window contains no instants.
func (w AnalysisWindow) Empty() bool {
	return !w.Start.Before(w.End)
}

// Contains reports whether t falls inside [Start, End).
func (w AnalysisWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
