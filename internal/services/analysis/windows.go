package analysis

import (
	"fmt"
	"time"

	"HeatCycle/internal/domain/models"
	"HeatCycle/pkg/util"
)

// Windows are the concrete UTC analysis windows for one analysis day.
type Windows struct {
	// AnalysisDay is local midnight of the day whose cycle is analyzed
	// (the cycle started the evening before it).
	AnalysisDay time.Time
	// Query spans from setback-search begin on the previous day through
	// max-recovery-search-end on the analysis day; one broad fetch covers
	// every narrower window.
	Query          models.AnalysisWindow
	SetbackSearch  models.AnalysisWindow
	RecoverySearch models.AnalysisWindow
	MaxRecoveryEnd time.Time
}

// WindowResolver turns configured local time-of-day boundaries plus "now"
// into UTC analysis windows.
type WindowResolver struct {
	cfg *Config
	loc *time.Location

	setbackBegin   util.TimeOfDay
	setbackEnd     util.TimeOfDay
	recoveryBegin  util.TimeOfDay
	recoveryEnd    util.TimeOfDay
	maxRecoveryEnd util.TimeOfDay
}

// NewWindowResolver parses the configured window boundaries once.
func NewWindowResolver(cfg *Config) (*WindowResolver, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	r := &WindowResolver{cfg: cfg, loc: loc}
	for _, f := range []struct {
		name string
		raw  string
		dst  *util.TimeOfDay
	}{
		{"setback_search_begin", cfg.SetbackSearchBegin, &r.setbackBegin},
		{"setback_search_end", cfg.SetbackSearchEnd, &r.setbackEnd},
		{"recovery_search_begin", cfg.RecoverySearchBegin, &r.recoveryBegin},
		{"recovery_search_end", cfg.RecoverySearchEnd, &r.recoveryEnd},
		{"max_recovery_search_end", cfg.MaxRecoverySearchEnd, &r.maxRecoveryEnd},
	} {
		tod, err := util.ParseTimeOfDay(f.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = tod
	}
	return r, nil
}

// Resolve determines the analysis day for "now" and produces its windows.
// If now is before today's max-recovery-search-end the cycle under analysis
// is the one that should have completed this morning, so the analysis day is
// yesterday; otherwise it is today.
func (r *WindowResolver) Resolve(now time.Time) *Windows {
	local := now.In(r.loc)
	day := util.DayStart(local)
	if local.Before(r.maxRecoveryEnd.On(day)) {
		day = util.DayStart(day.AddDate(0, 0, -1))
	}
	return r.ForDay(day)
}

// ForDay produces the windows for an explicit analysis day (local midnight).
func (r *WindowResolver) ForDay(day time.Time) *Windows {
	day = util.DayStart(day.In(r.loc))
	prev := util.DayStart(day.AddDate(0, 0, -1))

	setbackStart := r.setbackBegin.On(prev)
	// A setback window whose end time-of-day is numerically earlier than its
	// begin crosses midnight onto the analysis day; in particular an end of
	// exactly 00:00:00 resolves to the start of the analysis day.
	var setbackEnd time.Time
	if r.setbackEnd.Before(r.setbackBegin) {
		setbackEnd = r.setbackEnd.On(day)
	} else {
		setbackEnd = r.setbackEnd.On(prev)
	}

	maxEnd := r.maxRecoveryEnd.On(day)
	return &Windows{
		AnalysisDay: day,
		Query: models.AnalysisWindow{
			Start: setbackStart.UTC(),
			End:   maxEnd.UTC(),
		},
		SetbackSearch: models.AnalysisWindow{
			Start: setbackStart.UTC(),
			End:   setbackEnd.UTC(),
		},
		RecoverySearch: models.AnalysisWindow{
			Start: r.recoveryBegin.On(day).UTC(),
			End:   r.recoveryEnd.On(day).UTC(),
		},
		MaxRecoveryEnd: maxEnd.UTC(),
	}
}

// Location exposes the resolver's timezone for callers that schedule in
// local wall-clock time.
func (r *WindowResolver) Location() *time.Location {
	return r.loc
}
