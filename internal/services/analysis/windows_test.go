package analysis

import (
	"testing"
	"time"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config defaults: %v", err)
	}
	cfg.Timezone = "UTC"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	return cfg
}

func testResolver(t *testing.T, cfg *Config) *WindowResolver {
	t.Helper()
	r, err := NewWindowResolver(cfg)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	return r
}

func TestResolveAnalysisDayBeforeCutoff(t *testing.T) {
	r := testResolver(t, testConfig(t))

	// 08:30 is before the 10:00 max-recovery cutoff: the cycle under
	// analysis should have completed this morning, so analysis day is
	// yesterday.
	now := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	w := r.Resolve(now)

	wantDay := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	if !w.AnalysisDay.Equal(wantDay) {
		t.Fatalf("analysis day = %v, want %v", w.AnalysisDay, wantDay)
	}
}

func TestResolveAnalysisDayAfterCutoff(t *testing.T) {
	r := testResolver(t, testConfig(t))

	now := time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC)
	w := r.Resolve(now)

	wantDay := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if !w.AnalysisDay.Equal(wantDay) {
		t.Fatalf("analysis day = %v, want %v", w.AnalysisDay, wantDay)
	}
}

func TestSetbackWindowEndAtMidnight(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetbackSearchBegin = "20:00:00"
	cfg.SetbackSearchEnd = "00:00:00"
	r := testResolver(t, cfg)

	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	w := r.ForDay(day)

	// Midnight end resolves to the start of the analysis day itself:
	// the window crosses midnight from the previous evening.
	wantStart := time.Date(2026, 1, 14, 20, 0, 0, 0, time.UTC)
	if !w.SetbackSearch.Start.Equal(wantStart) {
		t.Fatalf("setback start = %v, want %v", w.SetbackSearch.Start, wantStart)
	}
	if !w.SetbackSearch.End.Equal(day) {
		t.Fatalf("setback end = %v, want %v", w.SetbackSearch.End, day)
	}
}

func TestSetbackWindowCrossingMidnight(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetbackSearchBegin = "21:00:00"
	cfg.SetbackSearchEnd = "02:00:00"
	r := testResolver(t, cfg)

	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	w := r.ForDay(day)

	wantEnd := time.Date(2026, 1, 15, 2, 0, 0, 0, time.UTC)
	if !w.SetbackSearch.End.Equal(wantEnd) {
		t.Fatalf("setback end = %v, want %v", w.SetbackSearch.End, wantEnd)
	}
}

func TestSetbackWindowSameEvening(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetbackSearchBegin = "20:00:00"
	cfg.SetbackSearchEnd = "23:30:00"
	r := testResolver(t, cfg)

	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	w := r.ForDay(day)

	// End later in the evening than begin: both land on the previous day.
	wantEnd := time.Date(2026, 1, 14, 23, 30, 0, 0, time.UTC)
	if !w.SetbackSearch.End.Equal(wantEnd) {
		t.Fatalf("setback end = %v, want %v", w.SetbackSearch.End, wantEnd)
	}
}

func TestQueryWindowSpansCycle(t *testing.T) {
	r := testResolver(t, testConfig(t))

	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	w := r.ForDay(day)

	wantStart := time.Date(2026, 1, 14, 20, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if !w.Query.Start.Equal(wantStart) || !w.Query.End.Equal(wantEnd) {
		t.Fatalf("query window = [%v, %v), want [%v, %v)", w.Query.Start, w.Query.End, wantStart, wantEnd)
	}
	if !w.MaxRecoveryEnd.Equal(wantEnd) {
		t.Fatalf("max recovery end = %v, want %v", w.MaxRecoveryEnd, wantEnd)
	}
}

func TestResolveLocalTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timezone = "Europe/Amsterdam"
	r := testResolver(t, cfg)

	// 09:30 CET on Jan 15 is before the local 10:00 cutoff.
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2026, 1, 15, 9, 30, 0, 0, loc)
	w := r.Resolve(now)

	wantDay := time.Date(2026, 1, 14, 0, 0, 0, 0, loc)
	if !w.AnalysisDay.Equal(wantDay) {
		t.Fatalf("analysis day = %v, want %v", w.AnalysisDay, wantDay)
	}
	// Windows come out in UTC: 20:00 CET on Jan 13 is 19:00 UTC.
	wantStart := time.Date(2026, 1, 13, 19, 0, 0, 0, time.UTC)
	if !w.SetbackSearch.Start.Equal(wantStart) {
		t.Fatalf("setback start = %v, want %v", w.SetbackSearch.Start, wantStart)
	}
}
