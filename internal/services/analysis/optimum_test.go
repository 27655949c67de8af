package analysis

import (
	"testing"
	"time"

	"HeatCycle/internal/domain/models"
)

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

func histRecord(d time.Time, outdoor, setpoint, gasOn, gasRec float64) models.DailyMetricsRecord {
	return models.DailyMetricsRecord{
		Day:                     d,
		AvgOutdoorTempOvernight: &outdoor,
		SetbackSetpoint:         &setpoint,
		GasOvernight:            &gasOn,
		GasRecovery:             &gasRec,
	}
}

func TestRecommendIgnoresUndersampledBuckets(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinDataPoints = 4

	// Five days at 13.0 in the "cold" band (outdoor 4C), total gas
	// 10, 11, 9, 10, 12. Two days at 14.0 with a lower mean but only
	// two samples.
	history := []models.DailyMetricsRecord{
		histRecord(day(1), 4, 13.0, 6, 4),
		histRecord(day(2), 4, 13.0, 7, 4),
		histRecord(day(3), 4, 13.0, 5, 4),
		histRecord(day(4), 4, 13.0, 6, 4),
		histRecord(day(5), 4, 13.0, 8, 4),
		histRecord(day(6), 5, 14.0, 3, 2),
		histRecord(day(7), 5, 14.0, 3, 3),
	}

	outdoor := 4.0
	rec := RecommendSetpoint(cfg, &outdoor, history)
	if rec == nil {
		t.Fatalf("expected a recommendation")
	}
	if rec.Setpoint != 13.0 {
		t.Fatalf("setpoint = %v, want 13.0", rec.Setpoint)
	}
	if rec.MeanTotalGas != 10.4 {
		t.Fatalf("mean total gas = %v, want 10.4", rec.MeanTotalGas)
	}
	if rec.SampleDays != 5 {
		t.Fatalf("sample days = %d, want 5", rec.SampleDays)
	}
	if rec.Category != models.TempCold {
		t.Fatalf("category = %s, want %s", rec.Category, models.TempCold)
	}
}

func TestRecommendOnlyWithinCurrentCategory(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinDataPoints = 2

	// Cheap setpoint observed only on mild nights; cold nights all at 14.0.
	history := []models.DailyMetricsRecord{
		histRecord(day(1), 10, 12.0, 2, 1),
		histRecord(day(2), 11, 12.0, 2, 1),
		histRecord(day(3), 4, 14.0, 6, 3),
		histRecord(day(4), 3, 14.0, 7, 3),
	}

	outdoor := 4.0
	rec := RecommendSetpoint(cfg, &outdoor, history)
	if rec == nil {
		t.Fatalf("expected a recommendation")
	}
	if rec.Setpoint != 14.0 {
		t.Fatalf("setpoint = %v, want 14.0 (mild-night data must not leak in)", rec.Setpoint)
	}
}

func TestRecommendTieBreaksToLowestSetpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinDataPoints = 2

	history := []models.DailyMetricsRecord{
		histRecord(day(1), 4, 13.0, 5, 5),
		histRecord(day(2), 4, 13.0, 5, 5),
		histRecord(day(3), 4, 14.0, 5, 5),
		histRecord(day(4), 4, 14.0, 5, 5),
	}

	outdoor := 4.0
	rec := RecommendSetpoint(cfg, &outdoor, history)
	if rec == nil || rec.Setpoint != 13.0 {
		t.Fatalf("rec = %+v, want tie resolved to 13.0", rec)
	}
}

func TestRecommendSkipsIncompleteDays(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinDataPoints = 2

	complete := []models.DailyMetricsRecord{
		histRecord(day(1), 4, 13.0, 5, 5),
		histRecord(day(2), 4, 13.0, 5, 5),
	}
	// Missing recovery gas: the day must not count toward the bucket.
	partial := histRecord(day(3), 4, 14.0, 1, 0)
	partial.GasRecovery = nil
	another := histRecord(day(4), 4, 14.0, 1, 1)

	outdoor := 4.0
	rec := RecommendSetpoint(cfg, &outdoor, append(complete, partial, another))
	if rec == nil || rec.Setpoint != 13.0 {
		t.Fatalf("rec = %+v, want 13.0 (14.0 bucket has a single complete day)", rec)
	}
}

func TestRecommendAbsentWithoutCurrentTemp(t *testing.T) {
	cfg := testConfig(t)
	history := []models.DailyMetricsRecord{
		histRecord(day(1), 4, 13.0, 5, 5),
	}
	if rec := RecommendSetpoint(cfg, nil, history); rec != nil {
		t.Fatalf("rec = %+v, want none without a current outdoor temperature", rec)
	}
}

func TestRecommendAbsentWithNoQualifyingBucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinDataPoints = 3

	history := []models.DailyMetricsRecord{
		histRecord(day(1), 4, 13.0, 5, 5),
		histRecord(day(2), 4, 13.0, 5, 5),
	}
	outdoor := 4.0
	if rec := RecommendSetpoint(cfg, &outdoor, history); rec != nil {
		t.Fatalf("rec = %+v, want none below the minimum sample count", rec)
	}
}

func TestCategorizeThresholds(t *testing.T) {
	cfg := testConfig(t)

	cases := []struct {
		temp float64
		want models.TempCategory
	}{
		{-5, models.TempVeryCold},
		{0, models.TempVeryCold},
		{0.1, models.TempCold},
		{7, models.TempCold},
		{7.1, models.TempMild},
	}
	for _, tc := range cases {
		v := tc.temp
		if got := cfg.Categorize(&v); got != tc.want {
			t.Fatalf("categorize(%v) = %s, want %s", tc.temp, got, tc.want)
		}
	}
	if got := cfg.Categorize(nil); got != models.TempUnknown {
		t.Fatalf("categorize(nil) = %s, want %s", got, models.TempUnknown)
	}
}
