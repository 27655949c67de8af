package usecase

import (
	"context"
	"testing"
	"time"

	"HeatCycle/internal/domain/models"
	"HeatCycle/internal/service/recordcache"
	pkgcache "HeatCycle/pkg/cache"
)

func seedHistoryRecords(t *testing.T, store *memRecordStore, days int, setpoint float64) {
	t.Helper()
	for i := 0; i < days; i++ {
		day := at("2026-01-01", "00:00:00").AddDate(0, 0, i)
		rec := models.DailyMetricsRecord{
			Day:                     day,
			AvgOutdoorTempOvernight: fptr(3.0),
			SetbackSetpoint:         fptr(setpoint),
			GasOvernight:            fptr(2.0),
			GasRecovery:             fptr(1.0),
		}
		if err := store.Save(context.Background(), &rec); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAnalyzerRunPersistsAndFansOut(t *testing.T) {
	h := newFakeHistory()
	seedFullCycle(h)
	metrics := newFakeMetrics()
	daily := newDailyUseCase(t, h, metrics)

	store := newMemRecordStore()
	seedHistoryRecords(t, store, 3, 13.0)

	cfg := utcConfig(t)
	optimum := NewOptimumUseCase(store, cfg, quietLogger())
	pub := &capturePublisher{}
	cache := recordcache.NewRecordCache(pkgcache.NewMemoryCache(), time.Hour)
	analyzer := NewAnalyzerUseCase(daily, optimum, store, pub, cache, metrics, quietLogger())

	rec, err := analyzer.Run(context.Background(), at("2026-01-15", "11:00:00"))
	if err != nil {
		t.Fatal(err)
	}

	// The night's outdoor mean of 3.0 is "cold"; the seeded 13.0 bucket has
	// three qualifying days, so it becomes the recommendation.
	if rec.OptimumSetpoint == nil || *rec.OptimumSetpoint != 13.0 {
		t.Fatalf("optimum setpoint = %v", rec.OptimumSetpoint)
	}

	saved, err := store.Latest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if saved == nil || !saved.Day.Equal(rec.Day) {
		t.Fatalf("latest saved = %+v", saved)
	}
	if saved.OptimumSetpoint == nil || *saved.OptimumSetpoint != 13.0 {
		t.Errorf("saved optimum = %v", saved.OptimumSetpoint)
	}

	if len(pub.published) != 1 || !pub.published[0].Day.Equal(rec.Day) {
		t.Errorf("published = %+v", pub.published)
	}

	cached, ok, err := cache.Latest()
	if err != nil || !ok {
		t.Fatalf("cache latest: ok=%v err=%v", ok, err)
	}
	if !cached.Day.Equal(rec.Day) {
		t.Errorf("cached day = %v, want %v", cached.Day, rec.Day)
	}
	r, ok, err := cache.Recommendation()
	if err != nil || !ok {
		t.Fatalf("cache recommendation: ok=%v err=%v", ok, err)
	}
	if r.Category != models.TempCold || r.Setpoint != 13.0 || r.SampleDays != 3 {
		t.Errorf("cached recommendation = %+v", r)
	}

	if metrics.gauges["optimum_setpoint"] != 13.0 {
		t.Errorf("gauges = %v", metrics.gauges)
	}
}

// A day with no detected cycle is still saved and published so downstream
// consumers see the gap, but carries no recommendation.
func TestAnalyzerRunNoCycle(t *testing.T) {
	h := newFakeHistory()
	target := 20.0
	h.add(climateEntity, models.Sample{
		Timestamp:  at("2026-01-14", "19:00:00"),
		State:      "heat",
		TargetTemp: &target,
		HVACAction: models.HVACActionIdle,
	})
	metrics := newFakeMetrics()
	daily := newDailyUseCase(t, h, metrics)
	store := newMemRecordStore()
	cfg := utcConfig(t)
	pub := &capturePublisher{}
	analyzer := NewAnalyzerUseCase(daily, NewOptimumUseCase(store, cfg, quietLogger()), store, pub, nil, metrics, quietLogger())

	rec, err := analyzer.Run(context.Background(), at("2026-01-15", "11:00:00"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.OptimumSetpoint != nil {
		t.Errorf("optimum on no-cycle day = %v", rec.OptimumSetpoint)
	}
	if len(pub.published) != 1 {
		t.Errorf("published = %+v", pub.published)
	}
	saved, err := store.Latest(context.Background())
	if err != nil || saved == nil {
		t.Fatalf("latest: %v %v", saved, err)
	}
}

func TestSchedulerNextRun(t *testing.T) {
	s := &DailyScheduler{
		runAt: mustTOD(t, "11:00:00"),
		loc:   time.UTC,
	}
	now := at("2026-01-15", "09:30:00")
	if got, want := s.nextRun(now), at("2026-01-15", "11:00:00"); !got.Equal(want) {
		t.Errorf("nextRun before = %v, want %v", got, want)
	}
	now = at("2026-01-15", "11:00:00")
	if got, want := s.nextRun(now), at("2026-01-16", "11:00:00"); !got.Equal(want) {
		t.Errorf("nextRun at = %v, want %v", got, want)
	}
}
