package recordcache

import (
	"testing"
	"time"

	"HeatCycle/internal/domain/models"
	pkgcache "HeatCycle/pkg/cache"
)

func TestRecordCacheRoundTrip(t *testing.T) {
	c := NewRecordCache(pkgcache.NewMemoryCache(), time.Hour)

	if rec, ok, err := c.Latest(); err != nil || ok || rec != nil {
		t.Fatalf("empty cache: rec=%v ok=%v err=%v", rec, ok, err)
	}

	gas := 2.5
	rec := &models.DailyMetricsRecord{
		Day:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		GasOvernight: &gas,
	}
	if err := c.SetLatest(rec); err != nil {
		t.Fatal(err)
	}

	got, ok, err := c.Latest()
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if !got.Day.Equal(rec.Day) {
		t.Errorf("day = %v, want %v", got.Day, rec.Day)
	}
	if got.GasOvernight == nil || *got.GasOvernight != gas {
		t.Errorf("gas = %v, want %v", got.GasOvernight, gas)
	}
	if got.OptimumSetpoint != nil {
		t.Errorf("absent field decoded as %v", got.OptimumSetpoint)
	}
}

func TestRecommendationRoundTrip(t *testing.T) {
	c := NewRecordCache(pkgcache.NewMemoryCache(), time.Hour)

	if r, ok, err := c.Recommendation(); err != nil || ok || r != nil {
		t.Fatalf("empty cache: r=%v ok=%v err=%v", r, ok, err)
	}

	in := &models.Recommendation{
		Category:     models.TempCold,
		Setpoint:     13.0,
		MeanTotalGas: 3.1,
		SampleDays:   5,
	}
	if err := c.SetRecommendation(in); err != nil {
		t.Fatal(err)
	}

	got, ok, err := c.Recommendation()
	if err != nil || !ok {
		t.Fatalf("recommendation: ok=%v err=%v", ok, err)
	}
	if got.Category != in.Category || got.Setpoint != in.Setpoint || got.SampleDays != in.SampleDays {
		t.Errorf("got %+v, want %+v", got, in)
	}
}
