package usecase

import (
	"context"
	"reflect"
	"testing"
	"time"

	"HeatCycle/internal/domain/models"
	"HeatCycle/internal/services/analysis"
)

const (
	climateEntity = "climate.living_room"
	indoorEntity  = "sensor.living_room_temperature"
	outdoorEntity = "sensor.outdoor_temperature"
	gasEntity     = "sensor.gas_meter"
)

func testEntities() Entities {
	return Entities{
		IndoorTemp:  indoorEntity,
		OutdoorTemp: outdoorEntity,
		Climate:     climateEntity,
		GasMeter:    gasEntity,
	}
}

func utcConfig(t *testing.T) *analysis.Config {
	t.Helper()
	cfg, err := analysis.NewConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Timezone = "UTC"
	return cfg
}

func newDailyUseCase(t *testing.T, hist *fakeHistory, metrics *fakeMetrics) *DailyMetricsUseCase {
	t.Helper()
	cfg := utcConfig(t)
	resolver, err := analysis.NewWindowResolver(cfg)
	if err != nil {
		t.Fatal(err)
	}
	detector := analysis.NewBoundaryDetector(cfg, hist, climateEntity, indoorEntity)
	gas := analysis.NewConsumptionIntegrator(hist)
	return NewDailyMetricsUseCase(resolver, detector, gas, hist, testEntities(), metrics, quietLogger())
}

func at(day, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", day+" "+clock)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// seedFullCycle loads one complete setback/recovery night: setpoint 21
// dropped to 13 at 22:30, raised back to 21 at 06:30, recovery complete at
// 07:45 after fifteen minutes idle at temperature.
func seedFullCycle(h *fakeHistory) {
	setpoint := func(day, clock string, target float64, action string) {
		h.add(climateEntity, models.Sample{
			Timestamp:  at(day, clock),
			State:      "heat",
			TargetTemp: &target,
			HVACAction: action,
		})
	}
	reading := func(entity, day, clock, state string) {
		h.add(entity, models.Sample{Timestamp: at(day, clock), State: state})
	}

	setpoint("2026-01-14", "19:00:00", 21.0, models.HVACActionIdle)
	setpoint("2026-01-14", "22:30:00", 13.0, models.HVACActionIdle)
	setpoint("2026-01-15", "06:30:00", 21.0, models.HVACActionHeating)
	setpoint("2026-01-15", "07:30:00", 21.0, models.HVACActionIdle)

	reading(indoorEntity, "2026-01-14", "23:00:00", "17.0")
	reading(indoorEntity, "2026-01-15", "03:00:00", "16.0")
	reading(indoorEntity, "2026-01-15", "05:30:00", "15.8")
	reading(indoorEntity, "2026-01-15", "07:35:00", "20.7")
	reading(indoorEntity, "2026-01-15", "07:45:00", "20.8")

	reading(outdoorEntity, "2026-01-14", "23:00:00", "4.0")
	reading(outdoorEntity, "2026-01-15", "02:00:00", "2.0")
	reading(outdoorEntity, "2026-01-15", "05:00:00", "3.0")

	reading(gasEntity, "2026-01-14", "22:00:00", "100.0")
	reading(gasEntity, "2026-01-15", "00:00:00", "101.0")
	reading(gasEntity, "2026-01-15", "06:00:00", "102.5")
	reading(gasEntity, "2026-01-15", "06:45:00", "103.0")
	reading(gasEntity, "2026-01-15", "07:30:00", "103.4")
}

func TestDailyMetricsFullCycle(t *testing.T) {
	h := newFakeHistory()
	seedFullCycle(h)
	metrics := newFakeMetrics()
	uc := newDailyUseCase(t, h, metrics)

	rec, err := uc.Compute(context.Background(), at("2026-01-15", "11:00:00"))
	if err != nil {
		t.Fatal(err)
	}

	if got, want := rec.Day, at("2026-01-15", "00:00:00"); !got.Equal(want) {
		t.Errorf("day = %v, want %v", got, want)
	}
	if rec.SetbackStart == nil || !rec.SetbackStart.Equal(at("2026-01-14", "22:30:00")) {
		t.Errorf("setback start = %v", rec.SetbackStart)
	}
	if rec.SetbackSetpoint == nil || *rec.SetbackSetpoint != 13.0 {
		t.Errorf("setback setpoint = %v", rec.SetbackSetpoint)
	}
	if rec.RecoveryStart == nil || !rec.RecoveryStart.Equal(at("2026-01-15", "06:30:00")) {
		t.Errorf("recovery start = %v", rec.RecoveryStart)
	}
	if rec.DaytimeTarget == nil || *rec.DaytimeTarget != 21.0 {
		t.Errorf("daytime target = %v", rec.DaytimeTarget)
	}
	if rec.RecoveryEnd == nil || !rec.RecoveryEnd.Equal(at("2026-01-15", "07:45:00")) {
		t.Errorf("recovery end = %v", rec.RecoveryEnd)
	}
	if rec.AvgOutdoorTempOvernight == nil || *rec.AvgOutdoorTempOvernight != 3.0 {
		t.Errorf("avg outdoor = %v", rec.AvgOutdoorTempOvernight)
	}
	if rec.MinIndoorTempSetback == nil || *rec.MinIndoorTempSetback != 15.8 {
		t.Errorf("min indoor = %v", rec.MinIndoorTempSetback)
	}
	if rec.GasOvernight == nil || *rec.GasOvernight != 2.5 {
		t.Errorf("gas overnight = %v", rec.GasOvernight)
	}
	if rec.GasRecovery == nil || *rec.GasRecovery != 0.9 {
		t.Errorf("gas recovery = %v", rec.GasRecovery)
	}
	if metrics.outcomes["complete"] != 1 {
		t.Errorf("outcomes = %v", metrics.outcomes)
	}
}

// Re-running the same day over unchanged history yields an identical record.
func TestDailyMetricsIdempotent(t *testing.T) {
	h := newFakeHistory()
	seedFullCycle(h)
	uc := newDailyUseCase(t, h, newFakeMetrics())

	day := at("2026-01-15", "00:00:00")
	first, err := uc.ComputeDay(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}
	second, err := uc.ComputeDay(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("records differ:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestDailyMetricsNoCycle(t *testing.T) {
	h := newFakeHistory()
	// Setpoint never moves: no setback, no cycle.
	target := 20.0
	h.add(climateEntity, models.Sample{
		Timestamp:  at("2026-01-14", "19:00:00"),
		State:      "heat",
		TargetTemp: &target,
		HVACAction: models.HVACActionIdle,
	})
	metrics := newFakeMetrics()
	uc := newDailyUseCase(t, h, metrics)

	rec, err := uc.ComputeDay(context.Background(), at("2026-01-15", "00:00:00"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.CycleDetected() {
		t.Fatalf("unexpected cycle: %+v", rec)
	}
	if rec.GasOvernight != nil || rec.AvgOutdoorTempOvernight != nil {
		t.Errorf("derived fields set without a cycle: %+v", rec)
	}
	if metrics.outcomes["no_cycle"] != 1 {
		t.Errorf("outcomes = %v", metrics.outcomes)
	}
}

// A missing gas meter degrades only the consumption fields; the record is
// still produced and flagged partial.
func TestDailyMetricsMissingGasIsPartial(t *testing.T) {
	h := newFakeHistory()
	seedFullCycle(h)
	h.series[gasEntity] = nil
	metrics := newFakeMetrics()
	uc := newDailyUseCase(t, h, metrics)

	rec, err := uc.ComputeDay(context.Background(), at("2026-01-15", "00:00:00"))
	if err != nil {
		t.Fatal(err)
	}
	if !rec.CycleDetected() {
		t.Fatal("cycle not detected")
	}
	if rec.GasOvernight != nil || rec.GasRecovery != nil {
		t.Errorf("gas fields = %v, %v, want absent", rec.GasOvernight, rec.GasRecovery)
	}
	if rec.AvgOutdoorTempOvernight == nil || rec.MinIndoorTempSetback == nil {
		t.Errorf("temperature fields dropped: %+v", rec)
	}
	if metrics.outcomes["partial"] != 1 {
		t.Errorf("outcomes = %v", metrics.outcomes)
	}
}
