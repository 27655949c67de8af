package analysis

import (
	"context"
	"testing"
	"time"

	"HeatCycle/internal/domain/models"
)

const gasEntity = "sensor.gas_meter"

func gasAt(h *fakeHistory, t time.Time, state string) {
	h.add(gasEntity, models.Sample{Timestamp: t, State: state})
}

func TestIntegrateEmptyPeriodIsZero(t *testing.T) {
	ci := NewConsumptionIntegrator(newFakeHistory())
	start := time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)

	for _, end := range []time.Time{start, start.Add(-time.Hour)} {
		got, err := ci.Integrate(context.Background(), gasEntity, start, end)
		if err != nil {
			t.Fatalf("integrate: %v", err)
		}
		if got == nil || *got != 0 {
			t.Fatalf("degenerate period = %v, want 0", got)
		}
	}
}

func TestIntegrateSingleReset(t *testing.T) {
	h := newFakeHistory()
	base := time.Date(2026, 1, 14, 22, 0, 0, 0, time.UTC)
	reset := base.Add(4 * time.Hour)

	// Counter climbs 0 -> 90, resets, climbs 0 -> 40.
	gasAt(h, base, "0")
	gasAt(h, base.Add(time.Hour), "30")
	gasAt(h, base.Add(2*time.Hour), "60")
	gasAt(h, base.Add(3*time.Hour), "90")
	gasAt(h, reset, "0")
	gasAt(h, reset.Add(time.Hour), "25")
	gasAt(h, reset.Add(2*time.Hour), "40")

	ci := NewConsumptionIntegrator(h)

	// Full span: pre-reset 90 plus post-reset 40.
	got, err := ci.Integrate(context.Background(), gasEntity, base, reset.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got == nil || *got != 130 {
		t.Fatalf("full span = %v, want 130", got)
	}

	// Sub-period entirely before the reset: plain delta.
	got, err = ci.Integrate(context.Background(), gasEntity, base.Add(time.Hour), base.Add(3*time.Hour).Add(time.Minute))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got == nil || *got != 60 {
		t.Fatalf("pre-reset sub-period = %v, want 60", got)
	}

	// Period straddling the reset: pre-reset remainder plus post-reset amount.
	got, err = ci.Integrate(context.Background(), gasEntity, base.Add(2*time.Hour), reset.Add(time.Hour).Add(time.Minute))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got == nil || *got != 55 { // (90-60) + 25
		t.Fatalf("straddling period = %v, want 55", got)
	}
}

func TestIntegrateNoResetIsDelta(t *testing.T) {
	h := newFakeHistory()
	base := time.Date(2026, 1, 14, 22, 0, 0, 0, time.UTC)
	gasAt(h, base, "100.5")
	gasAt(h, base.Add(time.Hour), "101.25")
	gasAt(h, base.Add(2*time.Hour), "103.75")

	ci := NewConsumptionIntegrator(h)
	got, err := ci.Integrate(context.Background(), gasEntity, base, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got == nil || *got != 3.25 {
		t.Fatalf("delta = %v, want 3.25", got)
	}
}

func TestIntegrateNoStartValueIsUnknown(t *testing.T) {
	h := newFakeHistory()
	start := time.Date(2026, 1, 14, 22, 0, 0, 0, time.UTC)
	// First sample appears an hour into the period: too far from the start
	// to stand in for it.
	gasAt(h, start.Add(time.Hour), "50")
	gasAt(h, start.Add(2*time.Hour), "55")

	ci := NewConsumptionIntegrator(h)
	got, err := ci.Integrate(context.Background(), gasEntity, start, start.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got != nil {
		t.Fatalf("missing start value = %v, want unknown", *got)
	}
}

func TestIntegrateFirstSampleNearStartSeeds(t *testing.T) {
	h := newFakeHistory()
	start := time.Date(2026, 1, 14, 22, 0, 0, 0, time.UTC)
	gasAt(h, start.Add(2*time.Minute), "50")
	gasAt(h, start.Add(time.Hour), "58")

	ci := NewConsumptionIntegrator(h)
	got, err := ci.Integrate(context.Background(), gasEntity, start, start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got == nil || *got != 8 {
		t.Fatalf("seeded delta = %v, want 8", got)
	}
}

func TestIntegrateNoSamplesFallsBackToEdges(t *testing.T) {
	h := newFakeHistory()
	start := time.Date(2026, 1, 14, 22, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	// Last change well before the period; value holds across it.
	gasAt(h, start.Add(-2*time.Hour), "70")

	ci := NewConsumptionIntegrator(h)
	got, err := ci.Integrate(context.Background(), gasEntity, start, end)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got == nil || *got != 0 {
		t.Fatalf("flat counter = %v, want 0", got)
	}
}

func TestIntegrateNoDataIsUnknown(t *testing.T) {
	ci := NewConsumptionIntegrator(newFakeHistory())
	start := time.Date(2026, 1, 14, 22, 0, 0, 0, time.UTC)

	got, err := ci.Integrate(context.Background(), gasEntity, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got != nil {
		t.Fatalf("no data = %v, want unknown", *got)
	}
}

func TestIntegrateSkipsPlaceholderStates(t *testing.T) {
	h := newFakeHistory()
	base := time.Date(2026, 1, 14, 22, 0, 0, 0, time.UTC)
	gasAt(h, base, "10")
	gasAt(h, base.Add(30*time.Minute), "unavailable")
	gasAt(h, base.Add(time.Hour), "14")

	ci := NewConsumptionIntegrator(h)
	got, err := ci.Integrate(context.Background(), gasEntity, base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got == nil || *got != 4 {
		t.Fatalf("with placeholder = %v, want 4", got)
	}
}
