package analysis

import (
	"context"
	"testing"
	"time"

	"HeatCycle/internal/domain/models"
)

const (
	climateEntity = "climate.living_room"
	indoorEntity  = "sensor.living_room_temp"
)

func setpointAt(h *fakeHistory, t time.Time, target float64, action string) {
	h.add(climateEntity, models.Sample{Timestamp: t, State: "heat", TargetTemp: &target, HVACAction: action})
}

func indoorAt(h *fakeHistory, t time.Time, state string) {
	h.add(indoorEntity, models.Sample{Timestamp: t, State: state})
}

// testWindows resolves windows for analysis day 2026-01-15 UTC with default
// boundaries: setback search Jan 14 20:00 -> Jan 15 00:00, recovery search
// 05:00 -> 09:00, cutoff 10:00.
func testWindows(t *testing.T) *Windows {
	t.Helper()
	r := testResolver(t, testConfig(t))
	return r.ForDay(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
}

func detect(t *testing.T, h *fakeHistory) *models.CycleBoundaries {
	t.Helper()
	d := NewBoundaryDetector(testConfig(t), h, climateEntity, indoorEntity)
	b, err := d.Detect(context.Background(), testWindows(t))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	return b
}

func TestDetectSetbackStart(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)

	// Baseline before the window, a non-qualifying nudge, then the real drop.
	setpointAt(h, evening.Add(19*time.Hour), 21.0, models.HVACActionHeating)
	setpointAt(h, evening.Add(21*time.Hour), 20.2, models.HVACActionHeating) // 0.8 drop, too small
	dropAt := evening.Add(22*time.Hour + 30*time.Minute)
	setpointAt(h, dropAt, 13.0, models.HVACActionIdle)

	b := detect(t, h)
	if b.SetbackStart == nil || !b.SetbackStart.Equal(dropAt) {
		t.Fatalf("setback start = %v, want %v", b.SetbackStart, dropAt)
	}
	if b.SetbackSetpoint == nil || *b.SetbackSetpoint != 13.0 {
		t.Fatalf("setback setpoint = %v, want 13.0", b.SetbackSetpoint)
	}
}

func TestSmallDropNeverTriggers(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)

	setpointAt(h, evening.Add(19*time.Hour), 14.0, models.HVACActionHeating)
	// 0.5 drop inside the typical setback band: below the threshold.
	setpointAt(h, evening.Add(22*time.Hour), 13.5, models.HVACActionIdle)

	b := detect(t, h)
	if b.SetbackStart != nil {
		t.Fatalf("setback start = %v, want none", *b.SetbackStart)
	}
	if b.RecoveryStart != nil || b.RecoveryEnd != nil {
		t.Fatalf("downstream boundaries set despite no setback start")
	}
}

func TestDropOutsideSetbackBandIgnored(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)

	setpointAt(h, evening.Add(19*time.Hour), 23.0, models.HVACActionHeating)
	// Large drop, but 18 is above the typical setback band [12, 16]:
	// an unrelated setpoint edit, not an overnight setback.
	setpointAt(h, evening.Add(22*time.Hour), 18.0, models.HVACActionHeating)

	b := detect(t, h)
	if b.SetbackStart != nil {
		t.Fatalf("setback start = %v, want none", *b.SetbackStart)
	}
}

func TestDropOutsideWindowUpdatesBaselineOnly(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)

	setpointAt(h, evening.Add(17*time.Hour), 21.0, models.HVACActionHeating)
	// Qualifying drop at 19:00, an hour before the search window opens:
	// becomes the new baseline, never a detection.
	setpointAt(h, evening.Add(19*time.Hour), 13.0, models.HVACActionIdle)
	// Inside the window the setpoint only holds; no further drop.
	setpointAt(h, evening.Add(22*time.Hour), 13.0, models.HVACActionIdle)

	b := detect(t, h)
	if b.SetbackStart != nil {
		t.Fatalf("setback start = %v, want none", *b.SetbackStart)
	}
}

func TestDetectRecoveryStart(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	setpointAt(h, evening.Add(19*time.Hour), 21.0, models.HVACActionHeating)
	setpointAt(h, evening.Add(22*time.Hour), 13.0, models.HVACActionIdle)
	riseAt := morning.Add(6*time.Hour + 30*time.Minute)
	setpointAt(h, riseAt, 21.0, models.HVACActionHeating)

	b := detect(t, h)
	if b.RecoveryStart == nil || !b.RecoveryStart.Equal(riseAt) {
		t.Fatalf("recovery start = %v, want %v", b.RecoveryStart, riseAt)
	}
	if b.RecoveryTarget == nil || *b.RecoveryTarget != 21.0 {
		t.Fatalf("recovery target = %v, want 21.0", b.RecoveryTarget)
	}
}

func TestRiseBelowDaytimeMinIgnored(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	setpointAt(h, evening.Add(19*time.Hour), 21.0, models.HVACActionHeating)
	setpointAt(h, evening.Add(22*time.Hour), 13.0, models.HVACActionIdle)
	// A 2-degree bump that still sits below the typical daytime minimum.
	setpointAt(h, morning.Add(6*time.Hour), 15.0, models.HVACActionHeating)

	b := detect(t, h)
	if b.SetbackStart == nil {
		t.Fatalf("expected setback start")
	}
	if b.RecoveryStart != nil {
		t.Fatalf("recovery start = %v, want none", *b.RecoveryStart)
	}
}

func TestRecoveryEndRequiresSustainedIdle(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	setpointAt(h, evening.Add(19*time.Hour), 21.0, models.HVACActionHeating)
	setpointAt(h, evening.Add(22*time.Hour), 13.0, models.HVACActionIdle)
	setpointAt(h, morning.Add(6*time.Hour+30*time.Minute), 21.0, models.HVACActionHeating)
	idleAt := morning.Add(7*time.Hour + 30*time.Minute)
	setpointAt(h, idleAt, 21.0, models.HVACActionIdle)

	// Within tolerance while still heating: must not end recovery.
	indoorAt(h, morning.Add(7*time.Hour+10*time.Minute), "20.8")
	// Idle, but only 5 minutes so far.
	indoorAt(h, idleAt.Add(5*time.Minute), "20.6")
	// Idle for 15 minutes >= the 10 minute floor: recovery ends here.
	endAt := idleAt.Add(15 * time.Minute)
	indoorAt(h, endAt, "20.7")

	b := detect(t, h)
	if b.RecoveryEnd == nil || !b.RecoveryEnd.Equal(endAt) {
		t.Fatalf("recovery end = %v, want %v", b.RecoveryEnd, endAt)
	}
}

func TestRecoveryEndTruncatedWhileStillHeating(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	setpointAt(h, evening.Add(19*time.Hour), 21.0, models.HVACActionHeating)
	setpointAt(h, evening.Add(22*time.Hour), 13.0, models.HVACActionIdle)
	setpointAt(h, morning.Add(6*time.Hour+30*time.Minute), 21.0, models.HVACActionHeating)

	// The room never reaches target; the boiler keeps firing past the cutoff.
	indoorAt(h, morning.Add(8*time.Hour), "18.2")
	indoorAt(h, morning.Add(9*time.Hour+30*time.Minute), "19.1")

	b := detect(t, h)
	cutoff := morning.Add(10 * time.Hour)
	if b.RecoveryEnd == nil || !b.RecoveryEnd.Equal(cutoff) {
		t.Fatalf("recovery end = %v, want truncation at %v", b.RecoveryEnd, cutoff)
	}
}

func TestRecoveryEndAbsentWhenIdleAtCutoff(t *testing.T) {
	h := newFakeHistory()
	evening := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	setpointAt(h, evening.Add(19*time.Hour), 21.0, models.HVACActionHeating)
	setpointAt(h, evening.Add(22*time.Hour), 13.0, models.HVACActionIdle)
	setpointAt(h, morning.Add(6*time.Hour+30*time.Minute), 21.0, models.HVACActionHeating)
	// Heating goes idle just before the cutoff, but the room never reaches
	// target - tolerance, so no sample triggers the end condition.
	setpointAt(h, morning.Add(9*time.Hour+55*time.Minute), 21.0, models.HVACActionIdle)

	indoorAt(h, morning.Add(9*time.Hour), "19.0")

	b := detect(t, h)
	if b.RecoveryEnd != nil {
		t.Fatalf("recovery end = %v, want absent", *b.RecoveryEnd)
	}
	if b.RecoveryStart == nil {
		t.Fatalf("recovery start should remain detected")
	}
}

func TestNoClimateHistoryYieldsEmptyBoundaries(t *testing.T) {
	b := detect(t, newFakeHistory())
	if b.SetbackStart != nil || b.RecoveryStart != nil || b.RecoveryEnd != nil {
		t.Fatalf("expected empty boundaries, got %+v", b)
	}
}
