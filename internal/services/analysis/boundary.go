package analysis

import (
	"context"
	"fmt"
	"time"

	"HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
	applogger "HeatCycle/pkg/logger"
)

// recoveryLookback widens the indoor-temperature fetch slightly before the
// detected recovery start so the first in-phase reading is never missed.
const recoveryLookback = time.Minute

// BoundaryDetector finds the boundaries of one overnight setback/recovery
// cycle in the setpoint and indoor-temperature series. The three phases run
// in sequence; a phase that exhausts its window abandons the rest of the
// day's detection ("no cycle observed", not an error).
type BoundaryDetector struct {
	cfg       *Config
	hist      domrepo.History
	climateID string
	indoorID  string
	l         *applogger.Logger
}

func NewBoundaryDetector(cfg *Config, hist domrepo.History, climateID, indoorID string) *BoundaryDetector {
	return &BoundaryDetector{cfg: cfg, hist: hist, climateID: climateID, indoorID: indoorID}
}

// SetLogger injects a structured logger.
func (d *BoundaryDetector) SetLogger(l *applogger.Logger) { d.l = l }

// Detect scans the climate history inside the resolved windows. The returned
// boundaries are populated in order and never retracted; any prefix of them
// may be nil.
func (d *BoundaryDetector) Detect(ctx context.Context, w *Windows) (*models.CycleBoundaries, error) {
	b := &models.CycleBoundaries{}

	climate, err := d.hist.RangeQuery(ctx, d.climateID, w.Query.Start, w.Query.End)
	if err != nil {
		return nil, fmt.Errorf("climate range query: %w", err)
	}
	if len(climate) == 0 {
		d.info("no climate history in query window", w.Query.Start, w.Query.End)
		return b, nil
	}

	if err := d.detectSetbackStart(ctx, b, climate, w.SetbackSearch); err != nil {
		return nil, err
	}
	if b.SetbackStart == nil {
		d.info("setback start not detected", w.SetbackSearch.Start, w.SetbackSearch.End)
		return b, nil
	}

	d.detectRecoveryStart(b, climate, w.RecoverySearch)
	if b.RecoveryStart == nil {
		d.info("recovery start not detected", w.RecoverySearch.Start, w.RecoverySearch.End)
		return b, nil
	}

	if err := d.detectRecoveryEnd(ctx, b, climate, w.MaxRecoveryEnd); err != nil {
		return nil, err
	}
	return b, nil
}

// detectSetbackStart looks for the first significant setpoint drop landing in
// the typical setback band. The baseline is seeded from the last known
// setpoint strictly before the search window and updated by every sample
// before (but never inside-and-triggering or after) the window.
func (d *BoundaryDetector) detectSetbackStart(ctx context.Context, b *models.CycleBoundaries, climate models.TimeSeries, win models.AnalysisWindow) error {
	var baseline *float64

	seedAt := win.Start.Add(-time.Second)
	seed, err := d.hist.PointQuery(ctx, d.climateID, seedAt)
	if err != nil {
		return fmt.Errorf("setback baseline lookup: %w", err)
	}
	if seed != nil && seed.TargetTemp != nil {
		v := *seed.TargetTemp
		baseline = &v
	}

	for _, s := range climate {
		if !win.Contains(s.Timestamp) {
			// Samples before the window keep the baseline current but can
			// never trigger detection.
			if s.Timestamp.Before(win.Start) && s.Timestamp.After(seedAt) && s.TargetTemp != nil {
				v := *s.TargetTemp
				baseline = &v
			}
			continue
		}
		if s.TargetTemp == nil {
			continue
		}
		cur := *s.TargetTemp
		if baseline != nil &&
			*baseline-cur >= d.cfg.SignificantDropC &&
			cur >= d.cfg.TypicalSetbackMin && cur <= d.cfg.TypicalSetbackMax {
			ts := s.Timestamp
			b.SetbackStart = &ts
			b.SetbackSetpoint = &cur
			return nil
		}
		baseline = &cur
	}
	return nil
}

// detectRecoveryStart looks for the first significant setpoint rise reaching
// the typical daytime band, at or after the detected setback start.
func (d *BoundaryDetector) detectRecoveryStart(b *models.CycleBoundaries, climate models.TimeSeries, win models.AnalysisWindow) {
	baseline := b.SetbackSetpoint

	for _, s := range climate {
		if s.Timestamp.Before(*b.SetbackStart) {
			continue
		}
		if !win.Contains(s.Timestamp) {
			if s.Timestamp.Before(win.Start) && s.TargetTemp != nil {
				v := *s.TargetTemp
				baseline = &v
			}
			continue
		}
		if s.TargetTemp == nil {
			continue
		}
		cur := *s.TargetTemp
		if baseline != nil &&
			cur-*baseline >= d.cfg.SignificantRiseC &&
			cur >= d.cfg.TypicalDaytimeMin {
			ts := s.Timestamp
			b.RecoveryStart = &ts
			b.RecoveryTarget = &cur
			return
		}
		baseline = &cur
	}
}

// detectRecoveryEnd declares recovery complete at the first indoor reading
// within tolerance of the daytime target while heating has been idle for the
// minimum sustained duration. If the cutoff is reached while the system is
// still actively heating, recovery is truncated at the cutoff; if it is idle
// there, the end stays unknown.
func (d *BoundaryDetector) detectRecoveryEnd(ctx context.Context, b *models.CycleBoundaries, climate models.TimeSeries, maxEnd time.Time) error {
	recoveryStart := *b.RecoveryStart
	target := *b.RecoveryTarget

	indoor, err := d.hist.RangeQuery(ctx, d.indoorID, recoveryStart.Add(-recoveryLookback), maxEnd)
	if err != nil {
		return fmt.Errorf("indoor range query: %w", err)
	}

	// Climate samples inside the recovery phase, in order.
	var phase models.TimeSeries
	for _, s := range climate {
		if !s.Timestamp.Before(recoveryStart) && !s.Timestamp.After(maxEnd) {
			phase = append(phase, s)
		}
	}

	lastAction := ""
	lastChange := recoveryStart
	next := 0
	if len(phase) > 0 {
		lastAction = phase[0].HVACAction
		lastChange = phase[0].Timestamp
		next = 1
	}

	for _, t := range indoor {
		if t.Timestamp.Before(recoveryStart) {
			continue
		}
		temp, numeric := t.Float()
		if !numeric {
			continue
		}
		// Advance the tracked heating state through every climate change up
		// to this reading.
		for next < len(phase) && !phase[next].Timestamp.After(t.Timestamp) {
			if a := phase[next].HVACAction; a != lastAction {
				lastAction = a
				lastChange = phase[next].Timestamp
			}
			next++
		}
		if temp >= target-d.cfg.RecoveryToleranceC &&
			lastAction != models.HVACActionHeating &&
			t.Timestamp.Sub(lastChange) >= d.cfg.MinIdleForRecovery {
			ts := t.Timestamp
			b.RecoveryEnd = &ts
			return nil
		}
		if !t.Timestamp.Before(maxEnd) {
			break
		}
	}

	// Cutoff fallback: only an actively-heating system forces a truncated
	// end; an idle one leaves the boundary unknown.
	if len(phase) > 0 && phase[len(phase)-1].HVACAction == models.HVACActionHeating {
		b.RecoveryEnd = &maxEnd
	}
	return nil
}

func (d *BoundaryDetector) info(msg string, start, end time.Time) {
	if d.l == nil {
		return
	}
	d.l.Info(msg,
		applogger.String("entity_id", d.climateID),
		applogger.String("start", start.Format(time.RFC3339)),
		applogger.String("end", end.Format(time.RFC3339)),
	)
}
