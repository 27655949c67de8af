package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
	applogger "HeatCycle/pkg/logger"
)

// startSeedSlack is how far after the period start the first in-period
// counter sample may sit and still serve as the starting value when no
// state exists at the start itself.
const startSeedSlack = 5 * time.Minute

// ConsumptionIntegrator computes net consumption over a period from a
// monotonically-increasing counter that resets to near-zero periodically.
type ConsumptionIntegrator struct {
	hist domrepo.History
	l    *applogger.Logger
}

func NewConsumptionIntegrator(hist domrepo.History) *ConsumptionIntegrator {
	return &ConsumptionIntegrator{hist: hist}
}

// SetLogger injects a structured logger.
func (ci *ConsumptionIntegrator) SetLogger(l *applogger.Logger) { ci.l = l }

// Integrate returns the total consumed in [start, end). A nil result means
// the amount is unknown (no reliable starting value, unparseable counter
// states, or an ambiguous reset), never substituted with zero. Exactly zero
// is returned only for a degenerate or genuinely zero-usage period.
func (ci *ConsumptionIntegrator) Integrate(ctx context.Context, entityID string, start, end time.Time) (*float64, error) {
	if entityID == "" {
		return nil, fmt.Errorf("consumption entity id required")
	}
	if !start.Before(end) {
		return ptr(0), nil
	}

	states, err := ci.hist.RangeQuery(ctx, entityID, start, end)
	if err != nil {
		return nil, fmt.Errorf("consumption range query %s: %w", entityID, err)
	}
	if len(states) == 0 {
		return ci.integrateWithoutSamples(ctx, entityID, start, end)
	}

	prev, ok, err := ci.seedStartValue(ctx, entityID, start, states)
	if err != nil {
		return nil, err
	}
	if !ok {
		ci.warn("no reliable starting counter value", entityID, start, end)
		return nil, nil
	}

	total := 0.0
	for _, s := range states {
		if !s.Timestamp.After(start) {
			continue
		}
		if s.Timestamp.After(end) {
			break
		}
		cur, numeric := s.Float()
		if !numeric {
			continue
		}
		if cur < prev {
			// Counter reset: everything since the reset is what this
			// sample shows.
			total += cur
		} else {
			total += cur - prev
		}
		prev = cur
	}
	return ptr(round(total, 3)), nil
}

// integrateWithoutSamples falls back to point lookups at both period edges
// when no counter state changed inside the period.
func (ci *ConsumptionIntegrator) integrateWithoutSamples(ctx context.Context, entityID string, start, end time.Time) (*float64, error) {
	startSample, err := ci.hist.PointQuery(ctx, entityID, start)
	if err != nil {
		return nil, fmt.Errorf("consumption start lookup %s: %w", entityID, err)
	}
	endSample, err := ci.hist.PointQuery(ctx, entityID, end)
	if err != nil {
		return nil, fmt.Errorf("consumption end lookup %s: %w", entityID, err)
	}
	if startSample == nil || endSample == nil {
		return nil, nil
	}
	startVal, okS := startSample.Float()
	endVal, okE := endSample.Float()
	if !okS || !okE {
		return nil, nil
	}
	if endVal < startVal {
		// A reset happened with no intermediate samples; the pre-reset
		// accumulation is unrecoverable.
		ci.warn("counter reset with no intermediate samples", entityID, start, end)
		return nil, nil
	}
	return ptr(round(endVal-startVal, 3)), nil
}

// seedStartValue establishes the counter value at the period start: the last
// state at or before start, else the first in-period sample when it is close
// enough to the start to stand in for it.
func (ci *ConsumptionIntegrator) seedStartValue(ctx context.Context, entityID string, start time.Time, states models.TimeSeries) (float64, bool, error) {
	s, err := ci.hist.PointQuery(ctx, entityID, start)
	if err != nil {
		return 0, false, fmt.Errorf("consumption start lookup %s: %w", entityID, err)
	}
	if s != nil {
		if v, ok := s.Float(); ok {
			return v, true, nil
		}
		return 0, false, nil
	}
	if first := states[0]; !first.Timestamp.After(start.Add(startSeedSlack)) {
		if v, ok := first.Float(); ok {
			return v, true, nil
		}
	}
	return 0, false, nil
}

func (ci *ConsumptionIntegrator) warn(msg, entityID string, start, end time.Time) {
	if ci.l == nil {
		return
	}
	ci.l.Warn(msg,
		applogger.String("entity_id", entityID),
		applogger.String("start", start.Format(time.RFC3339)),
		applogger.String("end", end.Format(time.RFC3339)),
	)
}

func ptr(v float64) *float64 { return &v }

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
