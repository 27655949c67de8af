package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
	"HeatCycle/internal/services/analysis"
	applogger "HeatCycle/pkg/logger"
)

// Entities names the four sensor entities one configured home is analyzed
// from.
type Entities struct {
	IndoorTemp  string
	OutdoorTemp string
	Climate     string
	GasMeter    string
}

// DailyMetricsUseCase computes one DailyMetricsRecord per analysis day:
// resolve windows, detect cycle boundaries, then derive temperatures and
// consumption for the detected phases. Every stage that fails to detect its
// boundary short-circuits the rest, leaving later fields absent rather than
// guessed.
type DailyMetricsUseCase struct {
	resolver *analysis.WindowResolver
	detector *analysis.BoundaryDetector
	gas      *analysis.ConsumptionIntegrator
	hist     domrepo.History
	entities Entities
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewDailyMetricsUseCase(
	resolver *analysis.WindowResolver,
	detector *analysis.BoundaryDetector,
	gas *analysis.ConsumptionIntegrator,
	hist domrepo.History,
	entities Entities,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *DailyMetricsUseCase {
	return &DailyMetricsUseCase{
		resolver: resolver,
		detector: detector,
		gas:      gas,
		hist:     hist,
		entities: entities,
		metrics:  metrics,
		l:        l,
	}
}

// Compute resolves the analysis day from "now" and computes its record.
func (uc *DailyMetricsUseCase) Compute(ctx context.Context, now time.Time) (*models.DailyMetricsRecord, error) {
	return uc.computeWindows(ctx, uc.resolver.Resolve(now))
}

// ComputeDay computes the record for an explicit analysis day.
func (uc *DailyMetricsUseCase) ComputeDay(ctx context.Context, day time.Time) (*models.DailyMetricsRecord, error) {
	return uc.computeWindows(ctx, uc.resolver.ForDay(day))
}

func (uc *DailyMetricsUseCase) computeWindows(ctx context.Context, w *analysis.Windows) (*models.DailyMetricsRecord, error) {
	rec := &models.DailyMetricsRecord{Day: w.AnalysisDay}

	bounds, err := uc.detector.Detect(ctx, w)
	if err != nil {
		return rec, fmt.Errorf("boundary detection: %w", err)
	}
	rec.SetbackStart = bounds.SetbackStart
	rec.SetbackSetpoint = bounds.SetbackSetpoint
	rec.RecoveryStart = bounds.RecoveryStart
	rec.DaytimeTarget = bounds.RecoveryTarget
	rec.RecoveryEnd = bounds.RecoveryEnd

	if !rec.CycleDetected() {
		uc.metrics.RecordAnalysisOutcome("no_cycle")
		uc.l.Info("no setback cycle observed",
			applogger.String("day", w.AnalysisDay.Format("2006-01-02")))
		return rec, nil
	}

	// Setback phase spans [setback start, recovery start).
	setbackStart := *rec.SetbackStart
	setbackEnd := *rec.RecoveryStart

	uc.computeSetbackTemperatures(ctx, rec, setbackStart, setbackEnd)

	if v, err := uc.gas.Integrate(ctx, uc.entities.GasMeter, setbackStart, setbackEnd); err != nil {
		uc.metrics.RecordError("gas_overnight")
		uc.l.Warn("overnight consumption failed", applogger.Error(err))
	} else {
		rec.GasOvernight = v
	}

	if rec.RecoveryEnd != nil {
		if v, err := uc.gas.Integrate(ctx, uc.entities.GasMeter, setbackEnd, *rec.RecoveryEnd); err != nil {
			uc.metrics.RecordError("gas_recovery")
			uc.l.Warn("recovery consumption failed", applogger.Error(err))
		} else {
			rec.GasRecovery = v
		}
	}

	if rec.AvgOutdoorTempOvernight != nil && rec.GasOvernight != nil && rec.GasRecovery != nil {
		uc.metrics.RecordAnalysisOutcome("complete")
	} else {
		uc.metrics.RecordAnalysisOutcome("partial")
	}
	return rec, nil
}

// computeSetbackTemperatures fills the average outdoor and minimum indoor
// temperature over the setback phase. Fetch failures degrade the specific
// metric to absent; they never abort the rest of the record.
func (uc *DailyMetricsUseCase) computeSetbackTemperatures(ctx context.Context, rec *models.DailyMetricsRecord, start, end time.Time) {
	outdoor, err := uc.hist.RangeQuery(ctx, uc.entities.OutdoorTemp, start, end)
	if err != nil {
		uc.metrics.RecordError("outdoor_history")
		uc.l.Warn("outdoor history fetch failed", applogger.Error(err))
	} else if avg, ok := meanOf(outdoor); ok {
		v := roundTo(avg, 1)
		rec.AvgOutdoorTempOvernight = &v
	}

	indoor, err := uc.hist.RangeQuery(ctx, uc.entities.IndoorTemp, start, end)
	if err != nil {
		uc.metrics.RecordError("indoor_history")
		uc.l.Warn("indoor history fetch failed", applogger.Error(err))
	} else if min, ok := minOf(indoor); ok {
		v := roundTo(min, 2)
		rec.MinIndoorTempSetback = &v
	}
}

func meanOf(ts models.TimeSeries) (float64, bool) {
	sum, n := 0.0, 0
	for _, s := range ts {
		if v, ok := s.Float(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func minOf(ts models.TimeSeries) (float64, bool) {
	best, found := 0.0, false
	for _, s := range ts {
		v, ok := s.Float()
		if !ok {
			continue
		}
		if !found || v < best {
			best = v
			found = true
		}
	}
	return best, found
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
