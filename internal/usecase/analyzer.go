package usecase

import (
	"context"
	"fmt"
	"time"

	"HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
	"HeatCycle/internal/service/recordcache"
	applogger "HeatCycle/pkg/logger"
)

// AnalyzerUseCase runs the full daily pipeline: compute the record for the
// analysis day, attach the optimum-setpoint recommendation, persist the
// record, then fan it out to the broker and the cache. Persistence failure
// is fatal; fan-out failures are logged and absorbed.
type AnalyzerUseCase struct {
	daily     *DailyMetricsUseCase
	optimum   *OptimumUseCase
	store     domrepo.RecordStore
	publisher domrepo.RecordPublisher
	cache     *recordcache.RecordCache
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewAnalyzerUseCase(
	daily *DailyMetricsUseCase,
	optimum *OptimumUseCase,
	store domrepo.RecordStore,
	publisher domrepo.RecordPublisher,
	cache *recordcache.RecordCache,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *AnalyzerUseCase {
	return &AnalyzerUseCase{
		daily:     daily,
		optimum:   optimum,
		store:     store,
		publisher: publisher,
		cache:     cache,
		metrics:   metrics,
		l:         l,
	}
}

// Run analyzes the day resolved from "now".
func (uc *AnalyzerUseCase) Run(ctx context.Context, now time.Time) (*models.DailyMetricsRecord, error) {
	started := time.Now()
	rec, err := uc.daily.Compute(ctx, now)
	return uc.finish(ctx, now, rec, err, started)
}

// RunDay analyzes an explicit calendar day, used for backfills and the
// manual trigger endpoint.
func (uc *AnalyzerUseCase) RunDay(ctx context.Context, day time.Time) (*models.DailyMetricsRecord, error) {
	started := time.Now()
	rec, err := uc.daily.ComputeDay(ctx, day)
	return uc.finish(ctx, time.Now(), rec, err, started)
}

func (uc *AnalyzerUseCase) finish(ctx context.Context, now time.Time, rec *models.DailyMetricsRecord, err error, started time.Time) (*models.DailyMetricsRecord, error) {
	defer func() {
		uc.metrics.RecordLatency("daily_analysis", time.Since(started).Seconds())
	}()
	if err != nil {
		uc.metrics.RecordError("daily_analysis")
		return rec, err
	}

	uc.attachRecommendation(ctx, now, rec)

	if err := uc.store.Save(ctx, rec); err != nil {
		uc.metrics.RecordError("record_save")
		return rec, fmt.Errorf("save daily record: %w", err)
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishRecord(ctx, rec); err != nil {
			uc.metrics.RecordError("record_publish")
			uc.l.Warn("record publish failed", applogger.Error(err))
		}
	}
	if uc.cache != nil {
		if err := uc.cache.SetLatest(rec); err != nil {
			uc.l.Warn("record cache update failed", applogger.Error(err))
		}
	}

	uc.exportGauges(rec)
	uc.l.Info("daily analysis finished",
		applogger.String("day", rec.Day.Format("2006-01-02")),
		applogger.Bool("cycle_detected", rec.CycleDetected()),
	)
	return rec, nil
}

func (uc *AnalyzerUseCase) attachRecommendation(ctx context.Context, now time.Time, rec *models.DailyMetricsRecord) {
	r, err := uc.optimum.Recommend(ctx, now, rec.AvgOutdoorTempOvernight)
	if err != nil {
		uc.metrics.RecordError("recommendation")
		uc.l.Warn("recommendation failed", applogger.Error(err))
		return
	}
	if r == nil {
		return
	}
	rec.OptimumSetpoint = &r.Setpoint
	if uc.cache != nil {
		if err := uc.cache.SetRecommendation(r); err != nil {
			uc.l.Warn("recommendation cache update failed", applogger.Error(err))
		}
	}
}

func (uc *AnalyzerUseCase) exportGauges(rec *models.DailyMetricsRecord) {
	gauge := func(name string, v *float64) {
		if v != nil {
			uc.metrics.RecordDailyMetric(name, *v)
		}
	}
	gauge("avg_outdoor_temp_overnight", rec.AvgOutdoorTempOvernight)
	gauge("min_indoor_temp_setback", rec.MinIndoorTempSetback)
	gauge("gas_overnight", rec.GasOvernight)
	gauge("gas_recovery", rec.GasRecovery)
	gauge("setback_setpoint_detected", rec.SetbackSetpoint)
	gauge("daytime_target_detected", rec.DaytimeTarget)
	gauge("optimum_setpoint", rec.OptimumSetpoint)
}
