package usecase

import (
	"context"
	"fmt"
	"time"

	"HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
	"HeatCycle/internal/services/analysis"
	applogger "HeatCycle/pkg/logger"
)

// OptimumUseCase recommends an overnight setpoint from the rolling history
// of daily metrics records. Performance buckets are rebuilt from the store
// on every call; nothing persists between runs.
type OptimumUseCase struct {
	store domrepo.RecordStore
	cfg   *analysis.Config
	l     *applogger.Logger
}

func NewOptimumUseCase(store domrepo.RecordStore, cfg *analysis.Config, l *applogger.Logger) *OptimumUseCase {
	return &OptimumUseCase{store: store, cfg: cfg, l: l}
}

// Recommend returns the best-known setpoint for the given overnight outdoor
// temperature, or nil when no recommendation can be made (unknown
// temperature, no category match, or no bucket meeting the minimum sample
// count).
func (uc *OptimumUseCase) Recommend(ctx context.Context, now time.Time, avgOutdoor *float64) (*models.Recommendation, error) {
	return uc.RecommendOver(ctx, now, avgOutdoor, uc.cfg.HistoryDays)
}

// RecommendOver is Recommend with an explicit history window in days.
func (uc *OptimumUseCase) RecommendOver(ctx context.Context, now time.Time, avgOutdoor *float64, days int) (*models.Recommendation, error) {
	if avgOutdoor == nil {
		uc.l.Info("no recommendation: current outdoor temperature unknown")
		return nil, nil
	}
	if days <= 0 {
		days = uc.cfg.HistoryDays
	}

	from := now.AddDate(0, 0, -days)
	history, err := uc.store.Range(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}

	rec := analysis.RecommendSetpoint(uc.cfg, avgOutdoor, history)
	if rec == nil {
		uc.l.Info("no recommendation from history",
			applogger.String("category", string(uc.cfg.Categorize(avgOutdoor))),
			applogger.Int("history_days", days),
			applogger.Int("records", len(history)),
		)
		return nil, nil
	}
	uc.l.Info("optimum setpoint determined",
		applogger.String("category", string(rec.Category)),
		applogger.Any("setpoint", rec.Setpoint),
		applogger.Any("mean_total_gas", rec.MeanTotalGas),
		applogger.Int("sample_days", rec.SampleDays),
	)
	return rec, nil
}
