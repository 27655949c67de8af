package analysis

import (
	"sort"

	"HeatCycle/internal/domain/models"
)

// performanceKey buckets historical days by outdoor category and observed
// overnight setpoint.
type performanceKey struct {
	category models.TempCategory
	setpoint float64
}

// RecommendSetpoint picks, for the current outdoor conditions, the
// historical overnight setpoint with the lowest mean total consumption among
// setpoints with at least MinDataPoints qualifying days. Buckets are rebuilt
// from scratch on every call. Days missing any of outdoor temperature,
// detected setpoint, or either consumption phase are skipped. Equal means
// resolve to the lowest setpoint (ascending iteration, strictly-lower-mean
// displacement). Returns nil when no recommendation can be made.
func RecommendSetpoint(cfg *Config, currentAvgOutdoor *float64, history []models.DailyMetricsRecord) *models.Recommendation {
	category := cfg.Categorize(currentAvgOutdoor)
	if category == models.TempUnknown {
		return nil
	}

	buckets := make(map[performanceKey][]float64)
	for i := range history {
		rec := &history[i]
		if rec.AvgOutdoorTempOvernight == nil || rec.SetbackSetpoint == nil {
			continue
		}
		total, ok := rec.TotalGas()
		if !ok {
			continue
		}
		key := performanceKey{
			category: cfg.Categorize(rec.AvgOutdoorTempOvernight),
			setpoint: *rec.SetbackSetpoint,
		}
		buckets[key] = append(buckets[key], total)
	}

	setpoints := make([]float64, 0, len(buckets))
	for key := range buckets {
		if key.category == category {
			setpoints = append(setpoints, key.setpoint)
		}
	}
	sort.Float64s(setpoints)

	var best *models.Recommendation
	for _, sp := range setpoints {
		obs := buckets[performanceKey{category: category, setpoint: sp}]
		if len(obs) < cfg.MinDataPoints {
			continue
		}
		sum := 0.0
		for _, v := range obs {
			sum += v
		}
		mean := sum / float64(len(obs))
		if best == nil || mean < best.MeanTotalGas {
			best = &models.Recommendation{
				Category:     category,
				Setpoint:     sp,
				MeanTotalGas: mean,
				SampleDays:   len(obs),
			}
		}
	}
	return best
}
