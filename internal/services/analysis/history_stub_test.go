package analysis

import (
	"context"
	"time"

	"HeatCycle/internal/domain/models"
)

// fakeHistory serves canned series per entity with the History contract:
// range queries include the last state at/before start, point queries return
// the last state at or before the instant.
type fakeHistory struct {
	series map[string]models.TimeSeries
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{series: make(map[string]models.TimeSeries)}
}

func (f *fakeHistory) add(entityID string, s models.Sample) {
	s.EntityID = entityID
	f.series[entityID] = append(f.series[entityID], s)
}

func (f *fakeHistory) RangeQuery(_ context.Context, entityID string, start, end time.Time) (models.TimeSeries, error) {
	var out models.TimeSeries
	var carried *models.Sample
	for _, s := range f.series[entityID] {
		if s.Timestamp.Before(start) {
			cp := s
			carried = &cp
			continue
		}
		if !s.Timestamp.Before(end) {
			break
		}
		out = append(out, s)
	}
	if carried != nil {
		out = append(models.TimeSeries{*carried}, out...)
	}
	return out, nil
}

func (f *fakeHistory) PointQuery(_ context.Context, entityID string, at time.Time) (*models.Sample, error) {
	var found *models.Sample
	for _, s := range f.series[entityID] {
		if s.Timestamp.After(at) {
			break
		}
		cp := s
		found = &cp
	}
	return found, nil
}
