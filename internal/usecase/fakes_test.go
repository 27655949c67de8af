package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"HeatCycle/internal/domain/models"
	applogger "HeatCycle/pkg/logger"
	"HeatCycle/pkg/util"
)

// fakeHistory serves canned series per entity with the History contract:
// range queries carry the last state at/before start, point queries return
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
	sort.SliceStable(f.series[entityID], func(i, j int) bool {
		return f.series[entityID][i].Timestamp.Before(f.series[entityID][j].Timestamp)
	})
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

// fakeMetrics counts calls by label.
type fakeMetrics struct {
	mu       sync.Mutex
	errors   map[string]int
	outcomes map[string]int
	gauges   map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		errors:   make(map[string]int),
		outcomes: make(map[string]int),
		gauges:   make(map[string]float64),
	}
}

func (m *fakeMetrics) RecordSampleIngested(string, string) {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordAnalysisOutcome(outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) RecordDailyMetric(name string, value float64) {
	m.mu.Lock()
	m.gauges[name] = value
	m.mu.Unlock()
}

// memRecordStore is an in-memory RecordStore keyed by day.
type memRecordStore struct {
	mu   sync.Mutex
	recs map[string]models.DailyMetricsRecord
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{recs: make(map[string]models.DailyMetricsRecord)}
}

func (s *memRecordStore) Save(_ context.Context, rec *models.DailyMetricsRecord) error {
	s.mu.Lock()
	s.recs[rec.Day.Format("2006-01-02")] = *rec
	s.mu.Unlock()
	return nil
}

func (s *memRecordStore) Range(_ context.Context, from, to time.Time) ([]models.DailyMetricsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DailyMetricsRecord
	for _, r := range s.recs {
		if !r.Day.Before(from) && r.Day.Before(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (s *memRecordStore) Latest(_ context.Context) (*models.DailyMetricsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.DailyMetricsRecord
	for _, r := range s.recs {
		if latest == nil || r.Day.After(latest.Day) {
			cp := r
			latest = &cp
		}
	}
	return latest, nil
}

func (s *memRecordStore) Health(context.Context) error { return nil }
func (s *memRecordStore) Close() error                 { return nil }

// capturePublisher records every published record.
type capturePublisher struct {
	mu        sync.Mutex
	published []models.DailyMetricsRecord
}

func (p *capturePublisher) PublishRecord(_ context.Context, rec *models.DailyMetricsRecord) error {
	p.mu.Lock()
	p.published = append(p.published, *rec)
	p.mu.Unlock()
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func quietLogger() *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

func fptr(v float64) *float64 { return &v }

func mustTOD(t *testing.T, s string) util.TimeOfDay {
	t.Helper()
	tod, err := util.ParseTimeOfDay(s)
	if err != nil {
		t.Fatal(err)
	}
	return tod
}
