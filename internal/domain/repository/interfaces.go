package repository

import (
	"context"
	"time"

	"HeatCycle/internal/domain/models"
)

// History is the read-only historical data source for raw sensor samples.
// All instants are UTC. Fetches may block; nothing here mutates shared state.
type History interface {
	// RangeQuery returns samples for entityID in [start, end), including a
	// sample at/representing start when one is available. Counter entities
	// return raw values, never derived deltas.
	RangeQuery(ctx context.Context, entityID string, start, end time.Time) (models.TimeSeries, error)
	// PointQuery returns the last sample at or before the instant,
	// or nil when the entity has no state yet.
	PointQuery(ctx context.Context, entityID string, at time.Time) (*models.Sample, error)
}

// RecordStore is the long-term store of computed daily metrics records,
// keyed by calendar day.
type RecordStore interface {
	Save(ctx context.Context, rec *models.DailyMetricsRecord) error
	Range(ctx context.Context, from, to time.Time) ([]models.DailyMetricsRecord, error)
	Latest(ctx context.Context) (*models.DailyMetricsRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// StateStream is a live feed of sensor state changes.
type StateStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Sample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SampleStorage persists raw samples into the history backend.
type SampleStorage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, s *models.Sample) error
	StoreBatch(ctx context.Context, ss []*models.Sample) error
	Health(ctx context.Context) error
	Close() error
}

// SamplePublisher pushes raw samples to a message broker.
type SamplePublisher interface {
	Publish(ctx context.Context, s *models.Sample) error
	PublishBatch(ctx context.Context, ss []*models.Sample) error
	Close() error
}

// RecordPublisher pushes completed daily records to downstream consumers.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, rec *models.DailyMetricsRecord) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordSampleIngested(backend, entityID string)
	RecordError(kind string)
	RecordAnalysisOutcome(outcome string)
	RecordLatency(op string, seconds float64)
	RecordDailyMetric(name string, value float64)
}
