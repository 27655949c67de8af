package usecase

import (
	"context"
	"fmt"
	"time"

	"HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
)

// SampleProcessor routes incoming samples to the configured backend:
// straight into ClickHouse, or through Kafka for the consumer to store.
type SampleProcessor struct {
	pub     domrepo.SamplePublisher
	store   domrepo.SampleStorage
	metrics domrepo.Metrics
	backend string
}

func NewSampleProcessor(
	pub domrepo.SamplePublisher,
	store domrepo.SampleStorage,
	metrics domrepo.Metrics,
	backend string,
) *SampleProcessor {
	return &SampleProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single sample to the configured backend.
func (p *SampleProcessor) Process(ctx context.Context, s *models.Sample) error {
	if s == nil {
		return fmt.Errorf("sample is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, s)
	case "clickhouse":
		err = p.store.Store(ctx, s)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process sample: %w", err)
	}

	p.metrics.RecordSampleIngested(p.backend, s.EntityID)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple samples in one backend call.
func (p *SampleProcessor) ProcessBatch(ctx context.Context, ss []*models.Sample) error {
	if len(ss) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, ss)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, ss)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, s := range ss {
		p.metrics.RecordSampleIngested(p.backend, s.EntityID)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes the underlying resources if present.
func (p *SampleProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
