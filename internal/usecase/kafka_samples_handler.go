package usecase

import (
	"context"
	"encoding/json"
	"time"

	"HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
	pkgkafka "HeatCycle/pkg/kafka"
)

// KafkaSamplesHandler consumes sample messages from the states topic and
// writes them to storage. Messages follow the Sample JSON schema produced
// by the Kafka sample publisher.
type KafkaSamplesHandler struct {
	topic   string
	storage domrepo.SampleStorage
	metrics domrepo.Metrics
}

func NewKafkaSamplesHandler(topic string, storage domrepo.SampleStorage, metrics domrepo.Metrics) *KafkaSamplesHandler {
	return &KafkaSamplesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSamplesHandler) Topic() string { return h.topic }

func (h *KafkaSamplesHandler) Handle(ctx context.Context, b []byte) error {
	var s models.Sample
	if err := json.Unmarshal(b, &s); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(s.Timestamp).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &s)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordSampleIngested("clickhouse", s.EntityID)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSamplesHandler)(nil)
