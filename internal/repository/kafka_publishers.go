package repository

import (
	"context"

	"HeatCycle/internal/domain/models"
	"HeatCycle/internal/domain/repository"
	pkgkafka "HeatCycle/pkg/kafka"
)

// KafkaSamplePublisher implements SamplePublisher for Kafka. Messages are
// keyed by entity id so one entity's states stay ordered within a partition.
type KafkaSamplePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSamplePublisher creates a Kafka sample publisher.
func NewKafkaSamplePublisher(producer *pkgkafka.Producer, topic string) repository.SamplePublisher {
	return &KafkaSamplePublisher{producer: producer, topic: topic}
}

func (p *KafkaSamplePublisher) Publish(ctx context.Context, s *models.Sample) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.EntityID), s)
}

func (p *KafkaSamplePublisher) PublishBatch(ctx context.Context, samples []*models.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(samples))
	for i, s := range samples {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(s.EntityID),
			Value: s,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSamplePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaRecordPublisher implements RecordPublisher for Kafka, keyed by day.
type KafkaRecordPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRecordPublisher creates a Kafka record publisher.
func NewKafkaRecordPublisher(producer *pkgkafka.Producer, topic string) repository.RecordPublisher {
	return &KafkaRecordPublisher{producer: producer, topic: topic}
}

func (p *KafkaRecordPublisher) PublishRecord(ctx context.Context, rec *models.DailyMetricsRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Day.Format("2006-01-02")), rec)
}

func (p *KafkaRecordPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
