package usecase

import (
	"context"
	"fmt"
	"time"

	"HeatCycle/internal/domain/models"
	applogger "HeatCycle/pkg/logger"
)

const backfillChunk = 500

// HistorySource fetches past states for a set of entities.
type HistorySource interface {
	FetchRange(ctx context.Context, entities []string, start, end time.Time) ([]*models.Sample, error)
}

// Backfiller re-seeds a recent window of history through the ingest path so
// downtime does not leave holes in the analysis windows.
type Backfiller struct {
	src      HistorySource
	proc     *SampleProcessor
	entities []string
	window   time.Duration
	l        *applogger.Logger
}

func NewBackfiller(src HistorySource, proc *SampleProcessor, entities []string, window time.Duration, l *applogger.Logger) *Backfiller {
	return &Backfiller{src: src, proc: proc, entities: entities, window: window, l: l}
}

// Run fetches the configured window ending now and stores it in chunks.
// Duplicate rows are tolerated; the history read side always takes the last
// state at an instant.
func (b *Backfiller) Run(ctx context.Context) error {
	if b.window <= 0 || len(b.entities) == 0 {
		return nil
	}

	end := time.Now().UTC()
	start := end.Add(-b.window)
	samples, err := b.src.FetchRange(ctx, b.entities, start, end)
	if err != nil {
		return fmt.Errorf("backfill fetch: %w", err)
	}
	if len(samples) == 0 {
		b.l.Info("backfill: no history returned", applogger.Duration("window", b.window))
		return nil
	}

	for i := 0; i < len(samples); i += backfillChunk {
		j := i + backfillChunk
		if j > len(samples) {
			j = len(samples)
		}
		if err := b.proc.ProcessBatch(ctx, samples[i:j]); err != nil {
			return fmt.Errorf("backfill store: %w", err)
		}
	}

	b.l.Info("backfill complete",
		applogger.Int("samples", len(samples)),
		applogger.Duration("window", b.window),
	)
	return nil
}
