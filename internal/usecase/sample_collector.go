package usecase

import (
	"context"

	"HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
	mid "HeatCycle/internal/middleware"
)

// SampleCollector reads state changes from the live stream and feeds them
// through the ingest pipeline into the processor.
type SampleCollector struct {
	stream   domrepo.StateStream
	proc     *SampleProcessor
	metrics  domrepo.Metrics
	pipe     *mid.IngestPipeline
	backfill *Backfiller
}

func NewSampleCollector(stream domrepo.StateStream, proc *SampleProcessor, metrics domrepo.Metrics, pipe *mid.IngestPipeline) *SampleCollector {
	return &SampleCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// SetBackfiller attaches an optional history backfill that runs once after
// the stream comes up.
func (c *SampleCollector) SetBackfiller(b *Backfiller) { c.backfill = b }

// IsConnected reports whether the state stream is connected.
func (c *SampleCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *SampleCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	if c.backfill != nil {
		go func() {
			if err := c.backfill.Run(ctx); err != nil {
				c.metrics.RecordError("backfill")
			}
		}()
	}
	sCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, sCh, errCh)
	return nil
}

func (c *SampleCollector) consume(ctx context.Context, sCh <-chan *models.Sample, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case s := <-sCh:
			if s == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, s)
			} else {
				_ = c.proc.Process(ctx, s)
			}
		}
	}
}

// Processor returns the underlying SampleProcessor for lifecycle management.
func (c *SampleCollector) Processor() *SampleProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *SampleCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
