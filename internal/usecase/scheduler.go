package usecase

import (
	"context"
	"time"

	applogger "HeatCycle/pkg/logger"
	"HeatCycle/pkg/util"
)

// DailyScheduler fires the analyzer once per local day at a fixed
// time-of-day. The run time must be at or after the latest possible
// recovery end, otherwise the day under analysis is still in progress.
type DailyScheduler struct {
	analyzer *AnalyzerUseCase
	runAt    util.TimeOfDay
	loc      *time.Location
	l        *applogger.Logger
}

func NewDailyScheduler(analyzer *AnalyzerUseCase, runAt util.TimeOfDay, loc *time.Location, l *applogger.Logger) *DailyScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &DailyScheduler{analyzer: analyzer, runAt: runAt, loc: loc, l: l}
}

// Start blocks until ctx is cancelled, running the analyzer at each local
// occurrence of the configured time-of-day. A failed run is logged and the
// scheduler keeps going; the next day retries naturally.
func (s *DailyScheduler) Start(ctx context.Context) {
	for {
		now := time.Now().In(s.loc)
		next := s.nextRun(now)
		s.l.Info("next analysis scheduled",
			applogger.String("at", next.Format(time.RFC3339)))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.analyzer.Run(ctx, time.Now()); err != nil {
			s.l.Error("scheduled analysis failed", applogger.Error(err))
		}
	}
}

func (s *DailyScheduler) nextRun(now time.Time) time.Time {
	next := s.runAt.On(now)
	if !next.After(now) {
		next = s.runAt.On(now.AddDate(0, 0, 1))
	}
	return next
}
