package housekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/goosetrack/goosetrack-api/internal/metrics"
)

const defaultBatchSize = 100

type sessionClearer interface {
	ClearExpiredSessions(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// Sweeper clears sessions whose refresh token has expired, so stale tokens do
// not linger in the user store.
type Sweeper struct {
	users     sessionClearer
	schedule  cron.Schedule
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// NewSweeper parses expr as a standard five-field cron expression.
func NewSweeper(users sessionClearer, expr string, logger *slog.Logger) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", expr, err)
	}
	return &Sweeper{
		users:     users,
		schedule:  schedule,
		batchSize: defaultBatchSize,
		logger:    logger.With("component", "sweeper"),
		now:       time.Now,
	}, nil
}

// Start runs a sweep at every scheduled time until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	c := cron.New()
	c.Schedule(s.schedule, cron.FuncJob(func() { s.Sweep(ctx) }))
	c.Start()

	s.logger.Info("sweeper started", "next_run", s.schedule.Next(s.now()))

	<-ctx.Done()
	// wait for a running sweep to finish
	<-c.Stop().Done()
	s.logger.Info("sweeper shut down")
}

// Sweep clears expired sessions in batches until a batch comes back short.
// Returns the number of sessions cleared.
func (s *Sweeper) Sweep(ctx context.Context) int {
	start := s.now()
	defer func() {
		metrics.SweepCycleDuration.Observe(time.Since(start).Seconds())
	}()

	total := 0
	for ctx.Err() == nil {
		n, err := s.users.ClearExpiredSessions(ctx, s.now(), s.batchSize)
		if err != nil {
			s.logger.ErrorContext(ctx, "clear expired sessions", "error", err)
			break
		}
		total += n
		metrics.SweptSessionsTotal.Add(float64(n))
		if n < s.batchSize {
			break
		}
	}

	if total > 0 {
		s.logger.InfoContext(ctx, "cleared expired sessions", "count", total)
	}
	return total
}
