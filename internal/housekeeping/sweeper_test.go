package housekeeping

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClearer struct {
	pending int
	calls   int
	err     error
	cutoffs []time.Time
}

func (f *fakeClearer) ClearExpiredSessions(_ context.Context, cutoff time.Time, limit int) (int, error) {
	f.calls++
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return 0, f.err
	}
	n := min(f.pending, limit)
	f.pending -= n
	return n, nil
}

func newTestSweeper(t *testing.T, users sessionClearer) *Sweeper {
	t.Helper()
	s, err := NewSweeper(users, "*/15 * * * *", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestNewSweeper_RejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper(&fakeClearer{}, "every now and then", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestSweep_DrainsInBatches(t *testing.T) {
	users := &fakeClearer{pending: 250}
	s := newTestSweeper(t, users)

	require.Equal(t, 250, s.Sweep(context.Background()))
	require.Equal(t, 3, users.calls)
	require.Zero(t, users.pending)
}

func TestSweep_ExactBatchMakesOneEmptyCall(t *testing.T) {
	users := &fakeClearer{pending: defaultBatchSize}
	s := newTestSweeper(t, users)

	require.Equal(t, defaultBatchSize, s.Sweep(context.Background()))
	require.Equal(t, 2, users.calls)
}

func TestSweep_UsesCurrentTimeAsCutoff(t *testing.T) {
	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	users := &fakeClearer{}
	s := newTestSweeper(t, users)
	s.now = func() time.Time { return fixed }

	s.Sweep(context.Background())
	require.Equal(t, []time.Time{fixed}, users.cutoffs)
}

func TestSweep_StopsOnError(t *testing.T) {
	users := &fakeClearer{pending: 500, err: errors.New("db down")}
	s := newTestSweeper(t, users)

	require.Zero(t, s.Sweep(context.Background()))
	require.Equal(t, 1, users.calls)
}

func TestSweep_CancelledContext(t *testing.T) {
	users := &fakeClearer{pending: 10}
	s := newTestSweeper(t, users)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Zero(t, s.Sweep(ctx))
	require.Zero(t, users.calls)
}

func TestStart_ReturnsOnCancel(t *testing.T) {
	s := newTestSweeper(t, &fakeClearer{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
