package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-booking-engine/internal/lock"
)

type countingCleaner struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (c *countingCleaner) CleanupExpiredHolds(context.Context) (int64, error) {
	c.calls.Add(1)
	return c.n, c.err
}

type refusingLocker struct{}

func (refusingLocker) Obtain(context.Context, string) (func(), error) {
	return nil, lock.ErrNotObtained
}

func quietLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestRunOnce(t *testing.T) {
	c := &countingCleaner{n: 3}
	s := &HoldSweeper{Holds: c, Logger: quietLogger()}
	if got := s.RunOnce(context.Background()); got != 3 {
		t.Fatalf("expected 3 removed, got %d", got)
	}

	c.err = errors.New("db down")
	if got := s.RunOnce(context.Background()); got != 0 {
		t.Fatalf("expected 0 on error, got %d", got)
	}
	if c.calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", c.calls.Load())
	}
}

func TestRunOnce_LeaderLock(t *testing.T) {
	c := &countingCleaner{n: 1}
	s := &HoldSweeper{Holds: c, Leader: refusingLocker{}, Logger: quietLogger()}
	if got := s.RunOnce(context.Background()); got != 0 || c.calls.Load() != 0 {
		t.Fatalf("expected no sweep without leadership, got %d calls=%d", got, c.calls.Load())
	}

	s.Leader = lock.Noop{}
	if got := s.RunOnce(context.Background()); got != 1 {
		t.Fatalf("expected sweep as leader, got %d", got)
	}
}

func TestStartStop(t *testing.T) {
	c := &countingCleaner{}
	s := &HoldSweeper{Holds: c, Schedule: "@every 10ms", Logger: quietLogger()}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second start must be a no-op, got %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for c.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()
	if c.calls.Load() == 0 {
		t.Fatalf("expected at least one scheduled sweep")
	}

	after := c.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if c.calls.Load() != after {
		t.Fatalf("expected no sweeps after Stop")
	}
	s.Stop()
}

func TestStart_InvalidScheduleFallsBack(t *testing.T) {
	s := &HoldSweeper{Holds: &countingCleaner{}, Schedule: "not a schedule", Logger: quietLogger()}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("expected fallback to default schedule, got %v", err)
	}
	s.Stop()
}
