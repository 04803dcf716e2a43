// Package jobs runs periodic maintenance work inside the server process.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-booking-engine/internal/lock"
)

// DefaultSchedule is used when the configured schedule does not parse.
const DefaultSchedule = "@every 1m"

const leaderKey = "jobs:hold-sweeper"

// Cleaner removes expired holds; *services.HoldService implements it.
type Cleaner interface {
	CleanupExpiredHolds(ctx context.Context) (int64, error)
}

// HoldSweeper deletes expired slot holds on a cron schedule. Expired holds
// are already ignored by readers, so sweeping only bounds table growth.
type HoldSweeper struct {
	Holds    Cleaner
	Schedule string
	Timeout  time.Duration

	// Leader, when set, makes only one replica sweep per tick.
	Leader lock.Locker

	Logger *zerolog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *HoldSweeper) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	l := log.Logger
	return &l
}

// Start schedules the sweep. Calling Start twice is a no-op.
func (s *HoldSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c := cron.New()
	spec := s.Schedule
	if spec == "" {
		spec = DefaultSchedule
	}
	if _, err := c.AddFunc(spec, func() { s.RunOnce(s.ctx) }); err != nil {
		s.logger().Warn().Err(err).Str("schedule", spec).Msg("hold sweeper: invalid schedule, using default")
		c = cron.New()
		if _, err := c.AddFunc(DefaultSchedule, func() { s.RunOnce(s.ctx) }); err != nil {
			s.cancel()
			return err
		}
	}
	c.Start()
	s.cron = c
	s.logger().Info().Str("schedule", spec).Msg("hold sweeper started")
	return nil
}

// Stop cancels in-flight work and waits for a running sweep to return.
func (s *HoldSweeper) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		<-c.Stop().Done()
		s.logger().Info().Msg("hold sweeper stopped")
	}
}

// RunOnce performs one sweep and returns the number of removed holds.
func (s *HoldSweeper) RunOnce(ctx context.Context) int64 {
	if s.Leader != nil {
		release, err := s.Leader.Obtain(ctx, leaderKey)
		if err != nil {
			s.logger().Debug().Err(err).Msg("hold sweeper: leader lock not obtained")
			return 0
		}
		defer release()
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n, err := s.Holds.CleanupExpiredHolds(ctx)
	if err != nil {
		s.logger().Error().Err(err).Msg("hold sweeper: cleanup failed")
		return 0
	}
	if n > 0 {
		s.logger().Info().Int64("removed", n).Msg("hold sweeper: expired holds removed")
	}
	return n
}
