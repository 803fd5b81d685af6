package expiration

import (
	"context"
	"log/slog"
	"time"
)

// Locker guards a scan cycle so only one instance runs it at a time.
// Acquire reports false when another holder has the lock; Release is
// best-effort.
type Locker interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// Scheduler triggers the scanner on a fixed interval. It is a thin wrapper:
// all temporal logic lives in Scanner.RunOnce, which can equally be invoked
// by hand or from a test with a pinned clock.
type Scheduler struct {
	scanner  *Scanner
	interval time.Duration
	lock     Locker
	logger   *slog.Logger
	clock    func() time.Time
}

type SchedulerOption func(*Scheduler)

// WithLock makes the scheduler skip a cycle when another instance holds the
// scan lock. Without it every instance scans; the scan itself is idempotent,
// but duplicate emails are worth avoiding.
func WithLock(lock Locker) SchedulerOption {
	return func(s *Scheduler) { s.lock = lock }
}

func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

func WithSchedulerClock(clock func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.clock = clock }
}

func NewScheduler(scanner *Scanner, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		scanner:  scanner,
		interval: interval,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans immediately, then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, s.interval)
		if err != nil {
			s.logger.Error("scan lock unavailable, skipping cycle", "error", err)
			return
		}
		if !acquired {
			s.logger.Info("scan lock held elsewhere, skipping cycle")
			return
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				s.logger.Error("failed to release scan lock", "error", err)
			}
		}()
	}

	notifications, err := s.scanner.RunOnce(ctx, s.clock())
	if err != nil {
		// Surfacing stops here: the next tick retries.
		s.logger.Error("expiration scan failed", "error", err)
		return
	}
	s.logger.Info("expiration scan dispatched notifications", "count", len(notifications))
}
