package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type (
	// DigestScheduler queues the digests that are due.
	DigestScheduler interface {
		ScheduleDue(ctx context.Context) (int, error)
	}

	// SessionCleaner removes expired sessions.
	SessionCleaner interface {
		CleanupSessions(ctx context.Context) (int64, error)
	}
)

var ErrSchedulerRunning = errors.New("scheduler is already running")

// Scheduler runs the digest and session cleanup jobs on a fixed interval.
type Scheduler struct {
	digests  DigestScheduler
	sessions SessionCleaner
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(digests DigestScheduler, sessions SessionCleaner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{digests: digests, sessions: sessions, interval: interval}
}

// Start runs one tick immediately and then one per interval until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Scheduler started", "interval", s.interval)
	return nil
}

// Stop signals the loop and waits for the current tick to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Scheduler stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logTick(ctx, s.Tick(ctx))
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logTick(ctx, s.Tick(ctx))
		}
	}
}

func (s *Scheduler) logTick(ctx context.Context, err error) {
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Scheduler tick failed", "error", err)
	}
}

// Tick queues due digests and deletes expired sessions. Both jobs run even
// when the other fails.
func (s *Scheduler) Tick(ctx context.Context) error {
	var errs []error

	if s.digests != nil {
		queued, err := s.digests.ScheduleDue(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule digests: %w", err))
		}
		if queued > 0 {
			slog.InfoContext(ctx, "Weekly digests queued", "count", queued)
		}
	}

	if s.sessions != nil {
		removed, err := s.sessions.CleanupSessions(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("cleanup sessions: %w", err))
		}
		if removed > 0 {
			slog.InfoContext(ctx, "Expired sessions removed", "count", removed)
		}
	}

	return errors.Join(errs...)
}
