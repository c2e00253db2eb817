// Package scheduler runs the hub's periodic work. Each task has its own
// loop and timer, so a slow feed refresh never delays the price tick.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xtrntr/agenthub/internal/metrics"
)

// Task is one unit of periodic work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
	// OnError, if set, is called after a failed cycle.
	OnError func(err error)
}

// Scheduler runs tasks until its context is cancelled.
type Scheduler struct {
	tasks   []Task
	logger  *slog.Logger
	metrics *metrics.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler for tasks.
func New(tasks []Task, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{tasks: tasks, logger: logger, metrics: m}
}

// Start launches one loop per task.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		if t.Run == nil || t.Interval <= 0 {
			s.logger.Info("task disabled", "task", t.Name)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, t)
		s.logger.Info("task started", "task", t.Name, "interval", t.Interval)
	}
}

// Stop cancels every loop and waits for them, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// loop runs once, then sleeps Interval between cycles. A cycle that
// errors or panics is logged and the loop carries on.
func (s *Scheduler) loop(ctx context.Context, t Task) {
	defer s.wg.Done()

	timer := time.NewTimer(t.Interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.runOnce(ctx, t); err != nil {
			s.logger.Warn("task cycle failed", "task", t.Name, "err", err)
			s.metrics.TaskFailed(t.Name)
			if t.OnError != nil {
				t.OnError(err)
			}
		}

		timer.Reset(t.Interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Run(ctx)
}
