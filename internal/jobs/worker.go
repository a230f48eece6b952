// Package jobs runs periodic background tasks next to the HTTP server.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloo-solutions/sevakai/internal/logging"
	"go.uber.org/zap"
)

// Task is one unit of periodic work.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context) error

// Run calls f.
func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }

// Worker runs a Task every interval until its context ends or Stop is called.
// A failing or panicking run is logged and the loop carries on.
type Worker struct {
	name     string
	task     Task
	interval time.Duration
	logger   *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker. A nil logger discards output.
func NewWorker(name string, task Task, interval time.Duration, logger *zap.Logger) *Worker {
	logger = logging.OrNop(logger)
	return &Worker{
		name:     name,
		task:     task,
		interval: interval,
		logger:   logger.With(zap.String("worker", name)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start blocks running the loop. Call it once.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("worker started", zap.Duration("interval", w.interval))

	failures := 0
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped", zap.String("reason", "context done"))
			return
		case <-w.stop:
			w.logger.Info("worker stopped", zap.String("reason", "stop requested"))
			return
		case <-ticker.C:
			start := time.Now()
			if err := w.runOnce(ctx); err != nil {
				failures++
				w.logger.Error("worker run failed",
					zap.Error(err),
					zap.Int("consecutive_failures", failures),
					zap.Duration("took", time.Since(start)))
				continue
			}
			if failures > 0 {
				w.logger.Info("worker recovered", zap.Int("after_failures", failures))
			}
			failures = 0
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", w.name, r)
		}
	}()
	return w.task.Run(ctx)
}

// Stop ends the loop and waits for it. Safe to call more than once, but only after Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
