package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cwygoda/vidrag/internal/domain"
)

// Builder runs a single build task.
type Builder interface {
	Build(ctx context.Context, task domain.BuildTask)
	Fail(task domain.BuildTask, reason string)
}

// Worker runs queued builds on a fixed number of goroutines.
type Worker struct {
	tasks chan domain.BuildTask
	count int
	log   *zap.Logger
}

// New creates a worker with count goroutines and a queue of queueSize tasks.
func New(count, queueSize int, log *zap.Logger) *Worker {
	if count < 1 {
		count = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		tasks: make(chan domain.BuildTask, queueSize),
		count: count,
		log:   log,
	}
}

// Enqueue schedules a task without blocking.
func (w *Worker) Enqueue(task domain.BuildTask) error {
	select {
	case w.tasks <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Pending returns the number of queued tasks not yet picked up.
func (w *Worker) Pending() int {
	return len(w.tasks)
}

// Run processes tasks until ctx is cancelled, then waits for in-flight builds.
func (w *Worker) Run(ctx context.Context, b Builder) {
	w.log.Info("worker started", zap.Int("goroutines", w.count), zap.Int("queue_size", cap(w.tasks)))

	var wg sync.WaitGroup
	for range w.count {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-w.tasks:
					w.processTask(ctx, b, task)
				}
			}
		}()
	}
	wg.Wait()

	w.log.Info("worker shutting down", zap.Int("abandoned", len(w.tasks)))
}

// processTask runs one build. Builds are not cancellable once started, so the
// build context is detached from ctx.
func (w *Worker) processTask(ctx context.Context, b Builder, task domain.BuildTask) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("build panicked",
				zap.String("video_id", task.VideoID), zap.Any("panic", r))
			b.Fail(task, fmt.Sprintf("build panicked: %v", r))
		}
	}()

	b.Build(context.WithoutCancel(ctx), task)
	w.log.Debug("task finished",
		zap.String("video_id", task.VideoID), zap.Duration("elapsed", time.Since(start)))
}
