package jobs

import (
	"context"
	"log"
	"time"
)

// Task is one unit of periodic background work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Worker runs a Task on a fixed interval until stopped
type Worker struct {
	task     Task
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(task Task, interval time.Duration) *Worker {
	return &Worker{
		task:     task,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs the task on every tick. It blocks until ctx is done or Stop is
// called. A failing run is logged and retried on the next tick.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("worker %s: started with interval %v", w.task.Name(), w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker %s: stopped: context cancelled", w.task.Name())
			return
		case <-w.stopChan:
			log.Printf("worker %s: stopped", w.task.Name())
			return
		case <-ticker.C:
			if err := w.task.Run(ctx); err != nil {
				log.Printf("worker %s: run failed: %v", w.task.Name(), err)
			}
		}
	}
}

// Stop gracefully stops the worker and waits for the current run to finish
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}
