package internal

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const workerQueueSize = 128

// Worker is the processing side of the intake handoff: admitting requests
// enqueue an order ID and return, the worker drains the queue and drives
// each order through the engine one at a time.
type Worker struct {
	jobs   chan string
	engine *Engine
	logger *zap.SugaredLogger
}

func NewWorker(engine *Engine, logger *zap.SugaredLogger) *Worker {
	return &Worker{
		jobs:   make(chan string, workerQueueSize),
		engine: engine,
		logger: logger,
	}
}

func (w *Worker) Enqueue(id string) {
	w.jobs <- id
}

// Run consumes the queue until ctx is cancelled. Individual order failures
// are already persisted by the engine, so they are only logged here.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-w.jobs:
			err := w.engine.ProcessOrder(ctx, id)
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				w.logger.Errorf("worker: %s", err)
			}
		}
	}
}
