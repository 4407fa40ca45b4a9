package processor

import (
	"context"
	"errors"

	"github.com/aforo/aforo/pkg/counting"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// ErrQueueFull is returned by Submit when the pending-work queue is at
// capacity. Callers should report the event as not accepted rather than block.
var ErrQueueFull = errors.New("async processing queue is full")

type asyncJob struct {
	event  *counting.PassengerEvent
	result chan counting.Outcome
}

// AsyncProcessor runs the synchronous decision sequence on a fixed-size worker
// pool with a bounded queue. It adds no ordering guarantee beyond the
// per-vehicle lock; once a job starts it runs to completion.
type AsyncProcessor struct {
	processor *Processor

	jobs    chan asyncJob
	workers conc.WaitGroup
}

func NewAsync(p *Processor, workers int, queueSize int) *AsyncProcessor {
	async := &AsyncProcessor{
		processor: p,
		jobs:      make(chan asyncJob, queueSize),
	}

	for i := 0; i < workers; i++ {
		async.workers.Go(async.work)
	}

	return async
}

// Submit queues an event and returns a channel that resolves with its outcome.
// The channel is buffered, so the outcome is delivered even if nobody reads it.
func (a *AsyncProcessor) Submit(event *counting.PassengerEvent) (<-chan counting.Outcome, error) {
	job := asyncJob{
		event:  event,
		result: make(chan counting.Outcome, 1),
	}

	select {
	case a.jobs <- job:
		return job.result, nil
	default:
		return nil, ErrQueueFull
	}
}

// Stop drains the queue and waits for in-flight work to finish.
func (a *AsyncProcessor) Stop() {
	close(a.jobs)
	a.workers.Wait()
}

func (a *AsyncProcessor) work() {
	for job := range a.jobs {
		outcome := a.processor.Process(context.Background(), job.event)

		if outcome.Status == counting.StatusError {
			log.Warn().Str("message", outcome.Message).Msg("Async event failed")
		}

		job.result <- outcome
	}
}
