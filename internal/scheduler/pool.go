package scheduler

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/dto"
)

// Pool is an in-process implementation of Queue for single-node deployments
// and tests. High-priority jobs are drained before normal ones; workers
// otherwise behave like the NATS worker, including retry bookkeeping.
type Pool struct {
	handler    Handler
	maxRetries int
	logger     zerolog.Logger

	high   chan dto.ComputationJobRequest
	normal chan dto.ComputationJobRequest
	wg     sync.WaitGroup
}

// NewPool constructs the pool; workers are launched by Start.
func NewPool(handler Handler, maxRetries, backlog int, logger zerolog.Logger) *Pool {
	if backlog <= 0 {
		backlog = 64
	}

	return &Pool{
		handler:    handler,
		maxRetries: maxRetries,
		logger:     logger.With().Str("component", "job_pool").Logger(),
		high:       make(chan dto.ComputationJobRequest, backlog),
		normal:     make(chan dto.ComputationJobRequest, backlog),
	}
}

// Start launches the workers; they exit when the context is cancelled.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 3
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Enqueue queues the job, routing positive priorities ahead of the rest.
func (p *Pool) Enqueue(ctx context.Context, job dto.ComputationJobRequest) error {
	target := p.normal
	if job.Priority > 0 {
		target = p.high
	}

	select {
	case target <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		// drain high-priority jobs first
		select {
		case job := <-p.high:
			p.run(ctx, job)
			continue
		default:
		}

		select {
		case job := <-p.high:
			p.run(ctx, job)
		case job := <-p.normal:
			p.run(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) run(ctx context.Context, job dto.ComputationJobRequest) {
	err := p.handler(ctx, job)
	if err == nil {
		return
	}

	p.logger.Error().Err(err).
		Str("job_id", job.JobID).
		Uint("department_id", job.DepartmentID).
		Int("attempt", job.Attempt).
		Msg("job failed")

	if job.Attempt >= p.maxRetries {
		p.logger.Error().Str("job_id", job.JobID).Msg("job retries exhausted")
		return
	}

	job.Attempt++
	job.Retry = true
	if enqueueErr := p.Enqueue(ctx, job); enqueueErr != nil {
		p.logger.Error().Err(enqueueErr).Str("job_id", job.JobID).Msg("failed to re-enqueue job")
	}
}
