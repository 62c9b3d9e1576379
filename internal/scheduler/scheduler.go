// Package scheduler dispatches department computation jobs to a bounded set
// of workers. The queue abstraction is deliberately minimal so any message
// broker or an in-process pool can stand behind it.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/dto"
)

// Queue enqueues one computation job per department.
type Queue interface {
	Enqueue(ctx context.Context, job dto.ComputationJobRequest) error
}

// Handler processes one dequeued job.
type Handler func(ctx context.Context, job dto.ComputationJobRequest) error

// NATSQueue publishes jobs to a NATS subject consumed by a worker queue
// group, so delivery is load-balanced across API instances.
type NATSQueue struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSQueue constructs the dispatcher.
func NewNATSQueue(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSQueue {
	return &NATSQueue{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "job_queue").Logger(),
	}
}

func (q *NATSQueue) Enqueue(ctx context.Context, job dto.ComputationJobRequest) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode computation job: %w", err)
	}

	if err := q.conn.Publish(q.subject, data); err != nil {
		return fmt.Errorf("publish computation job: %w", err)
	}

	q.logger.Info().
		Str("job_id", job.JobID).
		Uint("department_id", job.DepartmentID).
		Bool("retry", job.Retry).
		Msg("job enqueued")

	return nil
}

// Worker consumes the job subject through a queue group and hands jobs to
// the orchestrator handler, at most `concurrency` at a time. A failed job is
// re-enqueued with its attempt counter bumped until maxRetries is exhausted.
type Worker struct {
	conn        *nats.Conn
	subject     string
	group       string
	queue       Queue
	handler     Handler
	concurrency int
	maxRetries  int
	logger      zerolog.Logger

	sub *nats.Subscription
	sem chan struct{}
}

// NewWorker constructs a worker bound to the queue group.
func NewWorker(conn *nats.Conn, subject, group string, queue Queue, handler Handler, concurrency, maxRetries int, logger zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 3
	}

	return &Worker{
		conn:        conn,
		subject:     subject,
		group:       group,
		queue:       queue,
		handler:     handler,
		concurrency: concurrency,
		maxRetries:  maxRetries,
		logger:      logger.With().Str("component", "job_worker").Logger(),
		sem:         make(chan struct{}, concurrency),
	}
}

// Start subscribes and processes until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	sub, err := w.conn.QueueSubscribe(w.subject, w.group, func(msg *nats.Msg) {
		var job dto.ComputationJobRequest
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			w.logger.Error().Err(err).Msg("dropping undecodable job message")
			return
		}

		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-w.sem }()
			w.run(ctx, job)
		}()
	})
	if err != nil {
		return fmt.Errorf("subscribe to job subject: %w", err)
	}

	w.sub = sub
	w.logger.Info().
		Str("subject", w.subject).
		Int("concurrency", w.concurrency).
		Msg("job worker started")

	go func() {
		<-ctx.Done()
		if err := w.sub.Drain(); err != nil {
			w.logger.Warn().Err(err).Msg("failed to drain job subscription")
		}
	}()

	return nil
}

func (w *Worker) run(ctx context.Context, job dto.ComputationJobRequest) {
	err := w.handler(ctx, job)
	if err == nil {
		return
	}

	w.logger.Error().Err(err).
		Str("job_id", job.JobID).
		Uint("department_id", job.DepartmentID).
		Int("attempt", job.Attempt).
		Msg("job failed")

	if job.Attempt >= w.maxRetries {
		w.logger.Error().
			Str("job_id", job.JobID).
			Uint("department_id", job.DepartmentID).
			Msg("job retries exhausted")
		return
	}

	job.Attempt++
	job.Retry = true
	if enqueueErr := w.queue.Enqueue(ctx, job); enqueueErr != nil {
		w.logger.Error().Err(enqueueErr).
			Str("job_id", job.JobID).
			Msg("failed to re-enqueue job")
	}
}
