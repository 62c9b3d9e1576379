package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/models"
	"github.com/dipoade/resulta-api/internal/repository"
)

// BulkPersistenceBuffer accumulates the three write queues of a final-mode
// run and flushes them as independent batch writes. On any flush failure the
// queues are cleared so stale data is never silently retried.
type BulkPersistenceBuffer struct {
	students        repository.StudentRepository
	semesterResults repository.SemesterResultRepository
	carryovers      repository.CarryoverRepository
	logger          zerolog.Logger

	mutations []repository.StudentMutation
	snapshots []models.SemesterResultRecord
	pending   []models.CarryoverRecord
}

// NewBulkPersistenceBuffer constructs an empty buffer bound to its
// repositories.
func NewBulkPersistenceBuffer(students repository.StudentRepository, semesterResults repository.SemesterResultRepository, carryovers repository.CarryoverRepository, logger zerolog.Logger) *BulkPersistenceBuffer {
	return &BulkPersistenceBuffer{
		students:        students,
		semesterResults: semesterResults,
		carryovers:      carryovers,
		logger:          logger.With().Str("component", "persistence_buffer").Logger(),
	}
}

// Stage queues one student's mutations.
func (b *BulkPersistenceBuffer) Stage(mutation repository.StudentMutation, snapshot models.SemesterResultRecord, carryovers []models.CarryoverRecord) {
	b.mutations = append(b.mutations, mutation)
	b.snapshots = append(b.snapshots, snapshot)
	b.pending = append(b.pending, carryovers...)
}

// Size is the number of buffered student mutations.
func (b *BulkPersistenceBuffer) Size() int {
	return len(b.mutations)
}

// ShouldFlush reports whether the buffer has reached the flush threshold.
func (b *BulkPersistenceBuffer) ShouldFlush(threshold int) bool {
	return threshold > 0 && b.Size() >= threshold
}

// Flush performs the three batch writes. The queues are independent, so a
// failure in one leaves earlier queues written; the buffer is cleared either
// way and the error propagates to the orchestrator.
func (b *BulkPersistenceBuffer) Flush(ctx context.Context) error {
	defer b.Clear()

	if err := b.students.BulkApply(ctx, b.mutations); err != nil {
		b.logger.Error().Err(err).Int("mutations", len(b.mutations)).Msg("student mutation flush failed")
		return err
	}

	if err := b.semesterResults.BulkCreate(ctx, b.snapshots); err != nil {
		b.logger.Error().Err(err).Int("snapshots", len(b.snapshots)).Msg("semester result flush failed")
		return err
	}

	if err := b.carryovers.BulkCreate(ctx, b.pending); err != nil {
		b.logger.Error().Err(err).Int("carryovers", len(b.pending)).Msg("carryover flush failed")
		return err
	}

	b.logger.Debug().
		Int("mutations", len(b.mutations)).
		Int("snapshots", len(b.snapshots)).
		Int("carryovers", len(b.pending)).
		Msg("buffer flushed")

	return nil
}

// Clear drops all queued writes.
func (b *BulkPersistenceBuffer) Clear() {
	b.mutations = nil
	b.snapshots = nil
	b.pending = nil
}
