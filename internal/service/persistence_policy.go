package service

import (
	"context"

	"github.com/dipoade/resulta-api/internal/repository"
)

// PersistencePolicy decides what a run does at its mutation points. The
// final policy writes through the bulk buffer and locks the term; the
// preview policy turns every mutation point into a no-op so both modes can
// share one orchestration path.
type PersistencePolicy interface {
	IsPreview() bool
	Stage(outcome StudentOutcome)
	MaybeFlush(ctx context.Context) (bool, error)
	FlushRemaining(ctx context.Context) error
	LockTerm(ctx context.Context, termID, departmentID uint, lockedBy string) error
}

type finalPolicy struct {
	buffer    *BulkPersistenceBuffer
	threshold int
	terms     repository.TermRepository
}

// NewFinalPolicy builds the mutating policy used by final runs.
func NewFinalPolicy(buffer *BulkPersistenceBuffer, threshold int, terms repository.TermRepository) PersistencePolicy {
	return &finalPolicy{buffer: buffer, threshold: threshold, terms: terms}
}

func (p *finalPolicy) IsPreview() bool { return false }

func (p *finalPolicy) Stage(outcome StudentOutcome) {
	p.buffer.Stage(outcome.Mutation, outcome.Snapshot, outcome.NewCarryovers)
}

func (p *finalPolicy) MaybeFlush(ctx context.Context) (bool, error) {
	if !p.buffer.ShouldFlush(p.threshold) {
		return false, nil
	}
	return true, p.buffer.Flush(ctx)
}

func (p *finalPolicy) FlushRemaining(ctx context.Context) error {
	if p.buffer.Size() == 0 {
		return nil
	}
	return p.buffer.Flush(ctx)
}

func (p *finalPolicy) LockTerm(ctx context.Context, termID, departmentID uint, lockedBy string) error {
	return p.terms.LockTerm(ctx, termID, departmentID, lockedBy)
}

type previewPolicy struct{}

// NewPreviewPolicy builds the non-mutating policy used by preview and
// simulation runs.
func NewPreviewPolicy() PersistencePolicy {
	return previewPolicy{}
}

func (previewPolicy) IsPreview() bool                  { return true }
func (previewPolicy) Stage(StudentOutcome)             {}
func (previewPolicy) MaybeFlush(context.Context) (bool, error) { return false, nil }
func (previewPolicy) FlushRemaining(context.Context) error     { return nil }
func (previewPolicy) LockTerm(context.Context, uint, uint, string) error {
	return nil
}
