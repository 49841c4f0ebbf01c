package sync

import (
	"context"
	"fmt"
)

// sagaStep is one named sub-operation of a multi-step remote transaction.
type sagaStep struct {
	name string
	run  func(ctx context.Context) error
}

// runSaga executes steps strictly in order and aborts on the first failure.
// Steps run sequentially, never concurrently: the remote schema's foreign
// keys require the parent row before its children, and delete-before-insert
// is what makes re-saving a record idempotent.
func (o *Orchestrator) runSaga(ctx context.Context, op, recordID string, steps []sagaStep) error {
	for i, s := range steps {
		o.log.Debug(ctx, "saga step", "op", op, "record", recordID, "step", s.name, "index", i)
		if err := s.run(ctx); err != nil {
			o.log.Warn(ctx, "saga aborted", "op", op, "record", recordID, "step", s.name, "error", err)
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	o.log.Debug(ctx, "saga complete", "op", op, "record", recordID, "steps", len(steps))
	return nil
}
