package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// compensation is one undo action for a committed saga step.
type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// compensationStack collects undo actions as saga steps commit. On failure
// the stack unwinds in reverse commit order, so later steps are reversed
// before the steps they depended on.
type compensationStack struct {
	steps  []compensation
	logger *zap.Logger
}

func newCompensationStack(logger *zap.Logger) *compensationStack {
	return &compensationStack{logger: logger}
}

func (s *compensationStack) push(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// unwind executes all pushed compensations in reverse order. The first undo
// failure aborts the unwind: money may be stuck at that point, and the
// condition must escalate rather than be papered over.
func (s *compensationStack) unwind(ctx context.Context) error {
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		s.logger.Info("compensating", zap.String("step", step.name))
		if err := step.undo(ctx); err != nil {
			s.logger.Error("compensation step failed",
				zap.String("step", step.name),
				zap.Bool("alert", true),
				zap.Error(err))
			return fmt.Errorf("compensation %q failed: %w", step.name, err)
		}
	}
	s.steps = nil
	return nil
}
