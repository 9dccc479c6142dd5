package infra

import (
	"context"
	"errors"

	"employee-gateway/employee/domain"
)

// FanoutRecorder repassa cada evento para todos os recorders (nil são ignorados).
type FanoutRecorder []domain.OutcomeRecorder

func (f FanoutRecorder) Record(ctx context.Context, ev domain.OutcomeEvent) error {
	var errs []error
	for _, r := range f {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
