package service

import (
	"context"
	"fmt"
	"log"
)

// sagaStep pairs an action with the compensation that undoes it. Team
// membership spans two records (teams/team_members and users.team_id) without
// a cross-record transaction, so a failed later step must unwind the earlier
// ones to restore the membership invariant.
type sagaStep struct {
	name string
	run  func(context.Context) error
	undo func(context.Context) error
}

// runSaga executes steps in order. On failure it runs the compensations of the
// completed steps in reverse. A compensation failure is logged and wrapped so
// the caller still sees the original error; it never turns into a silent
// success.
func runSaga(ctx context.Context, steps []sagaStep) error {
	for i, step := range steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			prev := steps[j]
			if prev.undo == nil {
				continue
			}
			if undoErr := prev.undo(ctx); undoErr != nil {
				log.Printf("[Saga] compensation %q failed: %v (original error: %v)", prev.name, undoErr, err)
				return fmt.Errorf("%q failed: %w (compensation %q also failed: %v)", step.name, err, prev.name, undoErr)
			}
		}
		return fmt.Errorf("%q failed: %w", step.name, err)
	}
	return nil
}
