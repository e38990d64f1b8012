// internal/agent/planner.go
package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

// Planner decides the next action for a task given the current page
// observation. Implementations return a PlanningError when the model
// call fails or its output cannot be parsed; the control loop treats
// every planner failure as recoverable.
type Planner interface {
	PlanNextAction(ctx context.Context, state *schemas.TaskState, snapshot schemas.PageSnapshot) (schemas.Action, error)
}

// DefaultAction is the substitution used when the planner is unable to
// produce a valid action: on the first step, navigate to the task's
// target URL; afterwards, hold position with a short wait so the loop
// can re-observe the page.
func DefaultAction(state *schemas.TaskState) schemas.Action {
	if state.StepCount == 0 && state.TargetURL != "" {
		a := schemas.NewAction(schemas.ActionNavigate)
		a.Target = state.TargetURL
		a.Description = "open the task's target URL"
		return a
	}
	a := schemas.NewAction(schemas.ActionWait)
	a.Value = "2000"
	a.Description = "wait for the page to settle"
	return a
}

// ValidateAction checks a planned action against the current element
// table before it reaches the executor.
func ValidateAction(a schemas.Action, index *schemas.ElementIndex) error {
	switch a.Type {
	case schemas.ActionNavigate:
		if a.Target == "" {
			return NewPlanningError(ErrCodeInvalidAction, fmt.Errorf("navigate action without a URL"))
		}
	case schemas.ActionClick, schemas.ActionInput, schemas.ActionHover:
		n, err := strconv.Atoi(a.Target)
		if err != nil {
			return NewPlanningError(ErrCodeInvalidAction, fmt.Errorf("element target %q is not an index", a.Target))
		}
		if index == nil {
			return NewPlanningError(ErrCodeInvalidAction, fmt.Errorf("no element table for index %d", n))
		}
		if _, ok := index.Lookup(n); !ok {
			return NewPlanningError(ErrCodeInvalidAction,
				fmt.Errorf("index %d not in generation %d (%d elements)", n, index.Generation, index.Len()))
		}
	case schemas.ActionScroll, schemas.ActionWait, schemas.ActionExtract,
		schemas.ActionCheckGoal, schemas.ActionComplete:
	default:
		return NewPlanningError(ErrCodeInvalidAction, fmt.Errorf("unknown action type %q", a.Type))
	}
	return nil
}
