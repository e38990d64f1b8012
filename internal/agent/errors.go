// internal/agent/errors.go
package agent

import (
	"errors"
	"fmt"
)

// ErrorCode is a string type used for structured error reporting across
// the browser, planner, and task layers. Using a custom type ensures that
// only predefined constants can be used where an ErrorCode is expected.
type ErrorCode string

const (
	// -- Browser/DOM errors --
	ErrCodeElementNotFound  ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeStaleGeneration  ErrorCode = "STALE_GENERATION"
	ErrCodeNavigationError  ErrorCode = "NAVIGATION_ERROR"
	ErrCodeScriptFailure    ErrorCode = "SCRIPT_FAILURE"
	ErrCodeSessionClosed    ErrorCode = "SESSION_CLOSED"
	ErrCodeInteractionError ErrorCode = "INTERACTION_FAILURE"

	// -- Planner errors --
	ErrCodePlannerUnavailable ErrorCode = "PLANNER_UNAVAILABLE"
	ErrCodePlannerBadOutput   ErrorCode = "PLANNER_BAD_OUTPUT"
	ErrCodeInvalidAction      ErrorCode = "INVALID_ACTION"

	// -- Timeouts --
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// -- Task errors --
	ErrCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"
	ErrCodeStepsExhausted   ErrorCode = "STEPS_EXHAUSTED"
	ErrCodeUnknownAction    ErrorCode = "UNKNOWN_ACTION_TYPE"
)

// BrowserError reports a failure in the browser or DOM layer.
type BrowserError struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *BrowserError) Error() string {
	return fmt.Sprintf("browser %s: [%s] %v", e.Op, e.Code, e.Err)
}

func (e *BrowserError) Unwrap() error { return e.Err }

// NewBrowserError wraps err with a code and the failing operation name.
func NewBrowserError(code ErrorCode, op string, err error) *BrowserError {
	return &BrowserError{Code: code, Op: op, Err: err}
}

// PlanningError reports a planner failure: the call itself, or output
// that could not be parsed into a valid Action. The control loop treats
// every PlanningError as recoverable and substitutes a default action.
type PlanningError struct {
	Code ErrorCode
	Err  error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning: [%s] %v", e.Code, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

func NewPlanningError(code ErrorCode, err error) *PlanningError {
	return &PlanningError{Code: code, Err: err}
}

// TimeoutError reports a deadline overrun on a single operation.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func NewTimeoutError(op string, err error) *TimeoutError {
	return &TimeoutError{Op: op, Err: err}
}

// TaskError reports a task-level failure (budget exhaustion, invalid
// lifecycle transition).
type TaskError struct {
	Code   ErrorCode
	TaskID string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: [%s] %v", e.TaskID, e.Code, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

func NewTaskError(code ErrorCode, taskID string, err error) *TaskError {
	return &TaskError{Code: code, TaskID: taskID, Err: err}
}

// CodeOf extracts the ErrorCode from any error in the taxonomy, or ""
// when the chain carries none.
func CodeOf(err error) ErrorCode {
	var be *BrowserError
	if errors.As(err, &be) {
		return be.Code
	}
	var pe *PlanningError
	if errors.As(err, &pe) {
		return pe.Code
	}
	var te *TaskError
	if errors.As(err, &te) {
		return te.Code
	}
	var to *TimeoutError
	if errors.As(err, &to) {
		return ErrCodeTimeout
	}
	return ""
}
