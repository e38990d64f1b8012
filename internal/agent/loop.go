// internal/agent/loop.go
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

// Indexer builds a fresh generation of the element table.
type Indexer interface {
	Index(ctx context.Context) (*schemas.ElementIndex, error)
}

// Executor runs typed actions and probes the page.
type Executor interface {
	Execute(ctx context.Context, action schemas.Action, index *schemas.ElementIndex) schemas.ActionResult
	PageState(ctx context.Context) (*schemas.PageState, error)
	PageText(ctx context.Context) (string, error)
}

// autoCompleteMinItems and autoCompleteMinSteps gate the early-exit
// heuristic for search-style tasks: once enough records are in hand and
// the loop has run a few steps, the task is considered done without
// waiting for the planner to say so.
const (
	autoCompleteMinItems = 5
	autoCompleteMinSteps = 3
)

// Runner drives one task through the observe/plan/act loop.
type Runner struct {
	indexer  Indexer
	executor Executor
	planner  Planner
	logger   *zap.Logger
	cfg      config.TaskConfig
}

// NewRunner wires a control loop over the given collaborators.
func NewRunner(indexer Indexer, executor Executor, planner Planner, cfg config.TaskConfig, logger *zap.Logger) *Runner {
	return &Runner{
		indexer:  indexer,
		executor: executor,
		planner:  planner,
		logger:   logger.Named("runner"),
		cfg:      cfg,
	}
}

// Run executes the task to a terminal state and always returns a
// TaskResult, keeping whatever data was extracted along the way.
func (r *Runner) Run(ctx context.Context, state *schemas.TaskState) schemas.TaskResult {
	start := time.Now()
	logger := r.logger.With(zap.String("task_id", state.TaskID))
	logger.Info("Task started",
		zap.String("instruction", state.Instruction),
		zap.String("target_url", state.TargetURL),
		zap.Int("max_steps", state.MaxSteps))

	if state.MaxSteps <= 0 {
		state.MaxSteps = r.cfg.MaxSteps
	}
	if state.MaxRetries <= 0 {
		state.MaxRetries = r.cfg.MaxRetries
	}
	state.Start()

	var executionLog []schemas.ActionResult
	var errMsg string

	for state.ShouldContinue() {
		if err := ctx.Err(); err != nil {
			errMsg = fmt.Sprintf("task canceled: %v", err)
			state.MarkFailed()
			break
		}

		index := r.observe(ctx, logger)
		action := r.plan(ctx, state, index, logger)
		result := r.executor.Execute(ctx, action, index)

		executionLog = append(executionLog, result)
		state.RecordStep(action, result)

		if result.Success {
			state.RecordSuccess()
			r.absorb(state, action, result, logger)
		} else {
			state.RecordFailure()
			logger.Warn("Step failed",
				zap.Int("step", state.StepCount),
				zap.String("action", string(action.Type)),
				zap.String("error", result.Error),
				zap.Int("retry_count", state.RetryCount))
			if state.RetriesExhausted() {
				errMsg = fmt.Sprintf("aborted after %d consecutive failures: %s", state.RetryCount, result.Error)
				state.MarkFailed()
			}
		}
	}

	if !state.Status.Terminal() {
		if state.GoalAchieved {
			state.MarkCompleted()
		} else {
			state.MarkFailed()
			if errMsg == "" {
				errMsg = fmt.Sprintf("step budget exhausted after %d steps without achieving the goal", state.StepCount)
			}
		}
	}

	result := schemas.NewTaskResult(state, executionLog, time.Since(start), errMsg)
	logger.Info("Task finished",
		zap.Bool("success", result.Success),
		zap.Bool("goal_achieved", result.GoalAchieved),
		zap.Int("steps", result.TotalSteps),
		zap.Int("extracted_items", result.ExtractedItems),
		zap.Float64("seconds", result.TotalTime))
	return result
}

// observe indexes the page for this step. An indexing failure yields an
// empty table rather than aborting: the planner can still navigate,
// wait, or extract.
func (r *Runner) observe(ctx context.Context, logger *zap.Logger) *schemas.ElementIndex {
	index, err := r.indexer.Index(ctx)
	if err != nil {
		logger.Warn("Indexing failed, continuing with empty element table", zap.Error(err))
		return &schemas.ElementIndex{}
	}
	return index
}

// plan asks the planner for the next action and substitutes the default
// on any failure. Valid actions get their budgets and goal text filled.
func (r *Runner) plan(ctx context.Context, state *schemas.TaskState, index *schemas.ElementIndex, logger *zap.Logger) schemas.Action {
	snapshot := r.snapshot(ctx, index)

	action, err := r.planner.PlanNextAction(ctx, state, snapshot)
	if err == nil {
		err = ValidateAction(action, index)
	}
	if err != nil {
		fallback := DefaultAction(state)
		logger.Warn("Planner failed, substituting default action",
			zap.Int("step", state.StepCount),
			zap.String("code", string(CodeOf(err))),
			zap.String("fallback", string(fallback.Type)),
			zap.Error(err))
		return fallback
	}

	if action.TimeoutMs <= 0 {
		action.TimeoutMs = int(r.cfg.ActionTimeout / time.Millisecond)
	}
	if action.RetryCount <= 0 {
		action.RetryCount = state.MaxRetries
	}
	if action.Type == schemas.ActionCheckGoal && action.Value == "" {
		action.Value = state.Instruction
	}
	return action
}

// snapshot assembles the planner's observation of the page.
func (r *Runner) snapshot(ctx context.Context, index *schemas.ElementIndex) schemas.PageSnapshot {
	snap := schemas.PageSnapshot{Elements: index}
	if state, err := r.executor.PageState(ctx); err == nil {
		snap.PageState = state
		snap.URL = state.URL
		snap.Title = state.Title
	}
	if text, err := r.executor.PageText(ctx); err == nil {
		snap.Text = text
	}
	return snap
}

// absorb folds a successful result into the task state: extraction
// records, goal evidence, explicit completion, and the auto-completion
// heuristic for search-style tasks.
func (r *Runner) absorb(state *schemas.TaskState, action schemas.Action, result schemas.ActionResult, logger *zap.Logger) {
	switch action.Type {
	case schemas.ActionExtract:
		if items, ok := result.Data["items"].([]map[string]any); ok {
			state.MergeExtracted(items)
			logger.Debug("Extracted records",
				zap.Int("new", len(items)),
				zap.Int("total", len(state.ExtractedData)))
		} else if generic, ok := result.Data["items"].([]any); ok {
			state.MergeExtracted(coerceItems(generic))
		}
	case schemas.ActionCheckGoal:
		if achieved, _ := result.Data["goal_achieved"].(bool); achieved {
			state.GoalAchieved = true
			state.MarkCompleted()
			logger.Info("Goal confirmed", zap.Int("step", state.StepCount))
		}
	case schemas.ActionComplete:
		state.GoalAchieved = true
		state.MarkCompleted()
		logger.Info("Planner declared completion", zap.Int("step", state.StepCount))
	}

	if state.Status.Terminal() {
		return
	}
	if len(state.ExtractedData) >= autoCompleteMinItems &&
		state.StepCount > autoCompleteMinSteps &&
		IsSearchInstruction(state.Instruction) {
		state.GoalAchieved = true
		state.MarkCompleted()
		logger.Info("Auto-completed search task",
			zap.Int("extracted_items", len(state.ExtractedData)),
			zap.Int("step", state.StepCount))
	}
}

// coerceItems normalizes items that crossed a JSON boundary and lost
// their concrete map type.
func coerceItems(raw []any) []map[string]any {
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
