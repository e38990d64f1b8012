package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

type fakeIndexer struct {
	index *schemas.ElementIndex
	err   error
	calls int
}

func (f *fakeIndexer) Index(context.Context) (*schemas.ElementIndex, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.index == nil {
		return &schemas.ElementIndex{Generation: f.calls}, nil
	}
	return f.index, nil
}

// fakeExecutor replays a queue of results; when the queue runs dry it
// keeps returning the last one.
type fakeExecutor struct {
	results  []schemas.ActionResult
	executed []schemas.Action
}

func (f *fakeExecutor) Execute(_ context.Context, action schemas.Action, _ *schemas.ElementIndex) schemas.ActionResult {
	f.executed = append(f.executed, action)
	var res schemas.ActionResult
	switch {
	case len(f.results) == 0:
		res = schemas.ActionResult{Success: true}
	case len(f.results) == 1:
		res = f.results[0]
	default:
		res, f.results = f.results[0], f.results[1:]
	}
	res.Action = action
	return res
}

func (f *fakeExecutor) PageState(context.Context) (*schemas.PageState, error) {
	return &schemas.PageState{URL: "https://x.test/", Title: "X"}, nil
}

func (f *fakeExecutor) PageText(context.Context) (string, error) { return "page text", nil }

// plannerFunc adapts a function to the Planner interface.
type plannerFunc func(ctx context.Context, state *schemas.TaskState, snapshot schemas.PageSnapshot) (schemas.Action, error)

func (p plannerFunc) PlanNextAction(ctx context.Context, state *schemas.TaskState, snapshot schemas.PageSnapshot) (schemas.Action, error) {
	return p(ctx, state, snapshot)
}

func alwaysPlan(a schemas.Action) Planner {
	return plannerFunc(func(context.Context, *schemas.TaskState, schemas.PageSnapshot) (schemas.Action, error) {
		return a, nil
	})
}

func testTaskConfig() config.TaskConfig {
	return config.TaskConfig{MaxSteps: 15, MaxRetries: 3, ActionTimeout: 5 * time.Second}
}

func extractResult(items []map[string]any) schemas.ActionResult {
	return schemas.ActionResult{Success: true, Data: map[string]any{"items": items}}
}

func TestRunSingleStepExtractKeepsPartialData(t *testing.T) {
	t.Parallel()
	items := []map[string]any{{"text": "a"}, {"text": "b"}, {"text": "c"}}
	exec := &fakeExecutor{results: []schemas.ActionResult{extractResult(items)}}
	runner := NewRunner(&fakeIndexer{}, exec, alwaysPlan(schemas.NewAction(schemas.ActionExtract)), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("collect the visible entries", "https://x.test")
	state.MaxSteps = 1

	res := runner.Run(context.Background(), state)

	assert.False(t, res.Success, "goal was never confirmed, so the task fails")
	assert.False(t, res.GoalAchieved)
	assert.Equal(t, 1, res.TotalSteps)
	assert.Len(t, res.FinalData, 3, "partial data survives the failure")
	assert.Equal(t, 3, res.ExtractedItems)
	assert.Len(t, res.ExecutionLog, 1)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestRunSubstitutesDefaultActionOnPlannerFailure(t *testing.T) {
	t.Parallel()
	planner := plannerFunc(func(context.Context, *schemas.TaskState, schemas.PageSnapshot) (schemas.Action, error) {
		return schemas.Action{}, NewPlanningError(ErrCodePlannerBadOutput, errors.New("no JSON found"))
	})
	exec := &fakeExecutor{}
	runner := NewRunner(&fakeIndexer{}, exec, planner, testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("do something", "https://x.test")
	state.MaxSteps = 3
	runner.Run(context.Background(), state)

	require.Len(t, exec.executed, 3)
	assert.Equal(t, schemas.ActionNavigate, exec.executed[0].Type, "first substitution navigates to the target URL")
	assert.Equal(t, "https://x.test", exec.executed[0].Target)
	assert.Equal(t, schemas.ActionWait, exec.executed[1].Type, "later substitutions hold position")
	assert.Equal(t, "2000", exec.executed[1].Value)
	assert.Equal(t, schemas.ActionWait, exec.executed[2].Type)
}

func TestRunSubstitutesOnInvalidPlannedAction(t *testing.T) {
	t.Parallel()
	// Planner keeps pointing at an element that does not exist.
	bad := schemas.NewAction(schemas.ActionClick)
	bad.Target = "42"
	exec := &fakeExecutor{}
	runner := NewRunner(&fakeIndexer{}, exec, alwaysPlan(bad), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("click around", "https://x.test")
	state.MaxSteps = 2
	runner.Run(context.Background(), state)

	require.Len(t, exec.executed, 2)
	for _, a := range exec.executed {
		assert.NotEqual(t, schemas.ActionClick, a.Type, "invalid click must never reach the executor")
	}
}

func TestRunFailsAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()
	click := schemas.NewAction(schemas.ActionClick)
	click.Target = "1"
	index := &schemas.ElementIndex{Generation: 1, Elements: []schemas.InteractiveElement{
		{Index: 1, Tag: "button", Role: schemas.RoleActionButton, Selector: `[data-pp-index="1"]`},
	}}
	exec := &fakeExecutor{results: []schemas.ActionResult{
		{Success: false, Error: "element not clickable"},
	}}
	runner := NewRunner(&fakeIndexer{index: index}, exec, alwaysPlan(click), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("press the button", "https://x.test")
	state.MergeExtracted([]map[string]any{{"kept": "yes"}})

	res := runner.Run(context.Background(), state)

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.TotalSteps, "three consecutive failures exhaust the default retry budget")
	assert.Contains(t, res.ErrorMessage, "consecutive failures")
	assert.Len(t, res.FinalData, 1, "previously extracted data is preserved")
}

func TestRunRetryCounterResetsOnSuccess(t *testing.T) {
	t.Parallel()
	click := schemas.NewAction(schemas.ActionClick)
	click.Target = "1"
	index := &schemas.ElementIndex{Generation: 1, Elements: []schemas.InteractiveElement{
		{Index: 1, Tag: "button", Role: schemas.RoleActionButton, Selector: `[data-pp-index="1"]`},
	}}
	// fail, fail, succeed, then keep failing: the success in between must
	// prevent the first two failures from counting toward the budget.
	exec := &fakeExecutor{results: []schemas.ActionResult{
		{Success: false, Error: "boom"},
		{Success: false, Error: "boom"},
		{Success: true},
		{Success: false, Error: "boom"},
	}}
	runner := NewRunner(&fakeIndexer{index: index}, exec, alwaysPlan(click), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("press the button", "https://x.test")
	res := runner.Run(context.Background(), state)

	assert.False(t, res.Success)
	assert.Equal(t, 6, res.TotalSteps, "2 failures + success + 3 fresh failures")
}

func TestRunAutoCompletesSearchTask(t *testing.T) {
	t.Parallel()
	items := []map[string]any{{"i": 1}, {"i": 2}, {"i": 3}, {"i": 4}, {"i": 5}}
	exec := &fakeExecutor{results: []schemas.ActionResult{
		{Success: true}, // navigate
		{Success: true}, // input
		{Success: true}, // click
		extractResult(items),
	}}
	step := 0
	planned := []schemas.Action{
		{Type: schemas.ActionNavigate, Target: "https://x.test"},
		{Type: schemas.ActionWait, Value: "10"},
		{Type: schemas.ActionWait, Value: "10"},
		{Type: schemas.ActionExtract},
	}
	planner := plannerFunc(func(context.Context, *schemas.TaskState, schemas.PageSnapshot) (schemas.Action, error) {
		a := planned[step%len(planned)]
		step++
		return a, nil
	})
	runner := NewRunner(&fakeIndexer{}, exec, planner, testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("search for golang browser automation libraries", "https://x.test")
	res := runner.Run(context.Background(), state)

	assert.True(t, res.Success, "search task with enough extracted records auto-completes")
	assert.True(t, res.GoalAchieved)
	assert.Equal(t, 4, res.TotalSteps)
	assert.Equal(t, 5, res.ExtractedItems)
}

func TestRunNoAutoCompleteForNonSearchTask(t *testing.T) {
	t.Parallel()
	items := []map[string]any{{"i": 1}, {"i": 2}, {"i": 3}, {"i": 4}, {"i": 5}, {"i": 6}}
	exec := &fakeExecutor{results: []schemas.ActionResult{extractResult(items)}}
	runner := NewRunner(&fakeIndexer{}, exec, alwaysPlan(schemas.NewAction(schemas.ActionExtract)), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("summarize the landing page", "https://x.test")
	state.MaxSteps = 6
	res := runner.Run(context.Background(), state)

	assert.False(t, res.Success, "non-search instructions never auto-complete")
	assert.Equal(t, 6, res.TotalSteps)
}

func TestRunCompletesOnGoalConfirmation(t *testing.T) {
	t.Parallel()
	exec := &fakeExecutor{results: []schemas.ActionResult{
		{Success: true, Data: map[string]any{"goal_achieved": true}},
	}}
	check := schemas.NewAction(schemas.ActionCheckGoal)
	runner := NewRunner(&fakeIndexer{}, exec, alwaysPlan(check), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("find the pricing page", "https://x.test")
	res := runner.Run(context.Background(), state)

	assert.True(t, res.Success)
	assert.True(t, res.GoalAchieved)
	assert.Equal(t, 1, res.TotalSteps)
	assert.Empty(t, res.ErrorMessage)

	// The loop fills the goal text for the executor.
	require.NotEmpty(t, exec.executed)
	assert.Equal(t, "find the pricing page", exec.executed[0].Value)
}

func TestRunCompletesOnCompleteAction(t *testing.T) {
	t.Parallel()
	exec := &fakeExecutor{}
	runner := NewRunner(&fakeIndexer{}, exec, alwaysPlan(schemas.NewAction(schemas.ActionComplete)), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("anything", "https://x.test")
	res := runner.Run(context.Background(), state)

	assert.True(t, res.Success)
	assert.True(t, res.GoalAchieved)
	assert.Equal(t, 1, res.TotalSteps)
}

func TestRunSurvivesIndexerFailure(t *testing.T) {
	t.Parallel()
	exec := &fakeExecutor{}
	runner := NewRunner(&fakeIndexer{err: errors.New("page crashed")}, exec,
		alwaysPlan(schemas.NewAction(schemas.ActionComplete)), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("anything", "https://x.test")
	res := runner.Run(context.Background(), state)
	assert.True(t, res.Success, "indexing failure alone must not abort the loop")
}

func TestRunCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExecutor{}
	runner := NewRunner(&fakeIndexer{}, exec, alwaysPlan(schemas.NewAction(schemas.ActionWait)), testTaskConfig(), zap.NewNop())

	state := schemas.NewTaskState("anything", "https://x.test")
	res := runner.Run(ctx, state)

	assert.False(t, res.Success)
	assert.Zero(t, res.TotalSteps)
	assert.Contains(t, res.ErrorMessage, "canceled")
}
