// pkg/schemas/task.go
package schemas

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusPaused     TaskStatus = "paused"
)

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Default task budgets.
const (
	DefaultMaxSteps   = 15
	DefaultMaxRetries = 3
	historyRingSize   = 5
)

// HistoryEntry pairs an executed Action with its result.
type HistoryEntry struct {
	Action Action       `json:"action"`
	Result ActionResult `json:"result"`
}

// TaskState tracks one task through the control loop. It is owned by a
// single goroutine; the loop mutates it between steps.
type TaskState struct {
	TaskID        string           `json:"task_id"`
	Instruction   string           `json:"instruction"`
	TargetURL     string           `json:"target_url"`
	Status        TaskStatus       `json:"status"`
	StepCount     int              `json:"step_count"`
	MaxSteps      int              `json:"max_steps"`
	RetryCount    int              `json:"retry_count"`
	MaxRetries    int              `json:"max_retries"`
	GoalAchieved  bool             `json:"goal_achieved"`
	ExtractedData []map[string]any `json:"extracted_data"`
	History       []HistoryEntry   `json:"history"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewTaskState returns a pending task with default budgets.
func NewTaskState(instruction, targetURL string) *TaskState {
	now := time.Now()
	return &TaskState{
		TaskID:        uuid.NewString(),
		Instruction:   instruction,
		TargetURL:     targetURL,
		Status:        StatusPending,
		MaxSteps:      DefaultMaxSteps,
		MaxRetries:    DefaultMaxRetries,
		ExtractedData: []map[string]any{},
		History:       []HistoryEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Start moves a pending or paused task to in_progress.
func (t *TaskState) Start() {
	if !t.Status.Terminal() {
		t.Status = StatusInProgress
		t.touch()
	}
}

// Pause suspends a running task. ShouldContinue excludes paused tasks,
// so a caller holding the state can park the loop and Resume later.
func (t *TaskState) Pause() {
	if t.Status == StatusInProgress {
		t.Status = StatusPaused
		t.touch()
	}
}

// Resume returns a paused task to in_progress.
func (t *TaskState) Resume() {
	if t.Status == StatusPaused {
		t.Status = StatusInProgress
		t.touch()
	}
}

// RecordStep appends the action/result pair to the history ring and
// advances the step counter. Only the most recent entries are kept.
func (t *TaskState) RecordStep(a Action, r ActionResult) {
	t.History = append(t.History, HistoryEntry{Action: a, Result: r})
	if len(t.History) > historyRingSize {
		t.History = t.History[len(t.History)-historyRingSize:]
	}
	t.StepCount++
	t.touch()
}

// RecordSuccess resets the consecutive-failure counter.
func (t *TaskState) RecordSuccess() {
	t.RetryCount = 0
	t.touch()
}

// RecordFailure bumps the consecutive-failure counter.
func (t *TaskState) RecordFailure() {
	t.RetryCount++
	t.touch()
}

// RetriesExhausted reports whether consecutive failures have used up the
// retry budget.
func (t *TaskState) RetriesExhausted() bool {
	return t.RetryCount >= t.MaxRetries
}

// MergeExtracted appends extraction records to the accumulated data.
func (t *TaskState) MergeExtracted(items []map[string]any) {
	if len(items) == 0 {
		return
	}
	t.ExtractedData = append(t.ExtractedData, items...)
	t.touch()
}

// MarkCompleted finishes the task successfully.
func (t *TaskState) MarkCompleted() {
	t.Status = StatusCompleted
	t.touch()
}

// MarkFailed finishes the task unsuccessfully.
func (t *TaskState) MarkFailed() {
	t.Status = StatusFailed
	t.touch()
}

// ShouldContinue reports whether the control loop should take another
// step: the goal is not achieved, the step budget is not exhausted, and
// the task is not in a terminal state. Paused tasks do not continue.
func (t *TaskState) ShouldContinue() bool {
	if t.GoalAchieved {
		return false
	}
	if t.StepCount >= t.MaxSteps {
		return false
	}
	if t.Status.Terminal() || t.Status == StatusPaused {
		return false
	}
	return true
}

func (t *TaskState) touch() { t.UpdatedAt = time.Now() }

// TaskResult is the final report for a task. It is always produced,
// carrying whatever data was extracted before any failure.
type TaskResult struct {
	Success        bool             `json:"success"`
	FinalData      []map[string]any `json:"final_data"`
	ExecutionLog   []ActionResult   `json:"execution_log"`
	TotalSteps     int              `json:"total_steps"`
	TotalTime      float64          `json:"total_time"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	GoalAchieved   bool             `json:"goal_achieved"`
	ExtractedItems int              `json:"extracted_items"`
}

// NewTaskResult assembles a TaskResult from the final task state.
func NewTaskResult(t *TaskState, log []ActionResult, totalTime time.Duration, errMsg string) TaskResult {
	return TaskResult{
		Success:        t.Status == StatusCompleted,
		FinalData:      t.ExtractedData,
		ExecutionLog:   log,
		TotalSteps:     t.StepCount,
		TotalTime:      totalTime.Seconds(),
		ErrorMessage:   errMsg,
		GoalAchieved:   t.GoalAchieved,
		ExtractedItems: len(t.ExtractedData),
	}
}
