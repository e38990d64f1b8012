// pkg/schemas/action.go
package schemas

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ActionType enumerates the operations the executor understands.
type ActionType string

const (
	ActionNavigate  ActionType = "navigate"
	ActionClick     ActionType = "click"
	ActionInput     ActionType = "input"
	ActionScroll    ActionType = "scroll"
	ActionHover     ActionType = "hover"
	ActionWait      ActionType = "wait"
	ActionExtract   ActionType = "extract"
	ActionCheckGoal ActionType = "check_goal"
	ActionComplete  ActionType = "complete"
)

// Default budgets applied by NewAction when the planner omits them.
const (
	DefaultActionTimeoutMs = 5000
	DefaultActionRetries   = 3
)

// Action is a single typed instruction from the planner to the executor.
// Target is a URL for navigate and a 1-based element index (rendered as a
// base-10 string) for element-directed actions. Value carries the action
// payload: input text (optionally suffixed with "|ENTER"), a scroll
// direction or signed pixel amount, or a wait duration in milliseconds.
type Action struct {
	Type        ActionType `json:"type"`
	Target      string     `json:"target,omitempty"`
	Value       string     `json:"value,omitempty"`
	Description string     `json:"description,omitempty"`
	TimeoutMs   int        `json:"timeout,omitempty"`
	RetryCount  int        `json:"retry_count,omitempty"`
}

// NewAction returns an Action of the given type with default budgets set.
func NewAction(t ActionType) Action {
	return Action{Type: t, TimeoutMs: DefaultActionTimeoutMs, RetryCount: DefaultActionRetries}
}

// IsElementAction reports whether the action targets an indexed element.
func (a Action) IsElementAction() bool {
	switch a.Type {
	case ActionClick, ActionInput, ActionHover:
		return true
	}
	return false
}

// ActionResult is the executor's report for one Action.
// Data holds the action payload (extraction records, goal evidence,
// partial-load flags). Error is empty iff Success is true.
type ActionResult struct {
	Success       bool           `json:"success"`
	Action        Action         `json:"action"`
	Data          map[string]any `json:"data,omitempty"`
	Error         string         `json:"error,omitempty"`
	PageState     *PageState     `json:"page_state,omitempty"`
	ExecutionTime float64        `json:"execution_time"`
}

// PageState is a cheap structural summary probed after every action.
type PageState struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	HasSearchBox    bool   `json:"has_search_box"`
	LinksCount      int    `json:"links_count"`
	IsSearchResults bool   `json:"is_search_results"`
}

// MarshalAction renders an Action as compact wire JSON.
func MarshalAction(a Action) ([]byte, error) {
	return json.Marshal(a)
}

// UnmarshalAction parses wire JSON into an Action without applying
// defaults; callers that need budgets use NewAction or fill them in.
func UnmarshalAction(data []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return Action{}, err
	}
	return a, nil
}
