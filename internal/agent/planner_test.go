package agent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

func TestDefaultAction(t *testing.T) {
	t.Parallel()

	t.Run("first step navigates to the target", func(t *testing.T) {
		t.Parallel()
		state := schemas.NewTaskState("do a thing", "https://target.test")
		a := DefaultAction(state)
		assert.Equal(t, schemas.ActionNavigate, a.Type)
		assert.Equal(t, "https://target.test", a.Target)
	})

	t.Run("later steps wait", func(t *testing.T) {
		t.Parallel()
		state := schemas.NewTaskState("do a thing", "https://target.test")
		state.StepCount = 2
		a := DefaultAction(state)
		assert.Equal(t, schemas.ActionWait, a.Type)
		assert.Equal(t, "2000", a.Value)
	})

	t.Run("no target URL means wait even on the first step", func(t *testing.T) {
		t.Parallel()
		state := schemas.NewTaskState("do a thing", "")
		a := DefaultAction(state)
		assert.Equal(t, schemas.ActionWait, a.Type)
	})
}

func TestValidateAction(t *testing.T) {
	t.Parallel()
	index := &schemas.ElementIndex{Generation: 3, Elements: []schemas.InteractiveElement{
		{Index: 1, Tag: "input"},
		{Index: 2, Tag: "button"},
	}}

	valid := []schemas.Action{
		{Type: schemas.ActionNavigate, Target: "https://x.test"},
		{Type: schemas.ActionClick, Target: "2"},
		{Type: schemas.ActionInput, Target: "1", Value: "hi|ENTER"},
		{Type: schemas.ActionScroll, Value: "down"},
		{Type: schemas.ActionWait},
		{Type: schemas.ActionExtract},
		{Type: schemas.ActionCheckGoal},
		{Type: schemas.ActionComplete},
	}
	for _, a := range valid {
		assert.NoError(t, ValidateAction(a, index), "type %s", a.Type)
	}

	invalid := []schemas.Action{
		{Type: schemas.ActionNavigate},
		{Type: schemas.ActionClick, Target: "7"},
		{Type: schemas.ActionClick, Target: "the button"},
		{Type: schemas.ActionHover, Target: "0"},
		{Type: "teleport"},
	}
	for _, a := range invalid {
		err := ValidateAction(a, index)
		require.Error(t, err, "type %s target %q", a.Type, a.Target)
		var pe *PlanningError
		assert.ErrorAs(t, err, &pe)
	}

	assert.Error(t, ValidateAction(schemas.Action{Type: schemas.ActionClick, Target: "1"}, nil))
}

func TestIsSearchInstruction(t *testing.T) {
	t.Parallel()
	assert.True(t, IsSearchInstruction("Search for cheap flights"))
	assert.True(t, IsSearchInstruction("please find the docs"))
	assert.True(t, IsSearchInstruction("在B站搜索编程视频"))
	assert.False(t, IsSearchInstruction("open the settings page"))
	assert.False(t, IsSearchInstruction(""))
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	be := NewBrowserError(ErrCodeElementNotFound, "click", base)
	pe := NewPlanningError(ErrCodePlannerBadOutput, base)
	te := NewTaskError(ErrCodeRetriesExhausted, "task-1", base)
	to := NewTimeoutError("navigate", base)

	assert.ErrorIs(t, be, base)
	assert.ErrorIs(t, pe, base)
	assert.ErrorIs(t, te, base)
	assert.ErrorIs(t, to, base)

	assert.Equal(t, ErrCodeElementNotFound, CodeOf(be))
	assert.Equal(t, ErrCodePlannerBadOutput, CodeOf(pe))
	assert.Equal(t, ErrCodeRetriesExhausted, CodeOf(te))
	assert.Equal(t, ErrCodeTimeout, CodeOf(to))
	assert.Equal(t, ErrorCode(""), CodeOf(base))

	wrapped := fmt.Errorf("outer: %w", be)
	assert.Equal(t, ErrCodeElementNotFound, CodeOf(wrapped))
	assert.Contains(t, te.Error(), "task-1")
}
