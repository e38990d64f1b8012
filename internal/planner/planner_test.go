package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/agent"
	"github.com/xkilldash9x/pagepilot/pkg/llmclient"
	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

type failingClient struct{}

func (failingClient) Generate(context.Context, llmclient.GenerationRequest) (string, error) {
	return "", errors.New("rate limited")
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want schemas.ActionType
	}{
		{
			"bare JSON",
			`{"type":"click","target":"3"}`,
			schemas.ActionClick,
		},
		{
			"fenced json block",
			"Here is my plan:\n```json\n{\"type\": \"input\", \"target\": \"1\", \"value\": \"golang|ENTER\"}\n```\nThat should work.",
			schemas.ActionInput,
		},
		{
			"fence without language tag",
			"```\n{\"type\":\"extract\"}\n```",
			schemas.ActionExtract,
		},
		{
			"object buried in prose",
			`I think the best move is {"type":"scroll","value":"down"} because the list continues.`,
			schemas.ActionScroll,
		},
		{
			"nested braces in description",
			`{"type":"wait","value":"500","description":"page uses {mustache} templates"}`,
			schemas.ActionWait,
		},
		{
			"trailing comma repaired",
			`{"type":"click","target":"2",}`,
			schemas.ActionClick,
		},
		{
			"single quotes repaired",
			`{'type': 'navigate', 'target': 'https://x.test'}`,
			schemas.ActionNavigate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			action, err := ParseAction(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, action.Type)
		})
	}
}

func TestParseActionRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"",
		"I am not sure what to do next.",
		`{"target":"3"}`, // no type
		"[1, 2, 3]",
	} {
		_, err := ParseAction(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestPlanNextAction(t *testing.T) {
	t.Parallel()

	state := schemas.NewTaskState("search for release notes", "https://x.test")
	snapshot := schemas.PageSnapshot{
		URL:   "https://x.test/",
		Title: "Home",
		Elements: &schemas.ElementIndex{Generation: 2, Elements: []schemas.InteractiveElement{
			{Index: 1, Tag: "input", Role: schemas.RoleSearchInput, Text: "Search"},
		}},
		Text: "welcome to the site",
	}

	t.Run("valid response", func(t *testing.T) {
		t.Parallel()
		stub := llmclient.NewStubClient(`{"type":"input","target":"1","value":"release notes|ENTER"}`)
		p := New(stub, zap.NewNop())

		action, err := p.PlanNextAction(context.Background(), state, snapshot)
		require.NoError(t, err)
		assert.Equal(t, schemas.ActionInput, action.Type)
		assert.Equal(t, "1", action.Target)
	})

	t.Run("model failure maps to PlanningError", func(t *testing.T) {
		t.Parallel()
		p := New(failingClient{}, zap.NewNop())
		_, err := p.PlanNextAction(context.Background(), state, snapshot)
		require.Error(t, err)
		assert.Equal(t, agent.ErrCodePlannerUnavailable, agent.CodeOf(err))
	})

	t.Run("garbage output maps to PlanningError", func(t *testing.T) {
		t.Parallel()
		p := New(llmclient.NewStubClient("no idea, sorry"), zap.NewNop())
		_, err := p.PlanNextAction(context.Background(), state, snapshot)
		require.Error(t, err)
		assert.Equal(t, agent.ErrCodePlannerBadOutput, agent.CodeOf(err))
	})
}

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()
	state := schemas.NewTaskState("find the docs", "https://x.test")
	state.MergeExtracted([]map[string]any{{"a": 1}})
	a := schemas.NewAction(schemas.ActionClick)
	a.Target = "2"
	state.RecordStep(a, schemas.ActionResult{Success: false, Error: "not visible", Action: a})

	snapshot := schemas.PageSnapshot{
		URL:   "https://x.test/docs",
		Title: "Docs",
		Elements: &schemas.ElementIndex{Generation: 4, Elements: []schemas.InteractiveElement{
			{Index: 1, Tag: "a", Role: schemas.RoleNavigationLink, Text: "Guides", Attrs: map[string]string{"href": "/guides"}},
		}},
		Text: strings.Repeat("x", 3000),
	}

	prompt := buildUserPrompt(state, snapshot)

	assert.Contains(t, prompt, "Task: find the docs")
	assert.Contains(t, prompt, "generation 4")
	assert.Contains(t, prompt, "[1]:<a href=/guides>Guides</a>")
	assert.Contains(t, prompt, "FAILED: not visible")
	assert.Contains(t, prompt, "Extracted records so far: 1")
	assert.Less(t, len(prompt), 3500, "page text must be truncated")
}
