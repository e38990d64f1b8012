// internal/planner/prompts.go
package planner

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

const systemPrompt = `You are a browser automation planner. Each turn you see the
current page and the task state, and you answer with exactly one action as a
single JSON object, no prose.

Action schema:
{"type": "...", "target": "...", "value": "...", "description": "..."}

Types and their fields:
- navigate: target = absolute URL
- click:    target = element index from the table; value may be "right",
            "middle", "double"
- input:    target = element index; value = text to type; append "|ENTER" to
            submit with the Enter key
- scroll:   value = "up" | "down" | "top" | "bottom" | signed pixel amount
- hover:    target = element index
- wait:     value = milliseconds
- extract:  collect the visible records from the current page
- check_goal: verify whether the task goal is satisfied
- complete: the task is done

Rules:
- Element indices are only valid for the table shown this turn.
- Prefer search inputs for search tasks; type the query and submit with "|ENTER".
- After a results page loads, extract before navigating away.
- Use check_goal when you believe the goal is met; use complete only after it is
  confirmed or obvious.`

const maxPromptText = 2000

// buildUserPrompt renders the observation the model plans against.
func buildUserPrompt(state *schemas.TaskState, snapshot schemas.PageSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Task: %s\n", state.Instruction)
	if state.TargetURL != "" {
		fmt.Fprintf(&b, "Target URL: %s\n", state.TargetURL)
	}
	fmt.Fprintf(&b, "Step %d of %d. Extracted records so far: %d.\n",
		state.StepCount+1, state.MaxSteps, len(state.ExtractedData))

	fmt.Fprintf(&b, "\nCurrent page: %s", snapshot.URL)
	if snapshot.Title != "" {
		fmt.Fprintf(&b, " (%s)", snapshot.Title)
	}
	b.WriteString("\n")

	if snapshot.Elements != nil && snapshot.Elements.Len() > 0 {
		fmt.Fprintf(&b, "\nInteractive elements (generation %d):\n%s\n",
			snapshot.Elements.Generation, snapshot.Elements.PseudoHTML())
	} else {
		b.WriteString("\nNo interactive elements are indexed on this page.\n")
	}

	if snapshot.Text != "" {
		text := snapshot.Text
		if len(text) > maxPromptText {
			text = text[:maxPromptText]
		}
		fmt.Fprintf(&b, "\nVisible text:\n%s\n", text)
	}

	if len(state.History) > 0 {
		b.WriteString("\nRecent steps:\n")
		for _, h := range state.History {
			status := "ok"
			if !h.Result.Success {
				status = "FAILED: " + h.Result.Error
			}
			fmt.Fprintf(&b, "- %s target=%q value=%q -> %s\n",
				h.Action.Type, h.Action.Target, h.Action.Value, status)
		}
	}

	b.WriteString("\nRespond with the single next action as JSON.")
	return b.String()
}
