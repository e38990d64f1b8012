// internal/browser/executor/extract.go
package executor

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/xkilldash9x/pagepilot/internal/agent"
	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

// extractRecord is the shape the extraction script resolves to.
type extractRecord struct {
	URL   string           `json:"url"`
	Title string           `json:"title"`
	Text  string           `json:"text"`
	Items []map[string]any `json:"items"`
}

// extract pulls one structured record from the page. The record's items
// (one per indexed element) are what the control loop merges into the
// task's extracted data.
func (ex *Executor) extract(ctx context.Context) schemas.ActionResult {
	var record extractRecord
	if err := ex.page.RunScript(ctx, extractScript, &record); err != nil {
		return failure(fmt.Sprintf("extraction script failed: %v", err))
	}
	return success(map[string]any{
		"url":   record.URL,
		"title": record.Title,
		"text":  record.Text,
		"items": record.Items,
	})
}

// PageText returns the page's visible text excerpt, as the extraction
// script sees it. Used for planner prompts without logging an extract
// step.
func (ex *Executor) PageText(ctx context.Context) (string, error) {
	var record extractRecord
	if err := ex.page.RunScript(ctx, extractScript, &record); err != nil {
		return "", fmt.Errorf("page text probe failed: %w", err)
	}
	return record.Text, nil
}

// checkGoal evaluates whether the page plausibly satisfies the goal
// text. The goal comes through the action value (the loop fills it with
// the task instruction when the planner leaves it empty). The heuristic
// matches significant goal keywords against the page identity and text,
// with a search-results shortcut.
func (ex *Executor) checkGoal(ctx context.Context, action schemas.Action) schemas.ActionResult {
	var record extractRecord
	if err := ex.page.RunScript(ctx, extractScript, &record); err != nil {
		return failure(fmt.Sprintf("goal probe failed: %v", err))
	}
	state, stateErr := ex.PageState(ctx)

	keywords := GoalKeywords(action.Value)
	haystack := strings.ToLower(record.URL + " " + record.Title + " " + record.Text)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matched++
		}
	}

	achieved := len(keywords) > 0 && matched*2 >= len(keywords)
	if !achieved && stateErr == nil && state.IsSearchResults && agent.IsSearchInstruction(action.Value) {
		achieved = true
	}

	return success(map[string]any{
		"goal_achieved": achieved,
		"matched":       matched,
		"keywords":      len(keywords),
	})
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"then": true, "into": true, "page": true, "site": true, "website": true,
	"open": true, "goto": true, "please": true, "find": true, "search": true,
}

// GoalKeywords tokenizes an instruction into the significant lowercase
// words the goal heuristic matches on.
func GoalKeywords(instruction string) []string {
	fields := strings.FieldsFunc(strings.ToLower(instruction), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
