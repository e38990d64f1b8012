// internal/planner/parse.go
package planner

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"

	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseAction extracts one Action from raw model output. Candidates are
// tried in order: a fenced code block, the first balanced brace
// substring, then the raw text. Each candidate gets a second chance
// through jsonrepair before being rejected, since models routinely emit
// trailing commas or single quotes.
func ParseAction(response string) (schemas.Action, error) {
	var candidates []string
	if m := jsonBlockRegex.FindStringSubmatch(response); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if sub := braceSubstring(response); sub != "" {
		candidates = append(candidates, sub)
	}
	candidates = append(candidates, strings.TrimSpace(response))

	var lastErr error
	for _, c := range candidates {
		if c == "" {
			continue
		}
		action, err := decodeAction(c)
		if err == nil {
			return action, nil
		}
		lastErr = err

		repaired, repairErr := jsonrepair.JSONRepair(c)
		if repairErr != nil {
			continue
		}
		if action, err = decodeAction(repaired); err == nil {
			return action, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON object in response")
	}
	return schemas.Action{}, fmt.Errorf("parsing planner response: %w", lastErr)
}

func decodeAction(raw string) (schemas.Action, error) {
	var action schemas.Action
	if err := json.UnmarshalFromString(raw, &action); err != nil {
		return schemas.Action{}, err
	}
	if action.Type == "" {
		return schemas.Action{}, fmt.Errorf("action has no type")
	}
	return action, nil
}

// braceSubstring returns the first balanced top-level {...} span.
func braceSubstring(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
