// internal/agent/heuristics.go
package agent

import "strings"

// searchTerms mark an instruction as a search-style task. The CJK terms
// match the instruction vocabulary this agent is commonly driven with.
var searchTerms = []string{"search", "find", "look up", "lookup", "query", "搜索", "查找"}

// IsSearchInstruction reports whether the instruction describes a
// search-style task.
func IsSearchInstruction(instruction string) bool {
	lower := strings.ToLower(instruction)
	for _, term := range searchTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
