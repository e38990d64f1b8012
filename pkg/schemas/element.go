// pkg/schemas/element.go
package schemas

import (
	"fmt"
	"sort"
	"strings"
)

// ElementRole classifies an indexed element for ranking and for the
// planner's benefit.
type ElementRole string

const (
	RoleSearchInput    ElementRole = "search_input"
	RoleSearchButton   ElementRole = "search_button"
	RoleFormInput      ElementRole = "form_input"
	RoleActionButton   ElementRole = "action_button"
	RoleNavigationLink ElementRole = "navigation_link"
	RoleFormButton     ElementRole = "form_button"
	RoleGeneric        ElementRole = "interactive_element"
)

// rolePriority orders roles for ranking. Lower is more important.
var rolePriority = map[ElementRole]int{
	RoleSearchInput:    1,
	RoleSearchButton:   2,
	RoleFormInput:      3,
	RoleActionButton:   4,
	RoleNavigationLink: 5,
	RoleFormButton:     6,
	RoleGeneric:        7,
}

// Priority returns the ranking weight for a role. Unknown roles rank last.
func (r ElementRole) Priority() int {
	if p, ok := rolePriority[r]; ok {
		return p
	}
	return len(rolePriority) + 1
}

// InteractiveElement is one row of the indexed element table.
// Index is 1-based and only meaningful within its generation.
type InteractiveElement struct {
	Index    int               `json:"index"`
	Tag      string            `json:"tag"`
	Role     ElementRole       `json:"role"`
	Text     string            `json:"text,omitempty"`
	Selector string            `json:"selector"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// PseudoHTML renders the row as a one-line tag sketch for LLM prompts,
// e.g. `[3]:<input type=search placeholder=Search>query</input>`.
func (e InteractiveElement) PseudoHTML() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]:<%s", e.Index, e.Tag)
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := e.Attrs[k]; v != "" {
			fmt.Fprintf(&b, " %s=%s", k, v)
		}
	}
	fmt.Fprintf(&b, ">%s</%s>", e.Text, e.Tag)
	return b.String()
}

// ElementIndex is one generation of the indexed element table. The
// generation counter ties planner targets to the DOM snapshot they were
// produced from; indices from an older generation must not be resolved
// against a newer one.
type ElementIndex struct {
	Generation int                  `json:"generation"`
	Elements   []InteractiveElement `json:"elements"`
}

// Lookup returns the element with the given 1-based index.
func (ei *ElementIndex) Lookup(index int) (InteractiveElement, bool) {
	for _, e := range ei.Elements {
		if e.Index == index {
			return e, true
		}
	}
	return InteractiveElement{}, false
}

// Len returns the number of indexed elements.
func (ei *ElementIndex) Len() int { return len(ei.Elements) }

// PseudoHTML renders the whole table, one element per line.
func (ei *ElementIndex) PseudoHTML() string {
	lines := make([]string, 0, len(ei.Elements))
	for _, e := range ei.Elements {
		lines = append(lines, e.PseudoHTML())
	}
	return strings.Join(lines, "\n")
}

// PageSnapshot is the planner's observation of the page at one step.
type PageSnapshot struct {
	URL       string        `json:"url"`
	Title     string        `json:"title"`
	Elements  *ElementIndex `json:"elements"`
	Text      string        `json:"text,omitempty"`
	PageState *PageState    `json:"page_state,omitempty"`
}
