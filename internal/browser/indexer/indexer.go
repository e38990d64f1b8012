// internal/browser/indexer/indexer.go
package indexer

import (
	"context"
	"fmt"
	"math"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxElements caps the indexed table so planner prompts stay bounded.
const MaxElements = 20

// Scripter is the slice of the browser session the indexer needs.
type Scripter interface {
	RunScript(ctx context.Context, script string, out any) error
}

// candidate is the raw shape returned by the in-page scan.
type candidate struct {
	Raw    int                 `json:"raw"`
	Tag    string              `json:"tag"`
	Role   schemas.ElementRole `json:"role"`
	Text   string              `json:"text"`
	X      float64             `json:"x"`
	Y      float64             `json:"y"`
	Width  float64             `json:"width"`
	Height float64             `json:"height"`
	Attrs  map[string]string   `json:"attrs"`
}

// Indexer builds one generation of the interactive element table per
// call. It is bound to a single session and keeps a monotonically
// increasing generation counter.
type Indexer struct {
	page        Scripter
	logger      *zap.Logger
	drawMarkers bool
	generation  int
}

// New returns an Indexer over the given page.
func New(page Scripter, logger *zap.Logger, drawMarkers bool) *Indexer {
	return &Indexer{
		page:        page,
		logger:      logger.Named("indexer"),
		drawMarkers: drawMarkers,
	}
}

// Index scans the page, ranks the candidates, and tags the selected
// nodes with their 1-based index. Each call starts a new generation and
// clears the previous generation's tags and markers.
func (ix *Indexer) Index(ctx context.Context) (*schemas.ElementIndex, error) {
	var cands []candidate
	if err := ix.page.RunScript(ctx, scanScript, &cands); err != nil {
		return nil, fmt.Errorf("scanning page for interactive elements: %w", err)
	}

	elements := rank(cands)

	assignment := make(map[string]int, len(elements))
	for _, e := range elements {
		assignment[fmt.Sprintf("%d", e.rawID)] = e.Element.Index
	}
	rawJSON, err := json.Marshal(assignment)
	if err != nil {
		return nil, fmt.Errorf("encoding index assignment: %w", err)
	}
	applyScript := fmt.Sprintf(applyScriptTemplate, rawJSON, ix.drawMarkers)
	if err := ix.page.RunScript(ctx, applyScript, nil); err != nil {
		return nil, fmt.Errorf("applying element indices: %w", err)
	}

	ix.generation++
	table := make([]schemas.InteractiveElement, 0, len(elements))
	for _, e := range elements {
		table = append(table, e.Element)
	}
	ix.logger.Debug("Indexed page",
		zap.Int("generation", ix.generation),
		zap.Int("candidates", len(cands)),
		zap.Int("indexed", len(table)))

	return &schemas.ElementIndex{Generation: ix.generation, Elements: table}, nil
}

// ranked pairs a finished element with the raw id it came from.
type ranked struct {
	Element schemas.InteractiveElement
	rawID   int
}

// rank filters, dedupes, orders, and caps scan candidates, assigning
// 1-based indices. Dedup key is the rounded position plus tag; the
// higher-priority occurrence wins. Order is (role priority, y, x).
// The output is deterministic for a given candidate list.
func rank(cands []candidate) []ranked {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if pa, pb := a.Role.Priority(), b.Role.Priority(); pa != pb {
			return pa < pb
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	type dedupKey struct {
		x, y int
		tag  string
	}
	seen := make(map[dedupKey]bool)
	out := make([]ranked, 0, MaxElements)
	for _, c := range sorted {
		key := dedupKey{x: int(math.Round(c.X)), y: int(math.Round(c.Y)), tag: c.Tag}
		if seen[key] {
			continue
		}
		seen[key] = true

		index := len(out) + 1
		out = append(out, ranked{
			rawID: c.Raw,
			Element: schemas.InteractiveElement{
				Index:    index,
				Tag:      c.Tag,
				Role:     c.Role,
				Text:     c.Text,
				Selector: fmt.Sprintf(`[data-pp-index="%d"]`, index),
				X:        c.X,
				Y:        c.Y,
				Width:    c.Width,
				Height:   c.Height,
				Attrs:    c.Attrs,
			},
		})
		if len(out) == MaxElements {
			break
		}
	}
	return out
}
