package indexer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

// fakePage replays a canned scan result and records applied scripts.
type fakePage struct {
	scan    []candidate
	applied []string
}

func (f *fakePage) RunScript(_ context.Context, script string, out any) error {
	if out != nil {
		if dst, ok := out.(*[]candidate); ok {
			*dst = f.scan
			return nil
		}
	}
	f.applied = append(f.applied, script)
	return nil
}

func cand(raw int, tag string, role schemas.ElementRole, x, y float64) candidate {
	return candidate{Raw: raw, Tag: tag, Role: role, Text: fmt.Sprintf("el-%d", raw), X: x, Y: y, Width: 100, Height: 30}
}

func TestRankOrdersByRoleThenPosition(t *testing.T) {
	t.Parallel()
	cands := []candidate{
		cand(0, "a", schemas.RoleNavigationLink, 10, 400),
		cand(1, "input", schemas.RoleSearchInput, 200, 100),
		cand(2, "button", schemas.RoleSearchButton, 320, 100),
		cand(3, "button", schemas.RoleActionButton, 10, 50),
		cand(4, "input", schemas.RoleFormInput, 10, 300),
	}

	out := rank(cands)
	require.Len(t, out, 5)

	gotRoles := make([]schemas.ElementRole, 0, len(out))
	for _, r := range out {
		gotRoles = append(gotRoles, r.Element.Role)
	}
	assert.Equal(t, []schemas.ElementRole{
		schemas.RoleSearchInput,
		schemas.RoleSearchButton,
		schemas.RoleFormInput,
		schemas.RoleActionButton,
		schemas.RoleNavigationLink,
	}, gotRoles)

	for i, r := range out {
		assert.Equal(t, i+1, r.Element.Index, "indices must be 1-based and contiguous")
		assert.Equal(t, fmt.Sprintf(`[data-pp-index="%d"]`, i+1), r.Element.Selector)
	}
}

func TestRankPositionTieBreak(t *testing.T) {
	t.Parallel()
	cands := []candidate{
		cand(0, "a", schemas.RoleNavigationLink, 300, 100),
		cand(1, "a", schemas.RoleNavigationLink, 10, 100),
		cand(2, "a", schemas.RoleNavigationLink, 10, 50),
	}
	out := rank(cands)
	require.Len(t, out, 3)
	assert.Equal(t, 2, out[0].rawID)
	assert.Equal(t, 1, out[1].rawID)
	assert.Equal(t, 0, out[2].rawID)
}

func TestRankDedupsByRoundedPositionAndTag(t *testing.T) {
	t.Parallel()
	cands := []candidate{
		cand(0, "a", schemas.RoleNavigationLink, 10.2, 100.1),
		cand(1, "a", schemas.RoleNavigationLink, 9.8, 99.9), // rounds to same cell
		cand(2, "button", schemas.RoleActionButton, 10.2, 100.1),
	}
	out := rank(cands)
	require.Len(t, out, 2, "same rounded position + tag collapses, different tag survives")
}

func TestRankCapsAtTwenty(t *testing.T) {
	t.Parallel()
	cands := make([]candidate, 0, 35)
	for i := 0; i < 35; i++ {
		cands = append(cands, cand(i, "a", schemas.RoleNavigationLink, float64(i%5)*50, float64(i)*24))
	}
	out := rank(cands)
	require.Len(t, out, MaxElements)
	assert.Equal(t, 1, out[0].Element.Index)
	assert.Equal(t, MaxElements, out[len(out)-1].Element.Index)
}

func TestRankDeterministic(t *testing.T) {
	t.Parallel()
	cands := []candidate{
		cand(0, "a", schemas.RoleNavigationLink, 10, 400),
		cand(1, "input", schemas.RoleSearchInput, 200, 100),
		cand(2, "button", schemas.RoleActionButton, 320, 100),
		cand(3, "button", schemas.RoleActionButton, 320, 100.4),
	}
	first := rank(cands)
	second := rank(cands)

	a := make([]schemas.InteractiveElement, 0, len(first))
	b := make([]schemas.InteractiveElement, 0, len(second))
	for i := range first {
		a = append(a, first[i].Element)
		b = append(b, second[i].Element)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("ranking is not deterministic (-first +second):\n%s", diff)
	}
}

func TestIndexGenerationsAdvance(t *testing.T) {
	t.Parallel()
	page := &fakePage{scan: []candidate{
		cand(0, "input", schemas.RoleSearchInput, 10, 10),
		cand(1, "a", schemas.RoleNavigationLink, 10, 200),
	}}
	ix := New(page, zap.NewNop(), false)

	first, err := ix.Index(context.Background())
	require.NoError(t, err)
	second, err := ix.Index(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Generation)
	assert.Equal(t, 2, second.Generation)
	assert.Equal(t, first.Len(), second.Len())

	e, ok := second.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, schemas.RoleSearchInput, e.Role)
	_, ok = second.Lookup(99)
	assert.False(t, ok)

	// The apply script carries the raw-to-index assignment.
	require.Len(t, page.applied, 2)
	assert.Contains(t, page.applied[0], `"0":1`)
	assert.True(t, strings.Contains(page.applied[0], "data-pp-index"))
}
