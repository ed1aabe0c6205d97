package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `- banner
  - heading "Shop"
  - navigation
    - link "Home"
    - link "Cart"
- main
  - button "Pay"
  - paragraph
    - text "Total: 12"
  - textbox "Coupon"`

func TestProjectSnapshotDepth(t *testing.T) {
	// Depth 0 keeps only root-indentation lines.
	got := ProjectSnapshot(sampleSnapshot, SnapshotOptions{MaxDepth: 0})
	require.Equal(t, "- banner\n- main", got)

	got = ProjectSnapshot(sampleSnapshot, SnapshotOptions{MaxDepth: 1})
	require.Contains(t, got, `- button "Pay"`)
	require.NotContains(t, got, `- link "Home"`)

	// Negative depth disables the cutoff.
	got = ProjectSnapshot(sampleSnapshot, SnapshotOptions{MaxDepth: -1})
	require.Equal(t, sampleSnapshot, got)
}

func TestProjectSnapshotInteractiveOnly(t *testing.T) {
	got := ProjectSnapshot(sampleSnapshot, SnapshotOptions{MaxDepth: -1, InteractiveOnly: true})

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		role := lineRole(strings.TrimLeft(line, " "))
		if !interactiveRoles[role] {
			t.Errorf("non-interactive line kept: %q", line)
		}
	}
	require.Contains(t, got, `link "Home"`)
	require.Contains(t, got, `button "Pay"`)
	require.Contains(t, got, `textbox "Coupon"`)
	require.NotContains(t, got, "heading")
	require.NotContains(t, got, "paragraph")
}

func TestDOMSnapshotSelection(t *testing.T) {
	e := NewEngine(fixtureRun(t))

	before, err := e.DOMSnapshot(0, 0, "before", SnapshotOptions{MaxDepth: -1})
	require.NoError(t, err)
	require.Contains(t, before, `- button "Pay"`)
	require.NotContains(t, before, "disabled")

	after, err := e.DOMSnapshot(0, 0, "after", SnapshotOptions{MaxDepth: -1})
	require.NoError(t, err)
	require.Contains(t, after, "[disabled]")

	// Default side is after.
	def, err := e.DOMSnapshot(0, 0, "", SnapshotOptions{MaxDepth: -1})
	require.Equal(t, after, def)
	require.NoError(t, err)

	// Action without snapshot yields empty, not an error.
	empty, err := e.DOMSnapshot(0, 1, "after", SnapshotOptions{MaxDepth: -1})
	require.NoError(t, err)
	require.Equal(t, "", empty)

	_, err = e.DOMSnapshot(0, 9, "after", SnapshotOptions{})
	require.Error(t, err)

	_, err = e.DOMSnapshot(0, 0, "sideways", SnapshotOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown snapshot side "sideways"`)
}

func TestDOMDiff(t *testing.T) {
	e := NewEngine(fixtureRun(t))

	diff, err := e.DOMDiff(0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{`- button "Pay" [disabled]`}, diff.Changed)
	require.Empty(t, diff.Added)

	// No snapshot means an empty diff, not an error.
	diff, err = e.DOMDiff(0, 1)
	require.NoError(t, err)
	require.Empty(t, diff.Changed)
}
