package board

import (
	"testing"

	"github.com/avens/taskdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type colBand struct {
	x0, x1 int
	status domain.Status
}

// fakeHits is a scripted HitTester: two columns side by side, each 20 cells
// wide, with cards at fixed positions.
type fakeHits struct {
	items   map[int]map[int]string // y -> x -> itemID
	columns []colBand
}

func newFakeHits() *fakeHits {
	return &fakeHits{
		items: map[int]map[int]string{},
		columns: []colBand{
			{0, 19, domain.StatusTodo},
			{20, 39, domain.StatusInProgress},
		},
	}
}

func (h *fakeHits) placeItem(id string, x, y int) {
	if h.items[y] == nil {
		h.items[y] = map[int]string{}
	}
	h.items[y][x] = id
}

func (h *fakeHits) ItemAt(x, y int) (string, bool) {
	id, ok := h.items[y][x]
	return id, ok
}

func (h *fakeHits) ColumnAt(x, y int) (domain.Status, bool) {
	if y < 0 || y > 30 {
		return "", false
	}
	for _, c := range h.columns {
		if x >= c.x0 && x <= c.x1 {
			return c.status, true
		}
	}
	return "", false
}

func dragFixture(t *testing.T) (*DragInterpreter, *fakeHits, *Store) {
	t.Helper()
	s := createTestStore()
	hits := newFakeHits()
	hits.placeItem("item_1", 5, 3) // todo column
	hits.placeItem("item_2", 25, 3) // in-progress column
	return NewDragInterpreter(s, hits, 2), hits, s
}

func TestDrag_DropOnColumnEmitsIntent(t *testing.T) {
	d, _, _ := dragFixture(t)

	assert.Nil(t, d.Handle(PointerEvent{Kind: PointerPress, X: 5, Y: 3}))
	assert.Equal(t, DragPressed, d.State())

	assert.Nil(t, d.Handle(PointerEvent{Kind: PointerMove, X: 15, Y: 3}))
	assert.Equal(t, DragActive, d.State())

	assert.Nil(t, d.Handle(PointerEvent{Kind: PointerMove, X: 25, Y: 5}))
	candidate, ok := d.Candidate()
	require.True(t, ok)
	assert.Equal(t, domain.StatusInProgress, candidate)

	intent := d.Handle(PointerEvent{Kind: PointerRelease, X: 25, Y: 5})
	require.NotNil(t, intent)
	assert.Equal(t, domain.TransitionIntent{
		ItemID: "item_1",
		From:   domain.StatusTodo,
		To:     domain.StatusInProgress,
	}, *intent)
	assert.Equal(t, DragIdle, d.State())
}

func TestDrag_ClickBelowThresholdEmitsNothing(t *testing.T) {
	d, _, _ := dragFixture(t)

	assert.Nil(t, d.Handle(PointerEvent{Kind: PointerPress, X: 5, Y: 3}))
	assert.Nil(t, d.Handle(PointerEvent{Kind: PointerMove, X: 6, Y: 3})) // 1 cell, threshold is 2
	assert.Equal(t, DragPressed, d.State())

	intent := d.Handle(PointerEvent{Kind: PointerRelease, X: 6, Y: 3})
	assert.Nil(t, intent)
	assert.Equal(t, DragIdle, d.State())
}

func TestDrag_DropOnOwnColumnEmitsNothing(t *testing.T) {
	d, _, _ := dragFixture(t)

	d.Handle(PointerEvent{Kind: PointerPress, X: 5, Y: 3})
	d.Handle(PointerEvent{Kind: PointerMove, X: 10, Y: 8})
	assert.Equal(t, DragActive, d.State())

	intent := d.Handle(PointerEvent{Kind: PointerRelease, X: 10, Y: 8})
	assert.Nil(t, intent)
}

func TestDrag_DropOutsideAnyTargetEmitsNothing(t *testing.T) {
	d, _, _ := dragFixture(t)

	d.Handle(PointerEvent{Kind: PointerPress, X: 5, Y: 3})
	d.Handle(PointerEvent{Kind: PointerMove, X: 25, Y: 5})
	d.Handle(PointerEvent{Kind: PointerMove, X: 100, Y: 50}) // off the board

	intent := d.Handle(PointerEvent{Kind: PointerRelease, X: 100, Y: 50})
	assert.Nil(t, intent)
}

func TestDrag_CancelEmitsNothing(t *testing.T) {
	d, _, _ := dragFixture(t)

	d.Handle(PointerEvent{Kind: PointerPress, X: 5, Y: 3})
	d.Handle(PointerEvent{Kind: PointerMove, X: 25, Y: 5})
	assert.Equal(t, DragActive, d.State())

	intent := d.Handle(PointerEvent{Kind: PointerCancel})
	assert.Nil(t, intent)
	assert.Equal(t, DragIdle, d.State())
}

// Dropping near a sibling card counts as a drop on that card's column.
func TestDrag_DropOnSiblingCardUsesItsColumn(t *testing.T) {
	d, hits, _ := dragFixture(t)

	// item_2 sits outside any column band so only ItemAt resolves it.
	hits.placeItem("item_2", 50, 3)

	d.Handle(PointerEvent{Kind: PointerPress, X: 5, Y: 3})
	d.Handle(PointerEvent{Kind: PointerMove, X: 30, Y: 3})
	d.Handle(PointerEvent{Kind: PointerMove, X: 50, Y: 3})

	intent := d.Handle(PointerEvent{Kind: PointerRelease, X: 50, Y: 3})
	require.NotNil(t, intent)
	assert.Equal(t, domain.StatusInProgress, intent.To)
}

func TestDrag_PressOutsideItemIsIgnored(t *testing.T) {
	d, _, _ := dragFixture(t)

	assert.Nil(t, d.Handle(PointerEvent{Kind: PointerPress, X: 18, Y: 20}))
	assert.Equal(t, DragIdle, d.State())

	assert.Nil(t, d.Handle(PointerEvent{Kind: PointerMove, X: 30, Y: 20}))
	assert.Nil(t, d.Handle(PointerEvent{Kind: PointerRelease, X: 30, Y: 20}))
}
