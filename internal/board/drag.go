package board

import "github.com/avens/taskdeck/internal/domain"

// PointerKind classifies raw pointer events fed to the drag interpreter.
type PointerKind int

const (
	PointerPress PointerKind = iota
	PointerMove
	PointerRelease
	PointerCancel
)

// PointerEvent is a raw pointer event in screen cell coordinates. The
// interpreter is independent of any gesture or UI library; adapters translate
// native events into this form.
type PointerEvent struct {
	Kind PointerKind
	X, Y int
}

// HitTester resolves screen coordinates to board elements. The renderer
// implements it from its current layout.
type HitTester interface {
	// ItemAt returns the item under the pointer, if any.
	ItemAt(x, y int) (itemID string, ok bool)
	// ColumnAt returns the status column under the pointer, if any.
	ColumnAt(x, y int) (status domain.Status, ok bool)
}

// statusReader is the slice of the store the interpreter needs.
type statusReader interface {
	Status(itemID string) (domain.Status, error)
}

// DragState is the interpreter's state for the single active drag.
type DragState int

const (
	// DragIdle means no gesture is in progress.
	DragIdle DragState = iota
	// DragPressed means the pointer is down on an item but has not moved
	// past the threshold; a release here is a click, not a drop.
	DragPressed
	// DragActive means the gesture is a drag and a drop target is being tracked.
	DragActive
)

// DefaultDragThreshold is the movement (in cells, Chebyshev distance) that
// promotes a press into a drag. It filters accidental drags out of clicks.
const DefaultDragThreshold = 1

// DragInterpreter consumes pointer events and produces resolved transition
// intents. It does not consult the pending-transition gate; a drag on an item
// with an open transition still tracks visually, and the engine rejects the
// resulting intent.
type DragInterpreter struct {
	store     statusReader
	hits      HitTester
	threshold int

	state        DragState
	itemID       string
	pressX       int
	pressY       int
	candidate    domain.Status
	hasCandidate bool
}

// NewDragInterpreter creates an interpreter reading current statuses from
// store and resolving coordinates through hits. threshold <= 0 selects
// DefaultDragThreshold.
func NewDragInterpreter(store statusReader, hits HitTester, threshold int) *DragInterpreter {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &DragInterpreter{store: store, hits: hits, threshold: threshold}
}

// State returns the current gesture state.
func (d *DragInterpreter) State() DragState { return d.state }

// DraggedItem returns the item being dragged and whether a drag is active.
func (d *DragInterpreter) DraggedItem() (string, bool) {
	if d.state == DragIdle {
		return "", false
	}
	return d.itemID, true
}

// Candidate returns the current drop target while dragging.
func (d *DragInterpreter) Candidate() (domain.Status, bool) {
	return d.candidate, d.hasCandidate && d.state == DragActive
}

// Handle advances the state machine with one pointer event. It returns a
// non-nil intent exactly when a drag is dropped on a column that differs from
// the item's current status; every other event returns nil.
func (d *DragInterpreter) Handle(ev PointerEvent) *domain.TransitionIntent {
	switch ev.Kind {
	case PointerPress:
		d.reset()
		if itemID, ok := d.hits.ItemAt(ev.X, ev.Y); ok {
			d.state = DragPressed
			d.itemID = itemID
			d.pressX, d.pressY = ev.X, ev.Y
		}
		return nil

	case PointerMove:
		switch d.state {
		case DragPressed:
			if chebyshev(ev.X-d.pressX, ev.Y-d.pressY) >= d.threshold {
				d.state = DragActive
				d.trackCandidate(ev.X, ev.Y)
			}
		case DragActive:
			d.trackCandidate(ev.X, ev.Y)
		}
		return nil

	case PointerRelease:
		if d.state != DragActive {
			// A release before the threshold is a click; nothing to emit.
			d.reset()
			return nil
		}
		intent := d.dropIntent()
		d.reset()
		return intent

	case PointerCancel:
		d.reset()
		return nil
	}
	return nil
}

// trackCandidate updates the drop target: the column under the pointer, or
// the column of a sibling card under the pointer (dropping near a card counts
// as a drop on that card's column).
func (d *DragInterpreter) trackCandidate(x, y int) {
	if status, ok := d.hits.ColumnAt(x, y); ok {
		d.candidate = status
		d.hasCandidate = true
		return
	}
	if itemID, ok := d.hits.ItemAt(x, y); ok && itemID != d.itemID {
		if status, err := d.store.Status(itemID); err == nil {
			d.candidate = status
			d.hasCandidate = true
			return
		}
	}
	d.hasCandidate = false
}

// dropIntent builds the transition intent for a completed drag, or nil when
// the drop is invalid or lands on the item's own column.
func (d *DragInterpreter) dropIntent() *domain.TransitionIntent {
	if !d.hasCandidate {
		return nil
	}
	from, err := d.store.Status(d.itemID)
	if err != nil {
		return nil
	}
	if d.candidate == from {
		return nil
	}
	return &domain.TransitionIntent{ItemID: d.itemID, From: from, To: d.candidate}
}

func (d *DragInterpreter) reset() {
	d.state = DragIdle
	d.itemID = ""
	d.hasCandidate = false
}

func chebyshev(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
