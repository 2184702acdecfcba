package board

import (
	"fmt"

	"github.com/avens/taskdeck/internal/domain"
)

// Operation identifies which remote call a status transition maps to.
// Certain transitions carry domain meaning server-side and route through
// dedicated operations so the server can apply transition-specific
// bookkeeping; everything else falls back to the generic status setter.
type Operation int

const (
	// OpNone means the transition is a no-op (target equals current status).
	OpNone Operation = iota
	// OpStart begins work on a todo item.
	OpStart
	// OpSubmitForReview moves an in-progress item into review.
	OpSubmitForReview
	// OpComplete finishes an item, from review or directly from in-progress.
	OpComplete
	// OpReopen moves a reviewed or completed item back to in-progress.
	OpReopen
	// OpSetStatus is the generic setter carrying the literal target status.
	OpSetStatus
)

// String returns the wire-level operation name.
func (op Operation) String() string {
	switch op {
	case OpNone:
		return "none"
	case OpStart:
		return "start"
	case OpSubmitForReview:
		return "submit-for-review"
	case OpComplete:
		return "complete"
	case OpReopen:
		return "reopen"
	case OpSetStatus:
		return "set-status"
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// Resolve maps a (from, to) status pair to the remote operation and a
// human-readable label for it. It is pure and deterministic. An unknown from
// status degrades to the generic setter; the resolver never guesses a
// dedicated operation.
func Resolve(from, to domain.Status) (Operation, string) {
	if from == to {
		return OpNone, "no change"
	}

	switch {
	case from == domain.StatusTodo && to == domain.StatusInProgress:
		return OpStart, "start work"
	case from == domain.StatusInProgress && to == domain.StatusReview:
		return OpSubmitForReview, "submit for review"
	case from == domain.StatusReview && to == domain.StatusCompleted:
		return OpComplete, "complete"
	case from == domain.StatusInProgress && to == domain.StatusCompleted:
		return OpComplete, "complete"
	case from == domain.StatusReview && to == domain.StatusInProgress:
		return OpReopen, "reopen"
	case from == domain.StatusCompleted && to == domain.StatusInProgress:
		return OpReopen, "reopen"
	}

	return OpSetStatus, fmt.Sprintf("move to %s", to.Label())
}
