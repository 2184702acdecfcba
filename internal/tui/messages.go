// Package tui provides Bubble Tea models for the interactive board client.
package tui

import (
	"github.com/avens/taskdeck/internal/board"
	"github.com/avens/taskdeck/internal/domain"
)

// ErrorMsg is emitted when a fatal error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// boardReadyMsg is emitted once the initial board context (viewer, project)
// is resolved and the board screen can be shown.
type boardReadyMsg struct{}

// itemsFetchedMsg carries the result of a board fetch from the service.
type itemsFetchedMsg struct {
	items []domain.WorkItem
	err   error
}

// transitionCallDoneMsg carries the network result of an in-flight status
// transition back to the event loop, where the store is reconciled.
type transitionCallDoneMsg struct {
	pending *board.PendingTransition
	echo    *domain.WorkItem
	err     error
}

// openDetailMsg asks the app to show the detail view for an item.
type openDetailMsg struct {
	item *domain.WorkItem
}

// closeDetailMsg returns from the detail view to the board.
type closeDetailMsg struct{}
