// Package board implements the kanban board synchronization engine: the
// in-memory state store, the transition resolver, the drag interpreter, the
// optimistic mutator / reconciliation controller, and the notification
// dispatcher.
//
// All mutation happens on a single goroutine (the UI event loop), so the
// store uses no locking; concurrency here is about the ordering of
// asynchronous completions, which the per-item pending-transition gate
// serializes.
package board

import (
	"errors"
	"sort"

	"github.com/avens/taskdeck/internal/domain"
)

var (
	// ErrItemNotFound indicates the requested work item does not exist in the store.
	ErrItemNotFound = errors.New("work item not found")
	// ErrTransitionInFlight indicates the item already has an unresolved transition.
	ErrTransitionInFlight = errors.New("transition already in flight for item")
	// ErrNoChange indicates a transition intent whose target equals the current status.
	ErrNoChange = errors.New("status unchanged")
)

// PendingTransition tracks an in-flight reconciliation for one item. It
// exists from the moment the optimistic patch is applied until the engine
// reaches a terminal resolution. At most one may be open per item.
type PendingTransition struct {
	ItemID   string
	From     domain.Status
	To       domain.Status
	Op       Operation
	Snapshot *domain.WorkItem // full pre-mutation copy, restored on rollback
}

// Patch is a partial field update for a work item. Nil fields are left
// untouched.
type Patch struct {
	Title       *string
	Description *string
	Status      *domain.Status
	AssigneeID  *string
	Priority    *domain.Priority
	DueDate     *string
}

// StatusPatch returns a Patch that changes only the status.
func StatusPatch(s domain.Status) Patch {
	return Patch{Status: &s}
}

// Store is the single source of truth for board state. Work items are owned
// exclusively by the store; components read clones and mutate through the
// narrow API below.
type Store struct {
	scope   domain.Scope
	project *domain.Project
	actorID string

	items   map[string]*domain.WorkItem
	columns map[domain.Status][]string // status -> ordered item IDs

	pending map[string]*PendingTransition

	subs []func()
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items:   make(map[string]*domain.WorkItem),
		columns: make(map[domain.Status][]string),
		pending: make(map[string]*PendingTransition),
	}
}

// SetScope sets the project/sprint scope the board is loaded for.
func (s *Store) SetScope(scope domain.Scope) { s.scope = scope }

// Scope returns the current board scope.
func (s *Store) Scope() domain.Scope { return s.scope }

// SetProject sets the current project metadata.
func (s *Store) SetProject(p *domain.Project) { s.project = p }

// Project returns the current project, or nil if not loaded yet.
func (s *Store) Project() *domain.Project { return s.project }

// SetActor sets the authenticated collaborator ID, used for notification
// suppression and the assigned-to-me filter.
func (s *Store) SetActor(id string) { s.actorID = id }

// Actor returns the authenticated collaborator ID.
func (s *Store) Actor() string { return s.actorID }

// Load replaces the entire collection. Used only on initial fetch or explicit
// refresh. A full reload supersedes in-flight optimism, so all pending
// transitions are cleared.
func (s *Store) Load(items []domain.WorkItem) {
	s.items = make(map[string]*domain.WorkItem, len(items))
	for i := range items {
		item := items[i]
		s.items[item.ID] = &item
	}
	s.pending = make(map[string]*PendingTransition)
	s.rebuildColumns()
	s.changed()
}

// Upsert adds or updates items without touching the rest of the collection.
func (s *Store) Upsert(items ...domain.WorkItem) {
	for i := range items {
		item := items[i]
		s.items[item.ID] = &item
	}
	s.rebuildColumns()
	s.changed()
}

// Item returns a clone of the item, or ErrItemNotFound. Returning a clone
// keeps ownership with the store: callers cannot mutate board state through
// the result.
func (s *Store) Item(itemID string) (*domain.WorkItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return item.Clone(), nil
}

// Status returns the current status of an item.
func (s *Store) Status(itemID string) (domain.Status, error) {
	item, ok := s.items[itemID]
	if !ok {
		return "", ErrItemNotFound
	}
	return item.Status, nil
}

// Items returns clones of all items, ordered by ID for determinism.
func (s *Store) Items() []domain.WorkItem {
	out := make([]domain.WorkItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of items on the board.
func (s *Store) Len() int { return len(s.items) }

// ApplyPatch merges the non-nil fields of the patch into an existing item.
func (s *Store) ApplyPatch(itemID string, p Patch) error {
	item, ok := s.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.AssigneeID != nil {
		item.AssigneeID = *p.AssigneeID
	}
	if p.Priority != nil {
		item.Priority = *p.Priority
	}
	if p.DueDate != nil {
		item.DueDate = *p.DueDate
	}
	s.rebuildColumns()
	s.changed()
	return nil
}

// ReplaceItem overwrites an existing item wholesale. Used to merge an
// authoritative server echo and to restore a rollback snapshot.
func (s *Store) ReplaceItem(item domain.WorkItem) error {
	if _, ok := s.items[item.ID]; !ok {
		return ErrItemNotFound
	}
	s.items[item.ID] = item.Clone()
	s.rebuildColumns()
	s.changed()
	return nil
}

// Remove deletes an item. Deletion is a distinct explicit operation, not a
// patch.
func (s *Store) Remove(itemID string) error {
	if _, ok := s.items[itemID]; !ok {
		return ErrItemNotFound
	}
	delete(s.items, itemID)
	delete(s.pending, itemID)
	s.rebuildColumns()
	s.changed()
	return nil
}

// ColumnItemIDs returns the ordered item IDs for a status column.
func (s *Store) ColumnItemIDs(status domain.Status) []string {
	ids := s.columns[status]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Columns returns a copy of the full column mapping.
func (s *Store) Columns() map[domain.Status][]string {
	out := make(map[domain.Status][]string, len(s.columns))
	for status, ids := range s.columns {
		cp := make([]string, len(ids))
		copy(cp, ids)
		out[status] = cp
	}
	return out
}

// OpenTransition registers a pending transition for an item. It fails with
// ErrTransitionInFlight if one is already open, enforcing the single-flight
// guarantee.
func (s *Store) OpenTransition(p *PendingTransition) error {
	if _, open := s.pending[p.ItemID]; open {
		return ErrTransitionInFlight
	}
	s.pending[p.ItemID] = p
	return nil
}

// CloseTransition discards the pending transition for an item, if any.
func (s *Store) CloseTransition(itemID string) {
	delete(s.pending, itemID)
}

// PendingFor returns the open transition for an item, if one exists.
func (s *Store) PendingFor(itemID string) (*PendingTransition, bool) {
	p, ok := s.pending[itemID]
	return p, ok
}

// PendingCount returns the number of open transitions across all items.
func (s *Store) PendingCount() int { return len(s.pending) }

// Subscribe registers a change callback, invoked synchronously after every
// mutation. It returns an unsubscribe function.
func (s *Store) Subscribe(fn func()) func() {
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	return func() { s.subs[idx] = nil }
}

func (s *Store) changed() {
	for _, fn := range s.subs {
		if fn != nil {
			fn()
		}
	}
}

// rebuildColumns reconstructs the status -> item ID mapping. Within a column,
// items are ordered by priority (urgent first), then due date, then ID, so
// the layout is stable across rebuilds.
func (s *Store) rebuildColumns() {
	s.columns = make(map[domain.Status][]string)
	for id, item := range s.items {
		s.columns[item.Status] = append(s.columns[item.Status], id)
	}
	for status, ids := range s.columns {
		sort.Slice(ids, func(i, j int) bool {
			a, b := s.items[ids[i]], s.items[ids[j]]
			if ra, rb := priorityRank(a.Priority), priorityRank(b.Priority); ra != rb {
				return ra < rb
			}
			if a.DueDate != b.DueDate {
				if a.DueDate == "" {
					return false
				}
				if b.DueDate == "" {
					return true
				}
				return a.DueDate < b.DueDate
			}
			return a.ID < b.ID
		})
		s.columns[status] = ids
	}
}

func priorityRank(p domain.Priority) int {
	switch p {
	case domain.PriorityUrgent:
		return 0
	case domain.PriorityHigh:
		return 1
	case domain.PriorityMedium:
		return 2
	case domain.PriorityLow:
		return 3
	}
	return 4
}
