// Package domain defines the normalized domain types for the work-item board.
// These types represent the core concepts independent of the service API structure.
package domain

// Status is a work item's workflow state. The set is closed and ordered by
// workflow progression.
type Status string

// Workflow states.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
)

// WorkflowOrder lists the statuses in board column order.
var WorkflowOrder = []Status{StatusTodo, StatusInProgress, StatusReview, StatusCompleted}

// Known reports whether s is one of the defined workflow states.
func (s Status) Known() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}

// Label returns the human-readable column name for a status.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "Todo"
	case StatusInProgress:
		return "In Progress"
	case StatusReview:
		return "Review"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// Priority is a work item's priority level.
type Priority string

// Priority levels.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Scope identifies the board a set of work items belongs to: a project and
// optionally a sprint within it.
type Scope struct {
	ProjectID string
	SprintID  string // empty means the whole project backlog
}

// Key returns a stable string form of the scope, used as a cache key.
func (sc Scope) Key() string {
	if sc.SprintID == "" {
		return sc.ProjectID
	}
	return sc.ProjectID + "/" + sc.SprintID
}

// WorkItem represents a single card on the board.
// A dangling AssigneeID (no matching collaborator) renders as "unknown" but is
// not an error.
type WorkItem struct {
	ID            string
	Title         string
	Description   string // markdown body
	Status        Status
	AssigneeID    string
	Priority      Priority
	DueDate       string // ISO8601 date, empty if unset
	Estimate      string // free-form effort estimate (e.g. "3h", "2d"), empty if unset
	Tags          []string
	DependencyIDs []string
	URL           string

	// Server-owned timestamps, echoed back on mutations.
	StartedAt   string
	CompletedAt string
	UpdatedAt   string
}

// Clone returns a deep copy of the item. Slices are copied so the clone shares
// no memory with the original.
func (w *WorkItem) Clone() *WorkItem {
	c := *w
	if w.Tags != nil {
		c.Tags = make([]string, len(w.Tags))
		copy(c.Tags, w.Tags)
	}
	if w.DependencyIDs != nil {
		c.DependencyIDs = make([]string, len(w.DependencyIDs))
		copy(c.DependencyIDs, w.DependencyIDs)
	}
	return &c
}

// Collaborator is a member of a project who can be assigned items and receive
// mentions.
type Collaborator struct {
	ID   string
	Name string
}

// Project holds board-level metadata, including the member list used to
// address notifications.
type Project struct {
	ID      string
	Name    string
	Members []Collaborator
}

// MemberName returns the display name for a collaborator ID, or "unknown" if
// the ID does not reference a known member.
func (p *Project) MemberName(id string) string {
	for _, m := range p.Members {
		if m.ID == id {
			return m.Name
		}
	}
	return "unknown"
}

// TransitionIntent is the resolved outcome of a drag gesture: move one item
// to a target status. It is ephemeral and never persisted.
type TransitionIntent struct {
	ItemID string
	From   Status
	To     Status
}
