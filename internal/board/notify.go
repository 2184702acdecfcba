package board

import (
	"context"
	"fmt"

	"github.com/avens/taskdeck/internal/domain"
	"github.com/sirupsen/logrus"
)

// MentionSender delivers notifications. api.Client implements it.
type MentionSender interface {
	SendMention(ctx context.Context, recipients []string, message, contextText, relatedEntity, actionURL string, priority domain.Priority) error
}

// Mention is an addressed notification ready to send.
type Mention struct {
	Recipients    []string
	Message       string
	Context       string
	RelatedEntity string
	ActionURL     string
	Priority      domain.Priority
}

// Dispatcher emits one notification per confirmed transition. It is a
// best-effort side channel: send failures are logged and swallowed, never
// surfaced as board errors and never rolled back.
type Dispatcher struct {
	sender MentionSender
	log    *logrus.Logger
}

// NewDispatcher creates a dispatcher sending through the given sender.
func NewDispatcher(sender MentionSender, log *logrus.Logger) *Dispatcher {
	if log == nil {
		log = logrus.New()
	}
	return &Dispatcher{sender: sender, log: log}
}

// BuildMention selects the message class and audience for a confirmed
// transition:
//
//   - target review: "submitted for review", to all project members except the actor
//   - target completed: "completed", to all project members except the actor
//   - anything else: generic status change, to the assignee only, suppressed
//     when the assignee is the actor (no self-notification)
//
// It returns nil when there is no one to notify.
func BuildMention(item *domain.WorkItem, from, to domain.Status, actorID string, project *domain.Project) *Mention {
	priority := item.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	base := Mention{
		RelatedEntity: item.ID,
		ActionURL:     item.URL,
		Priority:      priority,
	}
	if project != nil {
		base.Context = project.Name
	}

	switch to {
	case domain.StatusReview:
		base.Recipients = membersExcept(project, actorID)
		base.Message = fmt.Sprintf("%q was submitted for review", item.Title)
	case domain.StatusCompleted:
		base.Recipients = membersExcept(project, actorID)
		base.Message = fmt.Sprintf("%q was completed", item.Title)
	default:
		if item.AssigneeID == "" || item.AssigneeID == actorID {
			return nil
		}
		base.Recipients = []string{item.AssigneeID}
		base.Message = fmt.Sprintf("%q changed status from %s to %s", item.Title, from.Label(), to.Label())
	}

	if len(base.Recipients) == 0 {
		return nil
	}
	return &base
}

// Dispatch builds and sends the mention for a confirmed transition.
func (d *Dispatcher) Dispatch(ctx context.Context, item *domain.WorkItem, from, to domain.Status, actorID string, project *domain.Project) {
	m := BuildMention(item, from, to, actorID, project)
	if m == nil {
		return
	}
	if err := d.sender.SendMention(ctx, m.Recipients, m.Message, m.Context, m.RelatedEntity, m.ActionURL, m.Priority); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"item":       item.ID,
			"recipients": len(m.Recipients),
		}).Warn("mention delivery failed")
	}
}

func membersExcept(project *domain.Project, actorID string) []string {
	if project == nil {
		return nil
	}
	out := make([]string, 0, len(project.Members))
	for _, m := range project.Members {
		if m.ID == actorID {
			continue
		}
		out = append(out, m.ID)
	}
	return out
}
