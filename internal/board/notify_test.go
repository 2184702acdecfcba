package board

import (
	"context"
	"testing"

	"github.com/avens/taskdeck/internal/api"
	"github.com/avens/taskdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMention_ReviewGoesToProjectExceptActor(t *testing.T) {
	project := createTestProject()
	item := &domain.WorkItem{ID: "item_1", Title: "Fix login bug", AssigneeID: "user_a", Priority: domain.PriorityHigh, URL: "https://tasks.example.com/item_1"}

	m := BuildMention(item, domain.StatusInProgress, domain.StatusReview, "user_b", project)
	require.NotNil(t, m)
	assert.ElementsMatch(t, []string{"user_a", "user_c"}, m.Recipients)
	assert.Contains(t, m.Message, "submitted for review")
	assert.Equal(t, "Test Project", m.Context)
	assert.Equal(t, "item_1", m.RelatedEntity)
	assert.Equal(t, "https://tasks.example.com/item_1", m.ActionURL)
	assert.Equal(t, domain.PriorityHigh, m.Priority)
}

// Completion triggered by the assignee still notifies everyone else on the
// project.
func TestBuildMention_CompletedGoesToProjectExceptActor(t *testing.T) {
	project := createTestProject()
	item := &domain.WorkItem{ID: "item_z", Title: "Ship it", AssigneeID: "user_a"}

	m := BuildMention(item, domain.StatusReview, domain.StatusCompleted, "user_a", project)
	require.NotNil(t, m)
	assert.ElementsMatch(t, []string{"user_b", "user_c"}, m.Recipients)
	assert.NotContains(t, m.Recipients, "user_a")
	assert.Contains(t, m.Message, "completed")
}

func TestBuildMention_GenericGoesToAssignee(t *testing.T) {
	project := createTestProject()
	item := &domain.WorkItem{ID: "item_1", Title: "Fix login bug", AssigneeID: "user_b"}

	m := BuildMention(item, domain.StatusInProgress, domain.StatusTodo, "user_a", project)
	require.NotNil(t, m)
	assert.Equal(t, []string{"user_b"}, m.Recipients)
	assert.Contains(t, m.Message, "from In Progress to Todo")
	// Unset item priority defaults to medium.
	assert.Equal(t, domain.PriorityMedium, m.Priority)
}

func TestBuildMention_Suppressed(t *testing.T) {
	project := createTestProject()

	t.Run("self change", func(t *testing.T) {
		item := &domain.WorkItem{ID: "item_1", AssigneeID: "user_a"}
		m := BuildMention(item, domain.StatusInProgress, domain.StatusTodo, "user_a", project)
		assert.Nil(t, m)
	})

	t.Run("no assignee", func(t *testing.T) {
		item := &domain.WorkItem{ID: "item_1"}
		m := BuildMention(item, domain.StatusInProgress, domain.StatusTodo, "user_a", project)
		assert.Nil(t, m)
	})

	t.Run("sole member completes own item", func(t *testing.T) {
		solo := &domain.Project{ID: "p", Name: "Solo", Members: []domain.Collaborator{{ID: "user_a", Name: "Alice"}}}
		item := &domain.WorkItem{ID: "item_1", AssigneeID: "user_a"}
		m := BuildMention(item, domain.StatusReview, domain.StatusCompleted, "user_a", solo)
		assert.Nil(t, m)
	})

	t.Run("nil project for broadcast class", func(t *testing.T) {
		item := &domain.WorkItem{ID: "item_1", AssigneeID: "user_b"}
		m := BuildMention(item, domain.StatusInProgress, domain.StatusReview, "user_a", nil)
		assert.Nil(t, m)
	})
}

func TestDispatcher_SendsMention(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, quietLogger())
	item := &domain.WorkItem{ID: "item_1", Title: "Fix login bug", AssigneeID: "user_a"}

	d.Dispatch(context.Background(), item, domain.StatusInProgress, domain.StatusReview, "user_a", createTestProject())

	require.Len(t, sender.sent, 1)
	assert.ElementsMatch(t, []string{"user_b", "user_c"}, sender.sent[0].Recipients)
}

func TestDispatcher_SwallowsSendFailure(t *testing.T) {
	sender := &fakeSender{err: api.ErrNotification}
	d := NewDispatcher(sender, quietLogger())
	item := &domain.WorkItem{ID: "item_1", Title: "Fix login bug"}

	// Must not panic or propagate.
	d.Dispatch(context.Background(), item, domain.StatusInProgress, domain.StatusReview, "user_a", createTestProject())
	assert.Len(t, sender.sent, 1)
}

func TestDispatcher_NothingToSend(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, quietLogger())
	item := &domain.WorkItem{ID: "item_1"}

	d.Dispatch(context.Background(), item, domain.StatusTodo, domain.StatusInProgress, "user_a", createTestProject())
	assert.Empty(t, sender.sent)
}
