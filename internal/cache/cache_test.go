package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/avens/taskdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "snapshots.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	scope := domain.Scope{ProjectID: "proj_1", SprintID: "sprint_9"}

	items := []domain.WorkItem{
		{ID: "item_1", Title: "Fix login bug", Status: domain.StatusTodo, Tags: []string{"bug"}},
		{ID: "item_2", Title: "Add export", Status: domain.StatusReview, AssigneeID: "user_b"},
	}

	require.NoError(t, c.SaveSnapshot(ctx, scope, items))

	got, ok, err := c.LoadSnapshot(ctx, scope)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, items, got)
}

func TestLoadSnapshot_MissingScope(t *testing.T) {
	c := openTestCache(t)

	got, ok, err := c.LoadSnapshot(context.Background(), domain.Scope{ProjectID: "nope"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSaveSnapshot_ReplacesPrevious(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	scope := domain.Scope{ProjectID: "proj_1"}

	require.NoError(t, c.SaveSnapshot(ctx, scope, []domain.WorkItem{{ID: "old", Status: domain.StatusTodo}}))
	require.NoError(t, c.SaveSnapshot(ctx, scope, []domain.WorkItem{{ID: "new", Status: domain.StatusCompleted}}))

	got, ok, err := c.LoadSnapshot(ctx, scope)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestSnapshots_ScopesAreIndependent(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	a := domain.Scope{ProjectID: "proj_1"}
	b := domain.Scope{ProjectID: "proj_1", SprintID: "sprint_1"}

	require.NoError(t, c.SaveSnapshot(ctx, a, []domain.WorkItem{{ID: "backlog_item"}}))
	require.NoError(t, c.SaveSnapshot(ctx, b, []domain.WorkItem{{ID: "sprint_item"}}))

	gotA, ok, err := c.LoadSnapshot(ctx, a)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "backlog_item", gotA[0].ID)

	gotB, ok, err := c.LoadSnapshot(ctx, b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sprint_item", gotB[0].ID)
}

func TestDeleteSnapshot(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	scope := domain.Scope{ProjectID: "proj_1"}

	require.NoError(t, c.SaveSnapshot(ctx, scope, []domain.WorkItem{{ID: "item_1"}}))
	require.NoError(t, c.DeleteSnapshot(ctx, scope))

	_, ok, err := c.LoadSnapshot(ctx, scope)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent scope is not an error.
	assert.NoError(t, c.DeleteSnapshot(ctx, scope))
}
