package api

import (
	"context"
	"fmt"

	"github.com/avens/taskdeck/internal/domain"
	"github.com/machinebox/graphql"
)

// itemMutation executes a single-item mutation that echoes the updated item.
// A nil item with a nil error means the server acknowledged without a payload;
// callers keep their optimistic state in that case.
func (c *Client) itemMutation(ctx context.Context, field string, req *graphql.Request) (*domain.WorkItem, error) {
	var resp struct {
		Item *itemPayload `json:"item"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, classify(fmt.Errorf("%s failed: %w", field, err))
	}
	if resp.Item == nil {
		return nil, nil
	}
	item := resp.Item.toDomain()
	return &item, nil
}

// SetItemStatus moves an item to an arbitrary status via the generic setter.
// Used for transitions that carry no dedicated server-side meaning.
func (c *Client) SetItemStatus(ctx context.Context, itemID string, status domain.Status) (*domain.WorkItem, error) {
	req := graphql.NewRequest(fmt.Sprintf(`
		mutation($itemId: ID!, $status: WorkItemStatus!) {
			item: setItemStatus(itemId: $itemId, status: $status) {
				%s
			}
		}
	`, itemSelection))
	req.Var("itemId", itemID)
	req.Var("status", string(status))
	return c.itemMutation(ctx, "setItemStatus", req)
}

// StartItem marks an item as started. The server records startedAt.
func (c *Client) StartItem(ctx context.Context, itemID string) (*domain.WorkItem, error) {
	req := graphql.NewRequest(fmt.Sprintf(`
		mutation($itemId: ID!) {
			item: startItem(itemId: $itemId) {
				%s
			}
		}
	`, itemSelection))
	req.Var("itemId", itemID)
	return c.itemMutation(ctx, "startItem", req)
}

// SubmitItemForReview moves an item into review.
func (c *Client) SubmitItemForReview(ctx context.Context, itemID string) (*domain.WorkItem, error) {
	req := graphql.NewRequest(fmt.Sprintf(`
		mutation($itemId: ID!) {
			item: submitItemForReview(itemId: $itemId) {
				%s
			}
		}
	`, itemSelection))
	req.Var("itemId", itemID)
	return c.itemMutation(ctx, "submitItemForReview", req)
}

// CompleteItem marks an item as completed. The server records completedAt.
func (c *Client) CompleteItem(ctx context.Context, itemID string) (*domain.WorkItem, error) {
	req := graphql.NewRequest(fmt.Sprintf(`
		mutation($itemId: ID!) {
			item: completeItem(itemId: $itemId) {
				%s
			}
		}
	`, itemSelection))
	req.Var("itemId", itemID)
	return c.itemMutation(ctx, "completeItem", req)
}

// ReopenItem moves a reviewed or completed item back to in-progress.
// The service acknowledges without echoing the item.
func (c *Client) ReopenItem(ctx context.Context, itemID string) (*domain.WorkItem, error) {
	req := graphql.NewRequest(`
		mutation($itemId: ID!) {
			reopenItem(itemId: $itemId) {
				ok
			}
		}
	`)
	req.Var("itemId", itemID)

	var resp struct {
		ReopenItem struct {
			OK bool `json:"ok"`
		} `json:"reopenItem"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, classify(fmt.Errorf("reopenItem failed: %w", err))
	}
	if !resp.ReopenItem.OK {
		return nil, fmt.Errorf("%w: reopen rejected", ErrConflict)
	}
	return nil, nil
}

// SendMention delivers a notification to the given recipients. Failures are
// tagged ErrNotification so callers can log and swallow them without touching
// board state.
func (c *Client) SendMention(ctx context.Context, recipients []string, message, contextText, relatedEntity, actionURL string, priority domain.Priority) error {
	req := graphql.NewRequest(`
		mutation($input: SendMentionInput!) {
			sendMention(input: $input) {
				ok
			}
		}
	`)
	req.Var("input", map[string]interface{}{
		"recipients":    recipients,
		"message":       message,
		"context":       contextText,
		"relatedEntity": relatedEntity,
		"actionUrl":     actionURL,
		"priority":      string(priority),
	})

	var resp struct {
		SendMention struct {
			OK bool `json:"ok"`
		} `json:"sendMention"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}
	if !resp.SendMention.OK {
		return fmt.Errorf("%w: rejected by server", ErrNotification)
	}
	return nil
}
