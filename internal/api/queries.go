package api

import (
	"context"
	"fmt"

	"github.com/avens/taskdeck/internal/domain"
	"github.com/machinebox/graphql"
)

// itemPayload mirrors the workItem selection set returned by queries and
// mutations.
type itemPayload struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	AssigneeID    string   `json:"assigneeId"`
	Priority      string   `json:"priority"`
	DueDate       string   `json:"dueDate"`
	Estimate      string   `json:"estimate"`
	Tags          []string `json:"tags"`
	DependencyIDs []string `json:"dependencyIds"`
	URL           string   `json:"url"`
	StartedAt     string   `json:"startedAt"`
	CompletedAt   string   `json:"completedAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// itemSelection is the shared GraphQL selection set for work items.
const itemSelection = `
	id
	title
	description
	status
	assigneeId
	priority
	dueDate
	estimate
	tags
	dependencyIds
	url
	startedAt
	completedAt
	updatedAt
`

func (p *itemPayload) toDomain() domain.WorkItem {
	return domain.WorkItem{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Status:        domain.Status(p.Status),
		AssigneeID:    p.AssigneeID,
		Priority:      domain.Priority(p.Priority),
		DueDate:       p.DueDate,
		Estimate:      p.Estimate,
		Tags:          p.Tags,
		DependencyIDs: p.DependencyIDs,
		URL:           p.URL,
		StartedAt:     p.StartedAt,
		CompletedAt:   p.CompletedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// FetchBoardItems returns all work items in the given scope.
func (c *Client) FetchBoardItems(ctx context.Context, scope domain.Scope) ([]domain.WorkItem, error) {
	req := graphql.NewRequest(fmt.Sprintf(`
		query($projectId: ID!, $sprintId: ID) {
			boardItems(projectId: $projectId, sprintId: $sprintId) {
				%s
			}
		}
	`, itemSelection))

	req.Var("projectId", scope.ProjectID)
	if scope.SprintID != "" {
		req.Var("sprintId", scope.SprintID)
	}

	var resp struct {
		BoardItems []itemPayload `json:"boardItems"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, classify(fmt.Errorf("failed to fetch board items: %w", err))
	}

	items := make([]domain.WorkItem, 0, len(resp.BoardItems))
	for i := range resp.BoardItems {
		items = append(items, resp.BoardItems[i].toDomain())
	}
	return items, nil
}

// FetchProject returns project metadata including the member list used to
// address notifications.
func (c *Client) FetchProject(ctx context.Context, projectID string) (*domain.Project, error) {
	req := graphql.NewRequest(`
		query($projectId: ID!) {
			project(id: $projectId) {
				id
				name
				members {
					id
					name
				}
			}
		}
	`)

	req.Var("projectId", projectID)

	var resp struct {
		Project struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Members []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"members"`
		} `json:"project"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, classify(fmt.Errorf("failed to fetch project: %w", err))
	}
	if resp.Project.ID == "" {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}

	project := &domain.Project{
		ID:   resp.Project.ID,
		Name: resp.Project.Name,
	}
	for _, m := range resp.Project.Members {
		project.Members = append(project.Members, domain.Collaborator{ID: m.ID, Name: m.Name})
	}
	return project, nil
}

// FetchViewer returns the authenticated collaborator, used as the actor for
// transitions and for the assigned-to-me filter.
func (c *Client) FetchViewer(ctx context.Context) (*domain.Collaborator, error) {
	req := graphql.NewRequest(`
		query {
			viewer {
				id
				name
			}
		}
	`)

	var resp struct {
		Viewer struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"viewer"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, classify(fmt.Errorf("failed to fetch viewer: %w", err))
	}
	return &domain.Collaborator{ID: resp.Viewer.ID, Name: resp.Viewer.Name}, nil
}
