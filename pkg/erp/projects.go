package erp

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yazin123/nesa/pkg/board"
)

// Project is the subset of a project record the board needs.
type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// Task is the subset of a task record the board needs.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Priority  string `json:"priority,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
}

type statusUpdate struct {
	Status string `json:"status"`
}

// ListProjects returns projects in server order, filtered by status when non-empty.
func (c *Client) ListProjects(ctx context.Context, status string) ([]Project, error) {
	var out []Project
	if err := c.do(ctx, http.MethodGet, "/projects", statusQuery(status), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProjectStatus sets a project's status.
func (c *Client) UpdateProjectStatus(ctx context.Context, id, status string) error {
	return c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id)+"/status", nil, statusUpdate{status}, nil)
}

// ListTasks returns tasks in server order, filtered by status when non-empty.
func (c *Client) ListTasks(ctx context.Context, status string) ([]Task, error) {
	var out []Task
	if err := c.do(ctx, http.MethodGet, "/tasks", statusQuery(status), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTaskStatus sets a task's status.
func (c *Client) UpdateTaskStatus(ctx context.Context, id, status string) error {
	return c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id)+"/status", nil, statusUpdate{status}, nil)
}

func statusQuery(status string) url.Values {
	if status == "" {
		return nil
	}
	return url.Values{"status": []string{status}}
}

// ProjectBoardSource adapts the project endpoints to a board.Source.
func (c *Client) ProjectBoardSource() board.Source {
	return projectSource{c}
}

// TaskBoardSource adapts the task endpoints to a board.Source.
func (c *Client) TaskBoardSource() board.Source {
	return taskSource{c}
}

type projectSource struct{ c *Client }

func (s projectSource) FetchItems(ctx context.Context) ([]board.Item, error) {
	projects, err := s.c.ListProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	items := make([]board.Item, 0, len(projects))
	for _, p := range projects {
		items = append(items, board.Item{ID: p.ID, Title: p.Name, Status: p.Status, Priority: p.Priority})
	}
	return items, nil
}

func (s projectSource) UpdateStatus(ctx context.Context, id, status string) error {
	return s.c.UpdateProjectStatus(ctx, id, status)
}

type taskSource struct{ c *Client }

func (s taskSource) FetchItems(ctx context.Context) ([]board.Item, error) {
	tasks, err := s.c.ListTasks(ctx, "")
	if err != nil {
		return nil, err
	}
	items := make([]board.Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, board.Item{ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority})
	}
	return items, nil
}

func (s taskSource) UpdateStatus(ctx context.Context, id, status string) error {
	return s.c.UpdateTaskStatus(ctx, id, status)
}
