package erp

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Notification is a stored notification as the directory returns it.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority,omitempty"`
	ProjectID string    `json:"projectId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Preferences controls which notifications the server routes to the caller.
type Preferences struct {
	Email                bool `json:"email"`
	Push                 bool `json:"push"`
	InApp                bool `json:"inApp"`
	ProjectReminders     bool `json:"projectReminders"`
	ProjectAssignments   bool `json:"projectAssignments"`
	PhaseUpdates         bool `json:"phaseUpdates"`
	DailyReportReminders bool `json:"dailyReportReminders"`
}

// ListNotifications returns the caller's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks one notification read. The server answers 404 when id is not
// one of the caller's notifications.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id)+"/read", nil, nil, nil)
}

// MarkAllRead marks every unread notification read. Succeeds when there are none.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/notifications/read-all", nil, nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil, nil)
}

// GetPreferences reads the caller's routing preferences.
func (c *Client) GetPreferences(ctx context.Context) (*Preferences, error) {
	var out Preferences
	if err := c.do(ctx, http.MethodGet, "/notifications/preferences", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePreferences replaces the caller's routing preferences and returns what the server stored.
func (c *Client) UpdatePreferences(ctx context.Context, prefs Preferences) (*Preferences, error) {
	var out Preferences
	if err := c.do(ctx, http.MethodPut, "/notifications/preferences", nil, prefs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubscribeToProject asks the server to include projectID's events in the stream.
func (c *Client) SubscribeToProject(ctx context.Context, projectID string) error {
	return c.do(ctx, http.MethodPost, projectSubscriptionPath(projectID), nil, nil, nil)
}

// UnsubscribeFromProject reverses SubscribeToProject.
func (c *Client) UnsubscribeFromProject(ctx context.Context, projectID string) error {
	return c.do(ctx, http.MethodDelete, projectSubscriptionPath(projectID), nil, nil, nil)
}

func projectSubscriptionPath(projectID string) string {
	return "/notifications/projects/" + url.PathEscape(projectID) + "/subscription"
}
