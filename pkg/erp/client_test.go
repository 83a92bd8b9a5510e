package erp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazin123/nesa/internal/testutil"
	"github.com/yazin123/nesa/pkg/board"
	"github.com/yazin123/nesa/pkg/notify"
)

func newTestClient(t *testing.T) (*Client, *testutil.FakeERP) {
	t.Helper()
	f := testutil.NewFakeERP(t)
	logger, _ := logtest.NewNullLogger()
	return NewClient(f.APIBase(), StaticToken(f.Token), WithLogger(logger)), f
}

func TestListNotifications(t *testing.T) {
	c, f := newTestClient(t)
	first := f.AddNotification(notify.TypePhaseUpdate, "Phase", "Design done", false)
	second := f.AddNotification(notify.TypeDailyReportReminder, "Report", "Submit today", true)

	got, err := c.ListNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].ID)
	assert.Equal(t, notify.TypePhaseUpdate, got[0].Type)
	assert.False(t, got[0].Read)
	assert.Equal(t, second, got[1].ID)
	assert.True(t, got[1].Read)
	assert.False(t, got[1].CreatedAt.IsZero())
}

func TestListNotifications_Empty(t *testing.T) {
	c, _ := newTestClient(t)

	got, err := c.ListNotifications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMarkRead(t *testing.T) {
	c, f := newTestClient(t)
	id := f.AddNotification(notify.TypePhaseUpdate, "Phase", "m", false)

	require.NoError(t, c.MarkRead(context.Background(), id))
	assert.True(t, f.Notifications()[0].Read)
}

func TestMarkRead_NotFound(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.MarkRead(context.Background(), "someone-elses")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.MethodPut, he.Method)
	assert.Equal(t, "/notifications/someone-elses/read", he.Path)
	assert.Equal(t, "Notification not found", he.Message)
}

func TestMarkAllRead(t *testing.T) {
	c, f := newTestClient(t)

	// Nothing unread is still a success.
	require.NoError(t, c.MarkAllRead(context.Background()))

	f.AddNotification(notify.TypePhaseUpdate, "a", "m", false)
	f.AddNotification(notify.TypePhaseUpdate, "b", "m", false)
	require.NoError(t, c.MarkAllRead(context.Background()))

	for _, n := range f.Notifications() {
		assert.True(t, n.Read)
	}
}

func TestDeleteNotification(t *testing.T) {
	c, f := newTestClient(t)
	id := f.AddNotification(notify.TypePhaseUpdate, "a", "m", false)

	require.NoError(t, c.DeleteNotification(context.Background(), id))
	assert.Empty(t, f.Notifications())

	err := c.DeleteNotification(context.Background(), id)
	assert.True(t, IsNotFound(err))
}

func TestPreferences(t *testing.T) {
	c, _ := newTestClient(t)

	prefs, err := c.GetPreferences(context.Background())
	require.NoError(t, err)
	assert.True(t, prefs.Email)
	assert.False(t, prefs.PhaseUpdates)

	prefs.Email = false
	prefs.PhaseUpdates = true
	updated, err := c.UpdatePreferences(context.Background(), *prefs)
	require.NoError(t, err)
	assert.False(t, updated.Email)
	assert.True(t, updated.PhaseUpdates)

	again, err := c.GetPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, updated, again)
}

func TestProjectSubscription(t *testing.T) {
	c, f := newTestClient(t)

	require.NoError(t, c.SubscribeToProject(context.Background(), "p-42"))
	assert.True(t, f.Subscribed("p-42"))

	require.NoError(t, c.UnsubscribeFromProject(context.Background(), "p-42"))
	assert.False(t, f.Subscribed("p-42"))
}

func TestUnauthorized(t *testing.T) {
	f := testutil.NewFakeERP(t)
	c := NewClient(f.APIBase(), StaticToken("wrong"))

	_, err := c.ListNotifications(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))
}

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) {
	return "", errors.New("store unavailable")
}

func TestTokenSourceError(t *testing.T) {
	f := testutil.NewFakeERP(t)
	c := NewClient(f.APIBase(), failingTokens{})

	_, err := c.ListNotifications(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load credential")
	assert.Zero(t, f.Requests("GET /api/notifications"))
}

func TestTransportErrorIsNotWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(base, StaticToken("t"))
	err := c.MarkAllRead(context.Background())
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
	assert.False(t, IsNotFound(err))
}

func TestNoRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	err := c.MarkAllRead(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.Contains(t, err.Error(), "maintenance")
	assert.Equal(t, int32(1), calls.Load())
}

func TestLogin(t *testing.T) {
	f := testutil.NewFakeERP(t)
	c := NewClient(f.APIBase(), nil)

	session, err := c.Login(context.Background(), testutil.FakeEmail, testutil.FakePassword)
	require.NoError(t, err)
	assert.Equal(t, f.Token, session.Token)
	assert.Equal(t, "admin", session.User.Role)

	_, err = c.Login(context.Background(), testutil.FakeEmail, "nope")
	assert.True(t, IsUnauthorized(err))
}

func TestProjectsAndTasks(t *testing.T) {
	c, f := newTestClient(t)
	f.AddProject("p1", "Website", "planning")
	f.AddProject("p2", "Audit", "active")
	f.AddTask("t1", "Write copy", "todo")

	projects, err := c.ListProjects(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Website", projects[0].Name)

	active, err := c.ListProjects(context.Background(), "active")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "p2", active[0].ID)

	require.NoError(t, c.UpdateProjectStatus(context.Background(), "p1", "active"))
	assert.Equal(t, "active", f.ProjectStatus("p1"))

	tasks, err := c.ListTasks(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NoError(t, c.UpdateTaskStatus(context.Background(), "t1", "review"))

	err = c.UpdateProjectStatus(context.Background(), "missing", "active")
	assert.True(t, IsNotFound(err))
}

func TestProjectBoardSource(t *testing.T) {
	c, f := newTestClient(t)
	f.AddProject("p1", "Website", "planning")
	f.AddProject("p2", "Audit", "done")

	b, err := board.New(c.ProjectBoardSource(), board.ProjectLayout)
	require.NoError(t, err)
	require.NoError(t, b.Load(context.Background()))

	snap := b.Columns()
	require.Len(t, snap.Column("planning").Items, 2)
	assert.Equal(t, "Website", snap.Column("planning").Items[0].Title)

	p, err := b.Move(context.Background(), "p1", "planning", "active", 0)
	require.NoError(t, err)
	require.NoError(t, p.Wait(context.Background()))
	assert.Equal(t, "active", f.ProjectStatus("p1"))
}

func TestProjectBoardSource_RejectedMoveResyncs(t *testing.T) {
	c, f := newTestClient(t)
	f.AddProject("p1", "Website", "planning")
	f.FailStatusUpdates(http.StatusUnprocessableEntity)

	b, err := board.New(c.ProjectBoardSource(), board.ProjectLayout)
	require.NoError(t, err)
	require.NoError(t, b.Load(context.Background()))

	p, err := b.Move(context.Background(), "p1", "planning", "completed", 0)
	require.NoError(t, err)

	err = p.Wait(context.Background())
	require.Error(t, err)
	assert.True(t, board.IsMoveError(err))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))

	assert.Equal(t, []string{"planning"}, b.Columns().Locate("p1"))
	assert.Equal(t, 2, f.Requests("GET /api/projects"))
}
