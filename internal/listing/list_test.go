package listing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazin123/nesa/pkg/erp"
	"github.com/yazin123/nesa/pkg/notify"
)

type fakeLister struct {
	notifications []erp.Notification
	err           error
}

func (f fakeLister) ListNotifications(ctx context.Context) ([]erp.Notification, error) {
	return f.notifications, f.err
}

func sample() fakeLister {
	return fakeLister{notifications: []erp.Notification{
		{ID: "old-1", Type: notify.TypePhaseUpdate, Title: "old", Read: true, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "new-1", Type: notify.TypeProjectAssignment, Title: "new", CreatedAt: now.Add(-time.Minute)},
		{ID: "mid-1", Type: notify.TypeProjectDateReminder, Title: "mid", CreatedAt: now.Add(-2 * time.Hour)},
	}}
}

func jsonlIDs(t *testing.T, out string) []string {
	t.Helper()
	var ids []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		start := strings.Index(line, `"id":"`) + len(`"id":"`)
		end := strings.Index(line[start:], `"`)
		ids = append(ids, line[start:start+end])
	}
	return ids
}

func TestListNotifications_NewestFirst(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListNotifications(context.Background(), sample(), OutputFormatJSONL, nil, now, &buf))
	assert.Equal(t, []string{"new-1", "mid-1", "old-1"}, jsonlIDs(t, buf.String()))
}

func TestListNotifications_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters *FilterCriteria
		want    []string
	}{
		{"since", &FilterCriteria{Since: now.Add(-3 * time.Hour)}, []string{"new-1", "mid-1"}},
		{"until", &FilterCriteria{Until: now.Add(-time.Hour)}, []string{"mid-1", "old-1"}},
		{"type glob", &FilterCriteria{TypeGlob: "project-*"}, []string{"new-1", "mid-1"}},
		{"unread only", &FilterCriteria{UnreadOnly: true}, []string{"new-1", "mid-1"}},
		{"combined", &FilterCriteria{TypeGlob: "phase-*", UnreadOnly: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, ListNotifications(context.Background(), sample(), OutputFormatJSONL, tt.filters, now, &buf))
			assert.Equal(t, tt.want, jsonlIDs(t, buf.String()))
		})
	}
}

func TestListNotifications_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListNotifications(context.Background(), sample(), OutputFormatDefault, nil, now, &buf))
	assert.Contains(t, buf.String(), "3 notifications, 2 unread")
}

func TestListNotifications_Errors(t *testing.T) {
	var buf bytes.Buffer
	err := ListNotifications(context.Background(), fakeLister{err: errors.New("boom")}, OutputFormatDefault, nil, now, &buf)
	assert.ErrorContains(t, err, "failed to list notifications")

	err = ListNotifications(context.Background(), sample(), OutputFormat("xml"), nil, now, &buf)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestParseOutputFormat(t *testing.T) {
	f, err := ParseOutputFormat("json")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatJSONL, f)

	f, err = ParseOutputFormat("default")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatDefault, f)

	_, err = ParseOutputFormat("yaml")
	assert.Error(t, err)
}
