package listing

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazin123/nesa/pkg/board"
	"github.com/yazin123/nesa/pkg/erp"
	"github.com/yazin123/nesa/pkg/notify"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFormatTable(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		var buf bytes.Buffer
		count := FormatTable(&buf, nil, now)
		assert.Zero(t, count)
		assert.Equal(t, "No notifications found\n", buf.String())
	})

	t.Run("rows and summary", func(t *testing.T) {
		var buf bytes.Buffer
		count := FormatTable(&buf, []erp.Notification{
			{ID: "65f1a2b3c4d5e6f7a8b9c0d1", Type: notify.TypeDailyReportReminder, Title: "Report due", Priority: "high", CreatedAt: now.Add(-90 * time.Second)},
			{ID: "abc", Type: "custom-kind", Message: "line one\nline two", Read: true, CreatedAt: now.Add(-3 * time.Hour)},
		}, now)

		assert.Equal(t, 2, count)
		out := buf.String()
		assert.Contains(t, out, "65f1a2b3 ")
		assert.Contains(t, out, "DailyReport")
		assert.Contains(t, out, "high")
		assert.Contains(t, out, "1m ago")
		assert.Contains(t, out, "Report due")
		assert.Contains(t, out, "line one")
		assert.NotContains(t, out, "line two")
		assert.Contains(t, out, "3h ago")
		assert.Contains(t, out, "2 notifications, 1 unread")
	})
}

func TestFormatJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSONL(&buf, []erp.Notification{{ID: "a"}, {ID: "b"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var n erp.Notification
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &n))
	assert.Equal(t, "b", n.ID)
}

func TestFormatBoard(t *testing.T) {
	snap := board.Group([]board.Item{
		{ID: "p1", Title: "Website", Status: "active", Priority: "high"},
	}, board.ProjectLayout)

	var buf bytes.Buffer
	FormatBoard(&buf, "Projects", snap)

	out := buf.String()
	assert.Contains(t, out, "Projects (1 items)")
	assert.Contains(t, out, "PLANNING (0)")
	assert.Contains(t, out, "ACTIVE (1)")
	assert.Contains(t, out, "0. p1")
	assert.Contains(t, out, "Website [high]")
	assert.Contains(t, out, "CANCELLED (0)")
}

func TestFormatPreferences(t *testing.T) {
	var buf bytes.Buffer
	FormatPreferences(&buf, &erp.Preferences{Email: true, PhaseUpdates: true})

	out := buf.String()
	assert.Regexp(t, `Email\s+on`, out)
	assert.Regexp(t, `Push\s+off`, out)
	assert.Regexp(t, `Phase updates\s+on`, out)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "-", formatText("  \n ", 10))
	assert.Equal(t, "abcdefg...", formatText("abcdefghijklmnop", 10))
	assert.Equal(t, "ünïcödé...", formatText("ünïcödéünïcödé", 10))
	assert.Equal(t, "-", formatAge(time.Time{}, now))
	assert.Equal(t, "0s ago", formatAge(now.Add(time.Minute), now))
	assert.Equal(t, "2d ago", formatAge(now.Add(-50*time.Hour), now))
	assert.Equal(t, "-", formatPriority("urgent"))
	assert.Equal(t, "a-very-long-t...", formatType("a-very-long-type-name"))
}
