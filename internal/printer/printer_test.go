package printer

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/yazin123/nesa/pkg/notify"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestErrorWithContext(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		context := map[string]string{
			"Config":  "nesa.yml",
			"Profile": "default",
		}
		err := ErrorWithContext("Test Error", "Explanation", context, []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		context := map[string]string{"Key": "Value"}
		err := ErrorWithContext("Test Error", "Explanation", context, []string{"Fix it"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

// Note: The Error and ErrorWithContext functions print formatted output to stderr
// with colors. The error object returned only contains the title for Cobra's error handling.
// This is intentional to avoid duplicate output while providing rich formatted errors.

func TestToast(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local)

	t.Run("includes icon, title and message", func(t *testing.T) {
		var buf bytes.Buffer
		ev := notify.Event{Type: notify.TypePhaseUpdate, Message: "Design phase complete", Priority: notify.PriorityHigh, ProjectID: "p-1"}
		Toast(&buf, notify.Classify(&ev), ev, at)

		out := buf.String()
		require.Contains(t, out, "🔴 Phase Update 09:30:00")
		require.Contains(t, out, "Design phase complete")
		require.Contains(t, out, "project p-1")
	})

	t.Run("omits empty message", func(t *testing.T) {
		var buf bytes.Buffer
		ev := notify.Event{Type: "custom", Title: "Heads up"}
		Toast(&buf, notify.Classify(&ev), ev, at)

		require.Equal(t, "🔔 Heads up 09:30:00\n", buf.String())
	})
}

func TestConnectionState(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	ConnectionState(&buf, notify.StateReconnecting, 2, 5)
	ConnectionState(&buf, notify.StateClosed, 5, 5)
	ConnectionState(&buf, notify.StateClosed, 0, 5)

	out := buf.String()
	require.Contains(t, out, "reconnecting (attempt 2/5)")
	require.Contains(t, out, "unavailable after 5 attempts")
	require.Contains(t, out, "Notification stream closed")
}

func TestWarning(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	Warning(&buf, "Not logged in\n")
	Warning(&buf, "⚠️ already prefixed\n")

	require.Equal(t, "⚠️  Not logged in\n⚠️ already prefixed\n", buf.String())
}
