package listing

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yazin123/nesa/pkg/board"
	"github.com/yazin123/nesa/pkg/erp"
	"github.com/yazin123/nesa/pkg/notify"
)

// FormatTable writes notifications as a formatted table to the provided writer.
// The table includes columns: ID, READ, TYPE, PRIORITY, AGE, and MESSAGE (truncated).
// Returns the number of notifications formatted.
func FormatTable(w io.Writer, notifications []erp.Notification, now time.Time) int {
	if len(notifications) == 0 {
		fmt.Fprintln(w, "No notifications found")
		return 0
	}

	// Print header row
	fmt.Fprintf(w, "%-10s %-4s %-16s %-4s %-8s %s\n",
		"ID", "READ", "TYPE", "PRIO", "AGE", "MESSAGE")
	fmt.Fprintf(w, "%-10s %-4s %-16s %-4s %-8s %s\n",
		"----------", "----", "----------------", "----", "--------", "----------------------------------------")

	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
		fmt.Fprintf(w, "%-10s %-4s %-16s %-4s %-8s %s\n",
			formatID(n.ID),
			formatRead(n.Read),
			formatType(n.Type),
			formatPriority(n.Priority),
			formatAge(n.CreatedAt, now),
			formatMessage(n.Title, n.Message),
		)
	}

	countMsg := "notification"
	if len(notifications) != 1 {
		countMsg = "notifications"
	}
	fmt.Fprintf(w, "\n%d %s, %d unread\n", len(notifications), countMsg, unread)

	return len(notifications)
}

// FormatJSONL writes items as line-delimited JSON (JSONL) to the provided writer.
// Each item is written as a single JSON object on its own line.
// This format is ideal for streaming and processing with tools like jq.
func FormatJSONL[T any](w io.Writer, items []T) error {
	for _, item := range items {
		if err := WriteJSONLine(w, item); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSONLine writes v as one compact JSON line.
func WriteJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSONL output: %w", err)
	}
	return nil
}

// FormatBoard writes a board snapshot column by column.
func FormatBoard(w io.Writer, title string, snap board.Snapshot) {
	fmt.Fprintf(w, "%s (%d items)\n", title, snap.Count())
	for _, col := range snap {
		fmt.Fprintf(w, "\n%s (%d)\n", strings.ToUpper(col.Key), len(col.Items))
		if len(col.Items) == 0 {
			fmt.Fprintln(w, "  -")
			continue
		}
		for i, it := range col.Items {
			fmt.Fprintf(w, "  %d. %-10s %s%s\n", i, formatID(it.ID), formatText(it.Title, 50), formatItemPriority(it.Priority))
		}
	}
}

// FormatPreferences writes notification routing preferences one per line.
func FormatPreferences(w io.Writer, p *erp.Preferences) {
	rows := []struct {
		label string
		on    bool
	}{
		{"Email", p.Email},
		{"Push", p.Push},
		{"In-app", p.InApp},
		{"Project reminders", p.ProjectReminders},
		{"Project assignments", p.ProjectAssignments},
		{"Phase updates", p.PhaseUpdates},
		{"Daily report reminders", p.DailyReportReminders},
	}
	for _, r := range rows {
		state := "off"
		if r.on {
			state = "on"
		}
		fmt.Fprintf(w, "%-24s %s\n", r.label, state)
	}
}

// formatID truncates IDs to the first 8 characters for compact display.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRead(read bool) string {
	if read {
		return "yes"
	}
	return "no"
}

// formatType shortens the known notification types to save space.
func formatType(t string) string {
	switch t {
	case notify.TypeProjectDateReminder:
		return "DateReminder"
	case notify.TypeProjectAssignment:
		return "Assignment"
	case notify.TypePhaseUpdate:
		return "PhaseUpdate"
	case notify.TypeDailyReportReminder:
		return "DailyReport"
	case "":
		return "-"
	}
	if len(t) > 16 {
		return t[:13] + "..."
	}
	return t
}

func formatPriority(p string) string {
	switch notify.Priority(p) {
	case notify.PriorityHigh:
		return "high"
	case notify.PriorityMedium:
		return "med"
	case notify.PriorityLow:
		return "low"
	default:
		return "-"
	}
}

func formatItemPriority(p string) string {
	if p == "" {
		return ""
	}
	return fmt.Sprintf(" [%s]", p)
}

// formatMessage prefers the title and falls back to the first line of the message.
func formatMessage(title, message string) string {
	if s := strings.TrimSpace(title); s != "" {
		return formatText(s, 40)
	}
	return formatText(message, 40)
}

// formatText returns the first non-empty line truncated to limit runes. Empty text returns "-".
func formatText(text string, limit int) string {
	var firstLine string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			firstLine = trimmed
			break
		}
	}
	if firstLine == "" {
		return "-"
	}

	runes := []rune(firstLine)
	if len(runes) > limit {
		return string(runes[:limit-3]) + "..."
	}
	return firstLine
}

// formatAge formats t relative to now, like "2m ago" or "1h ago".
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	if diff < time.Minute {
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
}
