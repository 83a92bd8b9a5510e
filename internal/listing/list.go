package listing

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/yazin123/nesa/internal/timespec"
	"github.com/yazin123/nesa/pkg/erp"
)

// OutputFormat specifies how to format list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated messages
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSONL:
		return OutputFormat(s), nil
	case "json":
		return OutputFormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (must be 'default' or 'jsonl')", s)
	}
}

// FilterCriteria defines filtering options for notification listing.
// All filters are ANDed together.
type FilterCriteria struct {
	Since      time.Time // zero = no filter
	Until      time.Time // zero = no filter
	TypeGlob   string    // glob pattern for notification type, empty = no filter
	UnreadOnly bool
}

// matchesFilter returns true if the notification matches all filter criteria.
func (fc *FilterCriteria) matchesFilter(n erp.Notification) bool {
	if !timespec.Within(n.CreatedAt, fc.Since, fc.Until) {
		return false
	}

	// Type filtering - glob pattern matching
	if fc.TypeGlob != "" {
		matched, err := filepath.Match(fc.TypeGlob, n.Type)
		if err != nil || !matched {
			return false
		}
	}

	if fc.UnreadOnly && n.Read {
		return false
	}

	return true
}

// Lister is the part of the directory client listing needs.
type Lister interface {
	ListNotifications(ctx context.Context) ([]erp.Notification, error)
}

// ListNotifications fetches the caller's notifications, applies filters and
// writes them newest first in the requested format.
func ListNotifications(ctx context.Context, lister Lister, format OutputFormat, filters *FilterCriteria, now time.Time, w io.Writer) error {
	all, err := lister.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	notifications := make([]erp.Notification, 0, len(all))
	for _, n := range all {
		if filters != nil && !filters.matchesFilter(n) {
			continue
		}
		notifications = append(notifications, n)
	}

	// Newest first; stable keeps server order for equal timestamps.
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	switch format {
	case OutputFormatDefault:
		FormatTable(w, notifications, now)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, notifications); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}
