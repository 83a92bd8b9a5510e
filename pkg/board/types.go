package board

import (
	"context"
	"errors"
	"fmt"
)

// Item is one card on the board. Status always equals the key of the column
// holding it.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// Layout is the fixed set of status columns a board renders, in display order.
// Items whose status is not one of Keys land in Default.
type Layout struct {
	Keys    []string
	Default string
}

// ProjectLayout is the column set used for projects.
var ProjectLayout = Layout{
	Keys:    []string{"planning", "active", "on-hold", "completed", "cancelled"},
	Default: "planning",
}

// TaskLayout is the column set used for tasks.
var TaskLayout = Layout{
	Keys:    []string{"todo", "in-progress", "review", "done"},
	Default: "todo",
}

// Has reports whether key is one of the layout's columns.
func (l Layout) Has(key string) bool {
	for _, k := range l.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks that the layout has unique, non-empty keys and that Default is one of them.
func (l Layout) Validate() error {
	if len(l.Keys) == 0 {
		return fmt.Errorf("layout must define at least one column")
	}
	seen := make(map[string]bool, len(l.Keys))
	for _, k := range l.Keys {
		if k == "" {
			return fmt.Errorf("layout column keys cannot be empty")
		}
		if seen[k] {
			return fmt.Errorf("duplicate layout column %q", k)
		}
		seen[k] = true
	}
	if !seen[l.Default] {
		return fmt.Errorf("default column %q is not one of %v", l.Default, l.Keys)
	}
	return nil
}

// Column is an ordered bucket of items sharing a status.
type Column struct {
	Key   string `json:"key"`
	Items []Item `json:"items"`
}

// Snapshot is the grouped board in layout order.
type Snapshot []Column

// Column returns the column with key, or nil.
func (s Snapshot) Column(key string) *Column {
	for i := range s {
		if s[i].Key == key {
			return &s[i]
		}
	}
	return nil
}

// Locate returns the keys of every column containing id. A consistent
// snapshot yields exactly one key.
func (s Snapshot) Locate(id string) []string {
	var keys []string
	for _, col := range s {
		for _, it := range col.Items {
			if it.ID == id {
				keys = append(keys, col.Key)
				break
			}
		}
	}
	return keys
}

// Count returns the total number of items across all columns.
func (s Snapshot) Count() int {
	n := 0
	for _, col := range s {
		n += len(col.Items)
	}
	return n
}

// Source is the server side of a board: the canonical collection and the
// status update endpoint.
type Source interface {
	FetchItems(ctx context.Context) ([]Item, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

var (
	// ErrUnknownColumn is returned when a move names a column outside the layout.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrItemNotFound is returned when the source column does not hold the item.
	ErrItemNotFound = errors.New("item not found in source column")

	// ErrMoveInFlight is returned when the item already has an unconfirmed move.
	ErrMoveInFlight = errors.New("item has a move awaiting confirmation")
)

// MoveError reports a move the server rejected. ResyncErr is set when the
// follow-up refetch failed too and the item was returned to its origin locally.
type MoveError struct {
	ItemID    string
	From      string
	To        string
	Err       error
	ResyncErr error
}

func (e *MoveError) Error() string {
	msg := fmt.Sprintf("move of %s from %s to %s rejected: %v", e.ItemID, e.From, e.To, e.Err)
	if e.ResyncErr != nil {
		msg += fmt.Sprintf(" (resync failed: %v)", e.ResyncErr)
	}
	return msg
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// IsMoveError checks if an error is a *MoveError.
func IsMoveError(err error) bool {
	var me *MoveError
	return errors.As(err, &me)
}
