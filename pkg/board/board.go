package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Board is a grouped-by-status collection with optimistic moves.
// All methods are safe for concurrent use.
type Board struct {
	src      Source
	layout   Layout
	log      logrus.FieldLogger
	onChange func(Snapshot)

	mu       sync.Mutex
	columns  map[string][]Item
	inFlight map[string]struct{}
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger for confirmation and resync diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Board) {
		if l != nil {
			b.log = l
		}
	}
}

// WithChangeListener registers fn to receive a copy of the board after every
// local mutation (load, optimistic splice, resync, revert).
func WithChangeListener(fn func(Snapshot)) Option {
	return func(b *Board) {
		b.onChange = fn
	}
}

// New creates an empty board. Call Load to populate it.
func New(src Source, layout Layout, opts ...Option) (*Board, error) {
	if src == nil {
		return nil, fmt.Errorf("board source cannot be nil")
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board layout: %w", err)
	}

	b := &Board{
		src:      src,
		layout:   layout,
		log:      logrus.StandardLogger(),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.columns = group(nil, layout)
	return b, nil
}

// Layout returns the board's column layout.
func (b *Board) Layout() Layout {
	return b.layout
}

// Load fetches the canonical collection and replaces all local state.
func (b *Board) Load(ctx context.Context) error {
	items, err := b.src.FetchItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch board items: %w", err)
	}

	b.mu.Lock()
	b.columns = group(items, b.layout)
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.changed(snap)
	return nil
}

// Resync discards local state in favour of the server's.
func (b *Board) Resync(ctx context.Context) error {
	b.log.Debug("Resyncing board from server")
	return b.Load(ctx)
}

// Columns returns a deep copy of the current grouping in layout order.
func (b *Board) Columns() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Group buckets items by status in the order given. Every layout key is
// present; items with an unrecognised status are placed in the default
// column with Status rewritten to match.
func Group(items []Item, layout Layout) Snapshot {
	cols := group(items, layout)
	out := make(Snapshot, 0, len(layout.Keys))
	for _, key := range layout.Keys {
		out = append(out, Column{Key: key, Items: cols[key]})
	}
	return out
}

func group(items []Item, layout Layout) map[string][]Item {
	cols := make(map[string][]Item, len(layout.Keys))
	for _, key := range layout.Keys {
		cols[key] = []Item{}
	}
	for _, it := range items {
		if !layout.Has(it.Status) {
			it.Status = layout.Default
		}
		cols[it.Status] = append(cols[it.Status], it)
	}
	return cols
}

func (b *Board) snapshotLocked() Snapshot {
	out := make(Snapshot, 0, len(b.layout.Keys))
	for _, key := range b.layout.Keys {
		items := make([]Item, len(b.columns[key]))
		copy(items, b.columns[key])
		out = append(out, Column{Key: key, Items: items})
	}
	return out
}

func (b *Board) changed(snap Snapshot) {
	if b.onChange != nil {
		b.onChange(snap)
	}
}
