// Package inbox is the presentation-side list of received notifications.
// Events arrive without identity; the inbox gives each one an ID, a read flag
// and a receipt timestamp, newest first.
package inbox

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yazin123/nesa/pkg/notify"
)

// DefaultCapacity bounds the inbox; the oldest entries fall off first.
const DefaultCapacity = 100

// Entry is a received event with local bookkeeping.
type Entry struct {
	ID         string            `json:"id"`
	Event      notify.Event      `json:"event"`
	Descriptor notify.Descriptor `json:"descriptor"`
	Read       bool              `json:"read"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Inbox is safe for concurrent use.
type Inbox struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	now      func() time.Time
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(n int) Option {
	return func(in *Inbox) {
		if n > 0 {
			in.capacity = n
		}
	}
}

// WithClock replaces time.Now for receipt timestamps.
func WithClock(now func() time.Time) Option {
	return func(in *Inbox) {
		if now != nil {
			in.now = now
		}
	}
}

// New creates an empty inbox.
func New(opts ...Option) *Inbox {
	in := &Inbox{capacity: DefaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Add records ev as unread at the head of the list and returns the entry.
func (in *Inbox) Add(ev notify.Event) Entry {
	e := Entry{
		ID:         uuid.New().String(),
		Event:      ev,
		Descriptor: notify.Classify(&ev),
		CreatedAt:  in.now().UTC(),
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	in.entries = append([]Entry{e}, in.entries...)
	if len(in.entries) > in.capacity {
		in.entries = in.entries[:in.capacity]
	}
	return e
}

// Entries returns a copy, newest first.
func (in *Inbox) Entries() []Entry {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]Entry(nil), in.entries...)
}

// MarkRead flags one entry read and reports whether it was found.
func (in *Inbox) MarkRead(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.entries {
		if in.entries[i].ID == id {
			in.entries[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead flags every entry read and returns how many changed.
func (in *Inbox) MarkAllRead() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := 0
	for i := range in.entries {
		if !in.entries[i].Read {
			in.entries[i].Read = true
			n++
		}
	}
	return n
}

// Unread returns the number of unread entries.
func (in *Inbox) Unread() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := 0
	for _, e := range in.entries {
		if !e.Read {
			n++
		}
	}
	return n
}
