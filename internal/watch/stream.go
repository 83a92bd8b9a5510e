package watch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yazin123/nesa/internal/inbox"
	"github.com/yazin123/nesa/internal/listing"
	"github.com/yazin123/nesa/internal/printer"
	"github.com/yazin123/nesa/pkg/notify"
)

// OutputFormat selects how streamed notifications are rendered.
type OutputFormat string

const (
	// OutputFormatDefault renders toasts and connection status for a terminal
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON writes one JSON object per line
	OutputFormatJSON OutputFormat = "json"
)

// Record is one line of JSON output.
type Record struct {
	Kind     string       `json:"kind"` // "notification" or "state"
	Entry    *inbox.Entry `json:"entry,omitempty"`
	State    string       `json:"state,omitempty"`
	Attempts int          `json:"attempts,omitempty"`
}

// Streamer renders channel activity. It is the channel's subscriber and
// state listener; output is serialized so both may fire concurrently.
type Streamer struct {
	w           io.Writer
	format      OutputFormat
	inbox       *inbox.Inbox
	maxAttempts int

	mu  sync.Mutex
	err error
}

// NewStreamer creates a streamer writing to w. Every received event is also
// recorded in in. The reconnect ceiling shown in status lines is taken from
// the channel by StreamNotifications.
func NewStreamer(w io.Writer, format OutputFormat, in *inbox.Inbox) *Streamer {
	return &Streamer{w: w, format: format, inbox: in, maxAttempts: notify.DefaultMaxAttempts}
}

// OnEvent handles one notification from the channel.
func (s *Streamer) OnEvent(ev notify.Event) {
	entry := s.inbox.Add(ev)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.format {
	case OutputFormatJSON:
		s.record(listing.WriteJSONLine(s.w, Record{Kind: "notification", Entry: &entry}))
	default:
		printer.Toast(s.w, entry.Descriptor, entry.Event, entry.CreatedAt)
	}
}

// OnState handles a channel state transition.
func (s *Streamer) OnState(state notify.State, attempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.format {
	case OutputFormatJSON:
		s.record(listing.WriteJSONLine(s.w, Record{Kind: "state", State: state.String(), Attempts: attempts}))
	default:
		printer.ConnectionState(s.w, state, attempts, s.maxAttempts)
	}
}

// Err returns the first write error, if any.
func (s *Streamer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Streamer) record(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

// Channel is the part of notify.Channel the stream drives.
type Channel interface {
	Subscribe(fn notify.Handler)
	Unsubscribe()
	Close()
	MaxAttempts() int
}

// StreamNotifications subscribes s to ch, then calls start (which hands the
// channel its credential) and blocks until ctx ends. On return s is
// unsubscribed and ch closed. start may be nil when ch is already running.
func StreamNotifications(ctx context.Context, ch Channel, s *Streamer, start func()) error {
	s.mu.Lock()
	s.maxAttempts = ch.MaxAttempts()
	s.mu.Unlock()

	ch.Subscribe(s.OnEvent)
	defer ch.Close()
	defer ch.Unsubscribe()

	if start != nil {
		start()
	}

	<-ctx.Done()

	if err := s.Err(); err != nil {
		return fmt.Errorf("failed to write notification output: %w", err)
	}
	if err := ctx.Err(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Summary returns a one-line recap of a finished stream.
func Summary(in *inbox.Inbox, started time.Time, now time.Time) string {
	entries := in.Entries()
	return fmt.Sprintf("%d notifications received in %s (%d unread)",
		len(entries), now.Sub(started).Round(time.Second), in.Unread())
}
