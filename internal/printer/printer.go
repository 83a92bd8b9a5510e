package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/yazin123/nesa/pkg/notify"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

// Warning prints a warning message to w in yellow with a warning emoji prefix.
// Commands pass their stderr so warnings never mix with machine-readable output.
func Warning(w io.Writer, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(w, "⚠️  %s", msg)
	} else {
		yellow.Fprint(w, msg)
	}
}

// Error creates a formatted error message with title, explanation, and suggestions
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	// Print title in red to stderr
	red.Fprintf(os.Stderr, "%s\n\n", title)

	// Print explanation
	fmt.Fprintf(os.Stderr, "%s\n", explanation)

	// Print suggestions
	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// ErrorWithContext creates a formatted error with context details
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	// Print title in red to stderr
	red.Fprintf(os.Stderr, "%s\n\n", title)

	// Print explanation
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}

	// Print context details
	if len(context) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		for key, value := range context {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", key, value)
		}
	}

	// Print suggestions
	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// Toast renders one received notification. Destructive descriptors are
// printed in red so urgent reminders stand out in a scrolling terminal.
func Toast(w io.Writer, d notify.Descriptor, ev notify.Event, at time.Time) {
	title := d.Title
	if d.Variant == notify.VariantDestructive {
		title = red.Sprint(title)
	} else {
		title = bold.Sprint(title)
	}

	fmt.Fprintf(w, "%s %s %s\n", d.Icon, title, faint.Sprint(at.Local().Format("15:04:05")))
	if msg := strings.TrimSpace(ev.Message); msg != "" {
		fmt.Fprintf(w, "   %s\n", msg)
	}
	if ev.ProjectID != "" {
		fmt.Fprintf(w, "   %s\n", faint.Sprintf("project %s", ev.ProjectID))
	}
}

// ConnectionState renders a channel state transition.
func ConnectionState(w io.Writer, s notify.State, attempts, maxAttempts int) {
	switch s {
	case notify.StateConnecting:
		cyan.Fprintf(w, "→ Connecting to notification stream\n")
	case notify.StateOpen:
		green.Fprintf(w, "✓ Connected, waiting for notifications\n")
	case notify.StateReconnecting:
		yellow.Fprintf(w, "⚠️  Connection lost, reconnecting (attempt %d/%d)\n", attempts, maxAttempts)
	case notify.StateClosed:
		if attempts > 0 {
			red.Fprintf(w, "Notification stream unavailable after %d attempts\n", attempts)
		} else {
			fmt.Fprintf(w, "Notification stream closed\n")
		}
	}
}
