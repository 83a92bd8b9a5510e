package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yazin123/nesa/pkg/erp"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Set to 6 characters to balance usability with collision avoidance.
const MinShortIDLength = 6

var (
	uuidPattern     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// NotificationLister is the part of the directory client the resolver needs.
type NotificationLister interface {
	ListNotifications(ctx context.Context) ([]erp.Notification, error)
}

// ResolveNotificationID resolves a short ID prefix to a full notification ID.
//
// The function handles three cases:
// 1. Input is already a full ID (UUID or 24-hex object ID) - returned as-is, the server decides whether it exists
// 2. Input is too short (< 6 chars) - returns validation error
// 3. Input is a short prefix - lists notifications and returns the unique match
func ResolveNotificationID(ctx context.Context, lister NotificationLister, shortID string) (string, error) {
	shortID = strings.TrimSpace(shortID)
	if IsFullID(shortID) {
		return shortID, nil
	}

	// Validate minimum length
	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	notifications, err := lister.ListNotifications(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to search for notification: %w", err)
	}

	var matches []string
	for _, n := range notifications {
		if n.ID == shortID {
			return n.ID, nil
		}
		if strings.HasPrefix(strings.ToLower(n.ID), strings.ToLower(shortID)) {
			matches = append(matches, n.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// IsFullID reports whether id has the shape of a complete server ID.
func IsFullID(id string) bool {
	return uuidPattern.MatchString(id) || objectIDPattern.MatchString(id)
}

// NotFoundError indicates no notifications matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no notifications found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple notifications matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d notifications", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous short IDs.
// Lists all matching IDs (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous short ID '%s' matches %d notifications:\n", err.ShortID, len(err.Matches))

	// List up to 10 matches
	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to uniquely identify the notification."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
