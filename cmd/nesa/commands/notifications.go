package commands

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yazin123/nesa/internal/listing"
	"github.com/yazin123/nesa/internal/printer"
	"github.com/yazin123/nesa/internal/resolver"
	"github.com/yazin123/nesa/internal/timespec"
	"github.com/yazin123/nesa/pkg/erp"
)

var (
	listOutputFormat string
	listSince        string
	listUntil        string
	listType         string
	listUnread       bool

	prefsSet []string
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif", "n"},
	Short:   "Manage stored notifications",
	Long: `List stored notifications, mark them read, delete them, and manage
delivery preferences and project subscriptions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var notificationsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notifications with filtering",
	Long: `List the caller's notifications, newest first.

Output Formats:
  default - Human-readable table with ID, read state, type, priority and age
  jsonl   - Line-delimited JSON, one notification per line

Time Filters:
  --since  - Show notifications created after this time
  --until  - Show notifications created before this time

Examples:
  # Unread notifications from the last day
  nesa notifications list --unread --since=24h

  # Phase updates as JSONL
  nesa notifications list --type="phase-*" --output=jsonl`,
	Args: cobra.NoArgs,
	RunE: runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read NOTIFICATION_ID",
	Short: "Mark one notification as read",
	Long: `Mark one notification as read.

Supports short IDs (at least 6 characters of the full ID).`,
	Args: cobra.ExactArgs(1),
	RunE: runNotificationsRead,
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsReadAll,
}

var notificationsDeleteCmd = &cobra.Command{
	Use:     "delete NOTIFICATION_ID",
	Aliases: []string{"rm"},
	Short:   "Delete one notification",
	Long: `Delete one notification.

Supports short IDs (at least 6 characters of the full ID).`,
	Args: cobra.ExactArgs(1),
	RunE: runNotificationsDelete,
}

var notificationsPrefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change notification preferences",
	Long: `Show notification preferences, or change them with --set.

Keys: ` + strings.Join(preferenceKeys(), ", ") + `

Examples:
  nesa notifications prefs
  nesa notifications prefs --set email=false --set phaseUpdates=true`,
	Args: cobra.NoArgs,
	RunE: runNotificationsPrefs,
}

var notificationsSubscribeCmd = &cobra.Command{
	Use:   "subscribe PROJECT_ID",
	Short: "Receive notifications for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsSubscribe,
}

var notificationsUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe PROJECT_ID",
	Short: "Stop receiving notifications for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsUnsubscribe,
}

func init() {
	notificationsListCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	notificationsListCmd.Flags().StringVar(&listSince, "since", "", "Show notifications after time (duration or RFC3339)")
	notificationsListCmd.Flags().StringVar(&listUntil, "until", "", "Show notifications before time (duration or RFC3339)")
	notificationsListCmd.Flags().StringVar(&listType, "type", "", "Filter by notification type (glob pattern)")
	notificationsListCmd.Flags().BoolVar(&listUnread, "unread", false, "Only show unread notifications")

	notificationsPrefsCmd.Flags().StringArrayVar(&prefsSet, "set", nil, "Set a preference (key=true|false), repeatable")

	notificationsCmd.AddCommand(
		notificationsListCmd,
		notificationsReadCmd,
		notificationsReadAllCmd,
		notificationsDeleteCmd,
		notificationsPrefsCmd,
		notificationsSubscribeCmd,
		notificationsUnsubscribeCmd,
	)
	rootCmd.AddCommand(notificationsCmd)
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	format, err := listing.ParseOutputFormat(listOutputFormat)
	if err != nil {
		return printer.Error(
			fmt.Sprintf("invalid output format: %s", listOutputFormat),
			"Output format must be 'default' or 'jsonl'.",
			[]string{"nesa notifications list --output=jsonl"},
		)
	}

	now := time.Now()
	since, until, err := timespec.ParseRange(listSince, listUntil, now)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			fmt.Sprintf("Error: %v", err),
			[]string{"Use a duration (--since=2h) or RFC3339 (--since=2025-01-02T15:04:05Z)"},
		)
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	filters := &listing.FilterCriteria{
		Since:      since,
		Until:      until,
		TypeGlob:   listType,
		UnreadOnly: listUnread,
	}
	if err := listing.ListNotifications(cmd.Context(), e.client, format, filters, now, cmd.OutOrStdout()); err != nil {
		return apiError("list notifications", err)
	}
	return nil
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := resolveNotification(cmd, e, args[0])
	if err != nil {
		return err
	}
	if err := e.client.MarkRead(cmd.Context(), id); err != nil {
		return apiError("mark notification read", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read\n", id)
	return nil
}

func runNotificationsReadAll(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.client.MarkAllRead(cmd.Context()); err != nil {
		return apiError("mark all notifications read", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Marked all notifications as read")
	return nil
}

func runNotificationsDelete(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := resolveNotification(cmd, e, args[0])
	if err != nil {
		return err
	}
	if err := e.client.DeleteNotification(cmd.Context(), id); err != nil {
		return apiError("delete notification", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	return nil
}

func runNotificationsPrefs(cmd *cobra.Command, args []string) error {
	updates, err := parsePreferenceUpdates(prefsSet)
	if err != nil {
		return printer.Error(
			"invalid preference",
			fmt.Sprintf("Error: %v", err),
			[]string{fmt.Sprintf("Valid keys: %s", strings.Join(preferenceKeys(), ", "))},
		)
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	prefs, err := e.client.GetPreferences(cmd.Context())
	if err != nil {
		return apiError("get preferences", err)
	}

	if len(updates) > 0 {
		fields := preferenceFields(prefs)
		for key, value := range updates {
			*fields[key] = value
		}
		prefs, err = e.client.UpdatePreferences(cmd.Context(), *prefs)
		if err != nil {
			return apiError("update preferences", err)
		}
	}

	listing.FormatPreferences(cmd.OutOrStdout(), prefs)
	return nil
}

func runNotificationsSubscribe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.client.SubscribeToProject(cmd.Context(), args[0]); err != nil {
		return apiError("subscribe to project", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Subscribed to project %s\n", args[0])
	return nil
}

func runNotificationsUnsubscribe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.client.UnsubscribeFromProject(cmd.Context(), args[0]); err != nil {
		return apiError("unsubscribe from project", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Unsubscribed from project %s\n", args[0])
	return nil
}

func resolveNotification(cmd *cobra.Command, e *env, shortID string) (string, error) {
	id, err := resolver.ResolveNotificationID(cmd.Context(), e.client, shortID)
	if err == nil {
		return id, nil
	}

	var amb *resolver.AmbiguousError
	switch {
	case errors.As(err, &amb):
		return "", printer.Error(
			"ambiguous notification ID",
			resolver.FormatAmbiguousError(amb),
			nil,
		)
	case resolver.IsNotFoundError(err):
		return "", printer.Error(
			"notification not found",
			fmt.Sprintf("Error: %v", err),
			[]string{"List notifications:\n  nesa notifications list"},
		)
	case erp.IsUnauthorized(err):
		return "", apiError("resolve notification", err)
	default:
		return "", printer.Error(
			"invalid notification ID",
			fmt.Sprintf("Error: %v", err),
			nil,
		)
	}
}

func preferenceFields(p *erp.Preferences) map[string]*bool {
	return map[string]*bool{
		"email":                &p.Email,
		"push":                 &p.Push,
		"inApp":                &p.InApp,
		"projectReminders":     &p.ProjectReminders,
		"projectAssignments":   &p.ProjectAssignments,
		"phaseUpdates":         &p.PhaseUpdates,
		"dailyReportReminders": &p.DailyReportReminders,
	}
}

func preferenceKeys() []string {
	keys := make([]string, 0, 7)
	for k := range preferenceFields(&erp.Preferences{}) {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parsePreferenceUpdates parses key=value pairs. Later pairs override earlier ones.
func parsePreferenceUpdates(pairs []string) (map[string]bool, error) {
	known := preferenceFields(&erp.Preferences{})
	updates := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		key = strings.TrimSpace(key)
		if _, exists := known[key]; !exists {
			return nil, fmt.Errorf("unknown preference %q", key)
		}
		value, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("preference %s: %q is not a boolean", key, raw)
		}
		updates[key] = value
	}
	return updates, nil
}
