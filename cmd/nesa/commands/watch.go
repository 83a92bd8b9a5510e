package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yazin123/nesa/internal/credential"
	"github.com/yazin123/nesa/internal/inbox"
	"github.com/yazin123/nesa/internal/printer"
	"github.com/yazin123/nesa/internal/watch"
	"github.com/yazin123/nesa/pkg/notify"
)

var (
	watchOutputFormat string
	watchFor          time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live notifications",
	Long: `Open the notification channel and stream notifications as they arrive.

The channel reconnects after a drop, up to realtime.max_attempts times with
realtime.retry_delay between attempts. Logging in or out in another terminal
(with the same credential store) reconnects or closes the channel.

Output Formats:
  default - Toasts and connection status for a terminal
  json    - One JSON object per line (notifications and state changes)

Examples:
  # Stream until Ctrl+C
  nesa watch

  # Pipe notifications to jq
  nesa watch --output=json | jq 'select(.kind=="notification") | .entry.event.message'

  # Stream for five minutes, then print a summary
  nesa watch --for=5m`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format: default or json")
	watchCmd.Flags().DurationVar(&watchFor, "for", 0, "Stop after this long (0 = until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format := watch.OutputFormat(watchOutputFormat)
	if format != watch.OutputFormatDefault && format != watch.OutputFormatJSON {
		return printer.Error(
			fmt.Sprintf("invalid output format: %s", watchOutputFormat),
			"Output format must be 'default' or 'json'.",
			[]string{"nesa watch --output=json"},
		)
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()
	if watchFor > 0 {
		var cancelFor context.CancelFunc
		ctx, cancelFor = context.WithTimeout(ctx, watchFor)
		defer cancelFor()
	}

	log := logrus.StandardLogger()
	in := inbox.New()
	streamer := watch.NewStreamer(cmd.OutOrStdout(), format, in)

	ch := notify.NewChannel(e.cfg.Realtime.WSBase,
		notify.WithMaxAttempts(*e.cfg.Realtime.MaxAttempts),
		notify.WithRetryDelay(e.cfg.Realtime.RetryDelay),
		notify.WithLogger(log),
		notify.WithStateListener(streamer.OnState),
	)

	watcherDone := make(chan struct{})
	followCredential := func() {
		go func() {
			defer close(watcherDone)
			first := true
			credential.Watch(ctx, e.store, e.cfg.Credential.PollInterval, log, func(token string) {
				if first {
					first = false
					if token == "" {
						printer.Warning(cmd.ErrOrStderr(), "Not logged in, waiting for a credential (run 'nesa login')\n")
					}
					ch.Initialize(token)
					return
				}
				ch.Rotate(token)
			})
		}()
	}

	started := time.Now()
	streamErr := watch.StreamNotifications(ctx, ch, streamer, followCredential)

	// The watcher may rotate one last time while stopping.
	<-watcherDone
	ch.Close()

	if streamErr != nil && !errors.Is(streamErr, context.DeadlineExceeded) {
		return streamErr
	}

	if format == watch.OutputFormatDefault {
		fmt.Fprintln(cmd.ErrOrStderr(), watch.Summary(in, started, time.Now()))
	}
	return nil
}
