package credential

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is how often Watch re-reads the store.
const DefaultPollInterval = 2 * time.Second

// changeSubscriber is implemented by stores that can push change announcements.
type changeSubscriber interface {
	SubscribeChanges(ctx context.Context) (*Changes, error)
}

// Watch calls fn with the current credential, then again each time the stored
// value changes, until ctx is cancelled. Stores that announce changes are
// followed through their subscription in addition to polling. Read errors are
// logged and do not stop the watch.
func Watch(ctx context.Context, store Store, interval time.Duration, log logrus.FieldLogger, fn func(string)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	var pushed <-chan struct{}
	if sub, ok := store.(changeSubscriber); ok {
		changes, err := sub.SubscribeChanges(ctx)
		if err != nil {
			log.WithError(err).Warn("Credential change subscription unavailable, polling only")
		} else {
			defer changes.Close()
			pushed = changes.Events()
		}
	}

	current, err := store.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read credential")
	}
	fn(current)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-pushed:
			if !ok {
				pushed = nil
				continue
			}
		case <-ticker.C:
		}

		next, err := store.Load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).Warn("Failed to read credential")
			}
			continue
		}
		if next != current {
			current = next
			fn(current)
		}
	}
}
