package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxAttempts is the number of consecutive reconnects made after a drop
	// before the channel gives up.
	DefaultMaxAttempts = 5

	// DefaultRetryDelay is the flat wait between reconnect attempts.
	DefaultRetryDelay = 5 * time.Second

	notificationsPath = "/notifications"
	maxMessageSize    = 512 * 1024
)

// Channel maintains one logical WebSocket connection to the notification stream.
// All methods are safe for concurrent use. Events are delivered to the registered
// Handler from the connection's read loop, in the order the server sent them.
type Channel struct {
	wsBase      string
	dialer      *websocket.Dialer
	maxAttempts int
	retryDelay  time.Duration
	log         logrus.FieldLogger
	registry    *Registry
	listener    func(State, int)

	// emitMu orders listener calls; it is taken before mu, never after.
	emitMu sync.Mutex

	mu         sync.Mutex
	state      State
	attempts   int
	credential string
	conn       *websocket.Conn
	cancelDial context.CancelFunc
	retry      *time.Timer
	// gen is bumped whenever the current connection is superseded (Initialize,
	// Close). Callbacks carrying an older gen are ignored.
	gen uint64
}

// Option configures a Channel.
type Option func(*Channel)

// WithMaxAttempts overrides the reconnect ceiling.
func WithMaxAttempts(n int) Option {
	return func(c *Channel) {
		if n >= 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryDelay overrides the flat reconnect delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Channel) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithDialer replaces the WebSocket dialer (proxies, TLS settings, handshake timeout).
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithLogger sets the logger used for connection diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Channel) {
		if l != nil {
			c.log = l
		}
	}
}

// WithStateListener registers fn to observe state transitions together with the
// attempt count at that moment. Calls are serialized and arrive in transition
// order; transitions of a superseded connection are not reported. fn must not
// call back into the channel.
func WithStateListener(fn func(State, int)) Option {
	return func(c *Channel) {
		c.listener = fn
	}
}

// NewChannel creates a closed channel for the stream rooted at wsBase
// (for example "wss://erp.example.com/ws").
func NewChannel(wsBase string, opts ...Option) *Channel {
	c := &Channel{
		wsBase:      strings.TrimRight(wsBase, "/"),
		dialer:      websocket.DefaultDialer,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		log:         logrus.StandardLogger(),
		registry:    NewRegistry(),
		state:       StateClosed,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "notify")
	return c
}

// Initialize opens a fresh connection authenticated with credential.
// An empty credential is the normal pre-login state: it is logged and ignored.
// Any existing connection or pending reconnect is superseded and the attempt
// count starts over.
func (c *Channel) Initialize(credential string) {
	if credential == "" {
		c.log.Warn("No credential available, notification channel not started")
		return
	}

	c.mu.Lock()
	c.teardownLocked()
	c.credential = credential
	c.attempts = 0
	c.state = StateConnecting
	gen := c.gen
	ctx := c.newDialContextLocked()
	c.mu.Unlock()

	c.emitIf(gen, StateConnecting, 0)
	go c.connect(ctx, gen, credential)
}

// Rotate reacts to a change of the stored credential. An empty credential
// closes the channel without reconnecting; a different credential starts a
// fresh connection; the current credential is a no-op.
func (c *Channel) Rotate(credential string) {
	c.mu.Lock()
	current := c.credential
	c.mu.Unlock()

	switch {
	case credential == "":
		if current != "" {
			c.log.Info("Credential cleared, closing notification channel")
		}
		c.Close()
	case credential == current:
		return
	default:
		c.log.Info("Credential changed, reinitializing notification channel")
		c.Initialize(credential)
	}
}

// Close tears the connection down and cancels any scheduled reconnect.
// The channel stays closed until Initialize or Rotate is called again.
func (c *Channel) Close() {
	c.mu.Lock()
	wasClosed := c.state == StateClosed && c.conn == nil && c.retry == nil
	c.teardownLocked()
	c.credential = ""
	c.attempts = 0
	c.state = StateClosed
	c.mu.Unlock()

	if !wasClosed {
		c.emitMu.Lock()
		c.emit(StateClosed, 0)
		c.emitMu.Unlock()
	}
}

// SetNotificationCallback installs fn as the single subscriber; nil clears it.
func (c *Channel) SetNotificationCallback(fn Handler) {
	c.registry.Set(fn)
}

// Subscribe is SetNotificationCallback with a non-nil handler.
func (c *Channel) Subscribe(fn Handler) {
	c.registry.Set(fn)
}

// Unsubscribe stops delivery to the current subscriber.
func (c *Channel) Unsubscribe() {
	c.registry.Clear()
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of consecutive reconnects made since the last
// successful open.
func (c *Channel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// MaxAttempts returns the configured reconnect ceiling.
func (c *Channel) MaxAttempts() int {
	return c.maxAttempts
}

// Endpoint builds the stream URL for credential.
func (c *Channel) Endpoint(credential string) (string, error) {
	u, err := url.Parse(c.wsBase + notificationsPath)
	if err != nil {
		return "", fmt.Errorf("invalid notification endpoint %q: %w", c.wsBase, err)
	}
	q := u.Query()
	q.Set("token", credential)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// connect dials once and, on success, runs the read loop until the socket drops.
func (c *Channel) connect(ctx context.Context, gen uint64, credential string) {
	endpoint, err := c.Endpoint(credential)
	if err != nil {
		c.log.WithError(err).Error("Cannot build notification endpoint")
		c.handleDrop(gen)
		return
	}

	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if ctx.Err() == nil {
			c.log.WithError(err).Warn("Notification channel dial failed")
		}
		c.handleDrop(gen)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		// Superseded while dialing.
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	c.mu.Unlock()

	c.log.Info("Notification channel connected")
	c.emitIf(gen, StateOpen, 0)
	c.readLoop(gen, conn)
}

func (c *Channel) readLoop(gen uint64, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.WithError(err).Warn("Notification channel closed unexpectedly")
			} else {
				c.log.WithError(err).Debug("Notification channel closed")
			}
			c.handleDrop(gen)
			return
		}

		ev, err := DecodeEvent(data)
		if err != nil {
			c.log.WithError(err).WithField("bytes", len(data)).Warn("Dropping malformed notification")
			continue
		}
		if !c.registry.Publish(*ev) {
			c.log.WithField("type", ev.Type).Debug("No subscriber, notification dropped")
		}
	}
}

// handleDrop applies the reconnect policy after a failed dial or a closed socket.
func (c *Channel) handleDrop(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	if c.attempts >= c.maxAttempts {
		attempts := c.attempts
		c.state = StateClosed
		c.mu.Unlock()

		c.log.WithField("attempts", attempts).Error("Notification channel gave up reconnecting")
		c.emitIf(gen, StateClosed, attempts)
		return
	}

	c.attempts++
	attempt := c.attempts
	credential := c.credential
	c.state = StateReconnecting
	c.retry = time.AfterFunc(c.retryDelay, func() {
		c.reconnect(gen, credential)
	})
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"attempt":      attempt,
		"max_attempts": c.maxAttempts,
		"delay":        c.retryDelay,
	}).Info("Notification channel reconnect scheduled")
	c.emitIf(gen, StateReconnecting, attempt)
}

func (c *Channel) reconnect(gen uint64, credential string) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.retry = nil
	ctx := c.newDialContextLocked()
	c.mu.Unlock()

	c.connect(ctx, gen, credential)
}

// teardownLocked supersedes the current generation: stops the retry timer,
// aborts an in-flight dial and closes the socket.
func (c *Channel) teardownLocked() {
	c.gen++
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Channel) newDialContextLocked() context.Context {
	if c.cancelDial != nil {
		c.cancelDial()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	return ctx
}

// emitIf reports a transition unless gen has been superseded in the meantime.
func (c *Channel) emitIf(gen uint64, s State, attempts int) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	current := gen == c.gen
	c.mu.Unlock()
	if current {
		c.emit(s, attempts)
	}
}

func (c *Channel) emit(s State, attempts int) {
	if c.listener != nil {
		c.listener(s, attempts)
	}
}
