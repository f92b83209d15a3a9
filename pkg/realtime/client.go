package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coursehub/realtime-go/pkg/schemas/events"
)

// State of the session identity machine.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrClosed is returned by Connect after Close.
var ErrClosed = errors.New("realtime: client closed")

// Client multiplexes one socket connection across many logical topics
// and fans every inbound envelope out to all registered handlers. At
// most one identity owns the session at a time; connecting as a
// different identity tears the old session, its subscriptions, and its
// dedup state down first.
//
// Build exactly one Client per process at application start and inject
// it into every context that needs realtime updates.
type Client struct {
	cfg Config
	log *slog.Logger

	handlers *handlerRegistry

	mu       sync.Mutex
	state    State
	identity Identity
	sess     *session
	subs     *subscriptionRegistry
	dedup    *deduper
	gen      uint64 // bumped on every session replacement; stale frames check it
	closed   bool
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("realtime: endpoint URL is required")
	}
	cfg = cfg.withDefaults()
	log := cfg.Logger
	return &Client{
		cfg:      cfg,
		log:      log,
		handlers: newHandlerRegistry(log),
		subs:     newSubscriptionRegistry(log),
		dedup:    newDeduper(cfg.DedupWindow),
	}, nil
}

// Connect binds the session to identity and blocks until the socket is
// open and the default topics are subscribed, or until ctx is done.
// Reconnecting with the identity already bound is a no-op; a different
// identity replaces the session destructively. Open failure returns a
// ConnectionError and leaves the client disconnected; the caller may
// retry. Drops after a successful open are reconnected automatically.
func (c *Client) Connect(ctx context.Context, identity Identity) error {
	if !identity.Role.Valid() {
		return fmt.Errorf("realtime: invalid role %q", identity.Role)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state == StateConnected && c.identity == identity {
		c.log.Debug("connect is a no-op, identity already bound",
			slog.String("identity", identity.String()))
		return nil
	}
	if c.state != StateDisconnected {
		c.teardownLocked()
	}
	return c.openLocked(ctx, identity)
}

// openLocked dials, subscribes the default topic set, and starts the
// read pump. Caller holds c.mu.
func (c *Client) openLocked(ctx context.Context, identity Identity) error {
	c.state = StateConnecting
	c.identity = identity

	conn, err := c.cfg.Dialer(ctx, c.cfg.URL, c.authHeader())
	if err != nil {
		c.state = StateDisconnected
		c.identity = Identity{}
		return &ConnectionError{URL: c.cfg.URL, Err: err}
	}

	c.gen++
	gen := c.gen
	sess := newSession(conn, c.cfg.HeartbeatInterval, c.cfg.WriteTimeout, c.log)
	c.sess = sess
	c.dedup = newDeduper(c.cfg.DedupWindow)

	for _, topic := range identity.DefaultTopics() {
		if err := c.subscribeLocked(sess, topic); err != nil {
			c.teardownLocked()
			return &ConnectionError{URL: c.cfg.URL, Err: err}
		}
	}

	c.state = StateConnected
	c.log.Info("session established",
		slog.String("identity", identity.String()),
		slog.Uint64("gen", gen))

	go c.pump(sess, gen)
	return nil
}

// Disconnect tears the session down: subscriptions first, then the
// socket. Idempotent. Registered handlers stay registered; they simply
// stop receiving envelopes until the next Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisconnected {
		return
	}
	c.log.Info("disconnecting", slog.String("identity", c.identity.String()))
	c.teardownLocked()
}

// Close shuts the client down for good: current session torn down and
// the handler list deactivated, so frames in flight during the close
// can no longer reach observers.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		if c.state != StateDisconnected {
			c.teardownLocked()
		}
	}
	c.mu.Unlock()
	c.handlers.deactivate()
}

// teardownLocked discards the session, its subscriptions, and its
// dedup state. The gen bump guarantees frames still in flight for the
// old session are dropped before fan-out. Caller holds c.mu.
func (c *Client) teardownLocked() {
	c.gen++
	c.subs.clear() // unsubscribe handles need the socket still open
	if c.sess != nil {
		c.sess.close()
		c.sess = nil
	}
	c.dedup = newDeduper(c.cfg.DedupWindow)
	c.state = StateDisconnected
	c.identity = Identity{}
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentIdentity reports the identity the session is bound to, if any.
func (c *Client) CurrentIdentity() (Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected {
		return Identity{}, false
	}
	return c.identity, true
}

// AddHandler registers an observer for every envelope that passes
// deduplication. Registration is independent of connection lifecycle.
func (c *Client) AddHandler(fn Handler) HandlerRegistration {
	return c.handlers.add(fn)
}

// RemoveHandler is a no-op for unknown registrations.
func (c *Client) RemoveHandler(reg HandlerRegistration) {
	c.handlers.remove(reg)
}

// Send writes a chat payload to the application send destination.
// Fire-and-forget: no delivery confirmation is modeled. Returns
// ErrNotConnected while no session is open.
func (c *Client) Send(msg events.ChatSend) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	sess := c.sess
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || sess == nil {
		return ErrNotConnected
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return sess.writeFrame(events.ClientFrame{
		Action:      events.ActionSend,
		Destination: events.ChatSendDestination,
		Body:        body,
	})
}

// Subscribe adds a dynamic topic on the live session. Idempotent.
func (c *Client) Subscribe(topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.sess == nil {
		return ErrNotConnected
	}
	return c.subscribeLocked(c.sess, topic)
}

// Unsubscribe removes a dynamic topic. Unsubscribing a topic that was
// never subscribed is a no-op.
func (c *Client) Unsubscribe(topic string) {
	c.subs.remove(topic)
}

// SubscribeConversation subscribes the per-conversation topic, for a
// chat view coming on screen.
func (c *Client) SubscribeConversation(conversationID int64) error {
	return c.Subscribe(ConversationTopic(conversationID))
}

// UnsubscribeConversation drops the per-conversation topic when the
// view unmounts, leaving every other subscription untouched.
func (c *Client) UnsubscribeConversation(conversationID int64) {
	c.Unsubscribe(ConversationTopic(conversationID))
}

// Subscriptions lists the currently subscribed topics.
func (c *Client) Subscriptions() []string {
	return c.subs.snapshot()
}

func (c *Client) subscribeLocked(sess *session, topic string) error {
	unsub := func() error {
		return sess.writeFrame(events.ClientFrame{
			Action:      events.ActionUnsubscribe,
			Destination: topic,
		})
	}
	if !c.subs.add(topic, unsub) {
		return nil
	}
	err := sess.writeFrame(events.ClientFrame{
		Action:      events.ActionSubscribe,
		Destination: topic,
	})
	if err != nil {
		c.subs.forget(topic)
		return err
	}
	return nil
}

func (c *Client) authHeader() http.Header {
	header := http.Header{}
	if c.cfg.Tokens != nil {
		if tok := c.cfg.Tokens.Token(); tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}
	return header
}

// pump runs the session's read loop and, on an unexpected drop, keeps
// reopening with a fixed delay until the client is closed, disconnected,
// or rebound to another identity. Reconnection is transparent to
// subscribers: the registry replays every stored topic on the fresh
// socket.
func (c *Client) pump(sess *session, gen uint64) {
	err := sess.readLoop(func(data []byte) { c.handleFrame(gen, data) })
	deliberate := sess.closedDeliberately()
	sess.close()

	c.mu.Lock()
	if deliberate || c.closed || c.gen != gen || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	identity := c.identity
	c.state = StateConnecting
	c.sess = nil
	c.mu.Unlock()

	c.log.Warn("connection lost, scheduling reconnect",
		slog.String("identity", identity.String()),
		slog.Duration("delay", c.cfg.ReconnectDelay),
		slog.Any("error", err))

	for {
		time.Sleep(c.cfg.ReconnectDelay)

		c.mu.Lock()
		if c.closed || c.gen != gen || c.state != StateConnecting || c.identity != identity {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		dialCtx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
		conn, derr := c.cfg.Dialer(dialCtx, c.cfg.URL, c.authHeader())
		cancel()
		if derr != nil {
			c.log.Warn("reconnect failed",
				slog.String("identity", identity.String()),
				slog.Any("error", derr))
			continue
		}

		c.mu.Lock()
		if c.closed || c.gen != gen || c.state != StateConnecting || c.identity != identity {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.gen++
		newGen := c.gen
		newSess := newSession(conn, c.cfg.HeartbeatInterval, c.cfg.WriteTimeout, c.log)
		c.sess = newSess

		replayErr := c.replaySubscriptionsLocked(newSess)
		if replayErr != nil {
			newSess.close()
			c.sess = nil
			c.gen = gen // stay claimable by this loop
			c.mu.Unlock()
			c.log.Warn("resubscribe after reconnect failed", slog.Any("error", replayErr))
			continue
		}
		c.state = StateConnected
		c.mu.Unlock()

		c.log.Info("reconnected", slog.String("identity", identity.String()))
		go c.pump(newSess, newGen)
		return
	}
}

// replaySubscriptionsLocked re-issues every stored topic against the
// fresh session and rebinds the unsubscribe handles. Caller holds c.mu.
func (c *Client) replaySubscriptionsLocked(sess *session) error {
	for _, topic := range c.subs.snapshot() {
		if err := sess.writeFrame(events.ClientFrame{
			Action:      events.ActionSubscribe,
			Destination: topic,
		}); err != nil {
			return err
		}
		c.subs.rebind(topic, func() error {
			return sess.writeFrame(events.ClientFrame{
				Action:      events.ActionUnsubscribe,
				Destination: topic,
			})
		})
	}
	return nil
}

// handleFrame is the single inbound pipeline: gen guard, parse, dedup,
// fan-out. It runs on the one read goroutine, so envelopes are
// processed strictly in arrival order and handlers never run
// concurrently with each other.
func (c *Client) handleFrame(gen uint64, data []byte) {
	c.mu.Lock()
	live := !c.closed && c.gen == gen && c.state == StateConnected
	dedup := c.dedup
	c.mu.Unlock()
	if !live {
		return
	}

	env, err := events.ParseEnvelope(data)
	if err != nil {
		c.log.Warn("dropping malformed frame", slog.Any("error", err))
		return
	}
	if !dedup.shouldDeliver(env) {
		c.log.Debug("duplicate suppressed", slog.String("type", string(env.Type)))
		return
	}
	// Rechecked between handlers: a teardown or identity switch during
	// fan-out stops this envelope from reaching the remaining handlers.
	c.handlers.dispatch(env, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return !c.closed && c.gen == gen && c.state == StateConnected
	})
}
