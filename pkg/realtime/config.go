package realtime

import (
	"log/slog"
	"time"
)

// TokenSource yields the bearer credential attached at connect time.
// An empty token means "connect unauthenticated" and is not an error;
// the server decides whether to accept.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource for a fixed credential.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Config defines the client. Zero values fall back to the defaults
// below; URL is the only required field.
type Config struct {
	URL string

	// Tokens is consulted on every (re)connect. Nil means always
	// unauthenticated.
	Tokens TokenSource

	// HeartbeatInterval is the ping cadence used to detect silent
	// failures distinctly from explicit close.
	HeartbeatInterval time.Duration

	// ReconnectDelay is the fixed pause between reopen attempts after
	// an unexpected close.
	ReconnectDelay time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// DialTimeout bounds each reopen attempt during automatic
	// reconnect. The initial Connect is bounded by its context.
	DialTimeout time.Duration

	// DedupWindow caps the number of recently-seen message ids
	// retained for redelivery suppression.
	DedupWindow int

	// Dialer opens the underlying socket. Nil selects the websocket
	// dialer; tests inject fakes here.
	Dialer Dialer

	Logger *slog.Logger
}

const (
	defaultHeartbeatInterval = 4 * time.Second
	defaultReconnectDelay    = 5 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultDialTimeout       = 30 * time.Second
	defaultDedupWindow       = 1000
)

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = defaultReconnectDelay
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = defaultDedupWindow
	}
	if c.Dialer == nil {
		c.Dialer = dialWebsocket
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
