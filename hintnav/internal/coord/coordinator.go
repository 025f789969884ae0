// Package coord moves hint-mode messages between frames. Each frame is an
// actor with its own mailbox; frames share nothing but JSON envelopes
// tagged with a per-page secret.
package coord

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// WindowID addresses one frame on a Bus.
type WindowID string

// HostID is the sender of commands coming from outside the page.
const HostID WindowID = "host"

// Envelope is the unit carried by the bus.
type Envelope struct {
	Tag  string          `json:"tag"`
	Name string          `json:"name"`
	From WindowID        `json:"from"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Args) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Args, v); err != nil {
		return fmt.Errorf("coord: decode %s: %w", e.Name, err)
	}
	return nil
}

// HandlerFunc handles one delivered envelope on the owning frame's goroutine.
type HandlerFunc func(ctx context.Context, env Envelope)

// Coordinator is a frame's message handler table.
type Coordinator struct {
	secret   string
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

// NewCoordinator creates an empty handler table accepting envelopes tagged
// with secret.
func NewCoordinator(secret string, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		secret:   secret,
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers fn for the message name, replacing any previous handler.
func (c *Coordinator) Handle(name string, fn HandlerFunc) {
	c.handlers[name] = fn
}

// Dispatch runs the handler for env. Envelopes with a foreign tag or an
// unknown name are dropped; the return value reports whether a handler ran.
func (c *Coordinator) Dispatch(ctx context.Context, env Envelope) bool {
	if env.Tag != c.secret {
		c.logger.Debug("coord: dropped envelope with foreign tag", "name", env.Name, "from", env.From)
		return false
	}
	fn, ok := c.handlers[env.Name]
	if !ok {
		c.logger.Debug("coord: no handler", "name", env.Name, "from", env.From)
		return false
	}
	fn(ctx, env)
	return true
}
