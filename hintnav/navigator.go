// Package hintnav drives keyboard hint mode over a page and every frame
// nested in it. Each frame runs its own session; the Navigator is the host
// the top frame reports to, and fans activations out to sinks.
//
// Commands return once every frame involved has finished processing them,
// so Active reflects the command's outcome.
package hintnav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/hintnav/hintnav/internal/config"
	"github.com/hazyhaar/hintnav/hintnav/internal/coord"
	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
	"github.com/hazyhaar/hintnav/hintnav/internal/locator"
	"github.com/hazyhaar/hintnav/hintnav/internal/marker"
	"github.com/hazyhaar/hintnav/hintnav/internal/session"
	"github.com/hazyhaar/hintnav/hintnav/internal/sink"
	"github.com/hazyhaar/hintnav/hintnav/report"
)

// ErrClosed is returned by every command after Close.
var ErrClosed = errors.New("hintnav: navigator closed")

// Document is a page or frame document the navigator can hint.
type Document = dom.Document

// Navigator runs hint mode over one page.
type Navigator struct {
	cfg    *config.Config
	doc    Document
	bus    *coord.Bus
	top    *coord.Window
	sinkR  *sink.Router
	logger *slog.Logger

	mu       sync.Mutex
	last     *report.Activation
	selector string
	closed   bool
}

// New attaches doc as the top frame. Frames found under it are attached
// lazily when hint mode starts.
func New(cfg *Config, doc Document, logger *slog.Logger, sinks ...Sink) (*Navigator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Hints.Secret == "" {
		cfg.ApplyDefaults()
	}
	n := &Navigator{
		cfg:    cfg,
		doc:    doc,
		sinkR:  sink.NewRouter(logger, sinks...),
		logger: logger,
	}
	st := styleOf(cfg.Hints.Style)
	n.bus = coord.NewBus(coord.Options{
		Secret: cfg.Hints.Secret,
		Logger: logger,
		Mount: func(w *coord.Window) {
			sc := session.Config{Window: w, Style: st, Logger: logger}
			if w.IsTop() {
				sc.Host = n
			}
			session.Mount(sc)
		},
	})
	top, err := n.bus.Attach("", doc)
	if err != nil {
		n.bus.Close()
		return nil, fmt.Errorf("hintnav: attach top frame: %w", err)
	}
	n.top = top
	return n, nil
}

func styleOf(c config.StyleConfig) marker.Style {
	st := marker.DefaultStyle()
	if c.HintBackground != "" {
		st.HintBackground = c.HintBackground
	}
	if c.HintColor != "" {
		st.HintColor = c.HintColor
	}
	if c.Background != "" {
		st.Background = c.Background
	}
	if c.BackgroundActive != "" {
		st.BackgroundActive = c.BackgroundActive
	}
	if c.TextColor != "" {
		st.TextColor = c.TextColor
	}
	return st
}

// Activated implements session.Host. It runs on the top frame's goroutine.
func (n *Navigator) Activated(ctx context.Context, from coord.WindowID, rec report.Record) {
	act := report.Activation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		PageURL:   n.doc.URL(),
		Window:    string(from),
		Record:    rec,
		Timestamp: time.Now().UnixMilli(),
	}
	n.mu.Lock()
	n.last = &act
	n.mu.Unlock()

	n.logger.Debug("hintnav: activated", "window", from, "node", rec.NodeName, "label", rec.ID)
	if err := n.sinkR.Send(ctx, act); err != nil {
		n.logger.Warn("hintnav: sink delivery failed", "id", act.ID, "error", err)
	}
}

// Start enters hint mode with a preset name or XPath; empty uses the
// configured selector. A running session is cleared first.
func (n *Navigator) Start(ctx context.Context, selector string) error {
	if selector == "" {
		selector = n.cfg.Hints.Selector
	}
	sel := locator.Resolve(selector)
	if err := n.Clear(ctx); err != nil {
		return err
	}
	n.mu.Lock()
	n.selector = sel
	n.mu.Unlock()
	return n.send(ctx, "start", coord.MsgStart, coord.StartArgs{Selector: sel})
}

// Filter shows only the candidates whose text matches every
// whitespace-separated part of text, in order. Empty text shows all.
func (n *Navigator) Filter(ctx context.Context, text string) error {
	return n.send(ctx, "filter", coord.MsgFilter, coord.FilterArgs{Text: text})
}

// Next activates the next visible candidate, wrapping at the end.
func (n *Navigator) Next(ctx context.Context) error {
	return n.send(ctx, "next", coord.MsgActivateAdjacent, coord.AdjacentArgs{Direction: 1})
}

// Previous activates the previous visible candidate, wrapping at the start.
func (n *Navigator) Previous(ctx context.Context) error {
	return n.send(ctx, "previous", coord.MsgActivateAdjacent, coord.AdjacentArgs{Direction: -1})
}

// Select activates the visible candidate carrying label.
func (n *Navigator) Select(ctx context.Context, label int) error {
	return n.send(ctx, "select", coord.MsgActivateByLabel, coord.LabelArgs{Label: label})
}

// Follow focuses and clicks the active element in the frame that owns it.
func (n *Navigator) Follow(ctx context.Context) error {
	return n.send(ctx, "follow", coord.MsgFollowActive, nil)
}

// Clear leaves hint mode in every frame. It is safe to call when idle.
func (n *Navigator) Clear(ctx context.Context) error {
	if err := n.send(ctx, "clear", coord.MsgClear, nil); err != nil {
		return err
	}
	n.mu.Lock()
	n.last = nil
	n.selector = ""
	n.mu.Unlock()
	return nil
}

// Settle waits until no frame has work left.
func (n *Navigator) Settle(ctx context.Context) error {
	if err := n.bus.Settle(ctx); err != nil {
		return fmt.Errorf("hintnav: settle: %w", err)
	}
	return nil
}

// Active returns the last activation of the current hint session.
func (n *Navigator) Active() (report.Activation, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return report.Activation{}, false
	}
	return *n.last, true
}

// Selector returns the XPath of the running session, "" when idle.
func (n *Navigator) Selector() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.selector
}

// PageURL is the URL of the top document.
func (n *Navigator) PageURL() string { return n.doc.URL() }

// Close stops every frame and closes the sinks. Hints left on the page are
// not removed; call Clear first for that.
func (n *Navigator) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	n.bus.Close()
	return n.sinkR.Close()
}

func (n *Navigator) send(ctx context.Context, op, name string, payload any) error {
	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := n.bus.Post(coord.HostID, n.top.ID, name, payload); err != nil {
		if errors.Is(err, coord.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("hintnav: %s: %w", op, err)
	}
	if err := n.bus.Settle(ctx); err != nil {
		return fmt.Errorf("hintnav: %s: %w", op, err)
	}
	return nil
}
