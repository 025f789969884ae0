// Package session runs hint mode inside one frame. A Session owns the
// ordered candidates of its frame, the active pointer and the delegation in
// flight; it only talks to other frames through its coord.Window. The
// session mounted on the top window additionally serializes host commands.
package session

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/hintnav/hintnav/internal/coord"
	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
	"github.com/hazyhaar/hintnav/hintnav/internal/locator"
	"github.com/hazyhaar/hintnav/hintnav/internal/marker"
	"github.com/hazyhaar/hintnav/hintnav/report"
)

// State of a session.
type State int

const (
	Idle State = iota
	Listing
	Active
)

func (s State) String() string {
	switch s {
	case Listing:
		return "listing"
	case Active:
		return "active"
	default:
		return "idle"
	}
}

// Host receives activations. Only the top window's session calls it.
type Host interface {
	Activated(ctx context.Context, from coord.WindowID, rec report.Record)
}

// Config wires a session to its window.
type Config struct {
	Window *coord.Window
	Style  marker.Style
	Host   Host // top window only
	Logger *slog.Logger
}

type opKind int

const (
	opStart opKind = iota + 1
	opAdjacent
	opLabel
	opFilter
)

func (k opKind) String() string {
	switch k {
	case opStart:
		return "start"
	case opAdjacent:
		return "adjacent"
	case opLabel:
		return "label"
	case opFilter:
		return "filter"
	}
	return "none"
}

// operation is the resumable state of the command being processed. It
// survives across handler invocations while a child is being waited on.
type operation struct {
	kind    opKind
	index   int
	dir     int
	wrapped bool
	label   int
	text    string
	match   func(string) bool
	counter int
	lost    bool
	found   []locator.Located
	vp      dom.Viewport
}

// Session is the per-frame state machine.
type Session struct {
	win     *coord.Window
	style   marker.Style
	host    Host
	locator *locator.Locator
	logger  *slog.Logger

	live     bool
	gen      uint64
	selector string
	cands    []marker.Candidate
	active   int
	pending  *marker.FrameProxy
	op       *operation

	queue    []coord.Envelope
	draining bool
}

// Mount creates the session of a window and registers its handlers. Use it
// as (part of) the bus MountFunc.
func Mount(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Session{
		win:     cfg.Window,
		style:   cfg.Style,
		host:    cfg.Host,
		locator: locator.New(cfg.Logger),
		logger:  cfg.Logger.With("window", string(cfg.Window.ID)),
		active:  -1,
	}
	s.register()
	return s
}

func (s *Session) register() {
	w := s.win
	w.Handle(coord.MsgStart, s.onHost)
	w.Handle(coord.MsgStartInSubframe, s.onStartInSubframe)
	w.Handle(coord.MsgStartCompleted, s.onStartCompleted)
	w.Handle(coord.MsgClear, s.onClear)
	w.Handle(coord.MsgClearActive, s.onClearActive)
	w.Handle(coord.MsgActivateAdjacent, s.onActivateAdjacent)
	w.Handle(coord.MsgActivateResult, s.onActivateResult)
	w.Handle(coord.MsgActivateByLabel, s.onActivateByLabel)
	w.Handle(coord.MsgLabelResult, s.onLabelResult)
	w.Handle(coord.MsgFilter, s.onFilter)
	w.Handle(coord.MsgFilterCompleted, s.onFilterCompleted)
	w.Handle(coord.MsgFollowActive, s.onFollowActive)
	w.Handle(coord.MsgActivationReport, s.onActivationReport)
}

// State is only meaningful from the session's own goroutine or after the
// bus settled.
func (s *Session) State() State {
	switch {
	case !s.live:
		return Idle
	case s.active >= 0 || s.pending != nil:
		return Active
	default:
		return Listing
	}
}

// IsActive implements marker.Owner.
func (s *Session) IsActive(m *marker.Marker) bool {
	return s.active >= 0 && s.active < len(s.cands) && s.cands[s.active] == marker.Candidate(m)
}

// fromDriver accepts messages coming from whoever drives this frame: the
// host for the top window, the parent for any other.
func (s *Session) fromDriver(env coord.Envelope) bool {
	if s.win.IsTop() {
		return env.From == coord.HostID
	}
	return env.From == s.win.Parent
}

// awaiting returns the pending proxy when env is the reply it is waiting for.
func (s *Session) awaiting(env coord.Envelope, kind opKind, gen uint64) *marker.FrameProxy {
	switch {
	case !s.live || s.op == nil || s.pending == nil:
	case s.op.kind != kind || gen != s.gen:
	case s.pending.Window() != env.From:
	default:
		return s.pending
	}
	s.logger.Debug("session: stale reply ignored", "name", env.Name, "from", env.From)
	return nil
}

func (s *Session) indexOf(c marker.Candidate) int {
	for i, x := range s.cands {
		if x == c {
			return i
		}
	}
	return -1
}

func (s *Session) post(to coord.WindowID, name string, payload any) {
	if err := s.win.Post(to, name, payload); err != nil {
		s.logger.Warn("session: post failed", "to", to, "name", name, "error", err)
	}
}

func (s *Session) delegate(p *marker.FrameProxy, name string, payload any) {
	s.pending = p
	if err := p.Delegate(name, payload); err != nil {
		s.logger.Warn("session: delegate failed", "to", p.Window(), "name", name, "error", err)
	}
}

// --- host commands (top window) ---

func (s *Session) onHost(ctx context.Context, env coord.Envelope) {
	if !s.win.IsTop() || env.From != coord.HostID {
		return
	}
	s.command(ctx, env)
}

// command runs a host command now, or queues it behind the operation in
// flight. Clear is never queued and drops whatever was.
func (s *Session) command(ctx context.Context, env coord.Envelope) {
	if env.Name == coord.MsgClear {
		if n := len(s.queue); n > 0 {
			s.logger.Debug("session: dropped queued commands", "count", n)
		}
		s.queue = nil
		s.clear()
		return
	}
	if s.op != nil {
		s.queue = append(s.queue, env)
		return
	}
	s.exec(ctx, env)
	s.drain(ctx)
}

func (s *Session) exec(ctx context.Context, env coord.Envelope) {
	switch env.Name {
	case coord.MsgStart:
		var a coord.StartArgs
		if err := env.Decode(&a); err != nil {
			s.logger.Warn("session: bad start", "error", err)
			return
		}
		s.gen++
		s.start(ctx, a.Selector, 0)
	case coord.MsgActivateAdjacent:
		var a coord.AdjacentArgs
		if err := env.Decode(&a); err != nil || !s.live {
			return
		}
		s.activateAdjacent(ctx, a.Direction, false)
	case coord.MsgActivateByLabel:
		var a coord.LabelArgs
		if err := env.Decode(&a); err != nil || !s.live {
			return
		}
		s.activateByLabel(ctx, a.Label)
	case coord.MsgFilter:
		var a coord.FilterArgs
		if err := env.Decode(&a); err != nil || !s.live {
			return
		}
		s.filter(ctx, a.Text, 0)
	case coord.MsgFollowActive:
		s.follow()
	}
}

// drain replays queued host commands until one of them suspends.
func (s *Session) drain(ctx context.Context) {
	if !s.win.IsTop() || s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()
	for s.op == nil && len(s.queue) > 0 {
		env := s.queue[0]
		s.queue = s.queue[1:]
		s.exec(ctx, env)
	}
}

// --- activation bookkeeping ---

// activate makes the marker at i the active candidate of this frame and
// reports it.
func (s *Session) activate(ctx context.Context, i int) {
	s.setActive(i)
	m := s.cands[i].(*marker.Marker)
	if err := m.Refresh(); err != nil {
		s.logger.Warn("session: paint active", "error", err)
	}
	s.report(ctx, m.Serialize())
}

// setActive moves the active pointer and releases the previous holder.
func (s *Session) setActive(i int) {
	prev := s.active
	s.active = i
	if prev >= 0 && prev != i {
		s.release(prev)
	}
}

func (s *Session) deactivate() {
	if s.active < 0 {
		return
	}
	prev := s.active
	s.active = -1
	s.release(prev)
}

func (s *Session) release(i int) {
	if i >= len(s.cands) {
		return
	}
	switch c := s.cands[i].(type) {
	case *marker.Marker:
		if err := c.Refresh(); err != nil {
			s.logger.Warn("session: paint inactive", "error", err)
		}
	case *marker.FrameProxy:
		s.post(c.Window(), coord.MsgClearActive, nil)
	}
}

func (s *Session) report(ctx context.Context, rec report.Record) {
	if s.win.IsTop() {
		if s.host != nil {
			s.host.Activated(ctx, s.win.ID, rec)
		}
		return
	}
	s.post(s.win.Top, coord.MsgActivationReport, coord.Report{Record: rec, Generation: s.gen})
}

func (s *Session) onActivationReport(ctx context.Context, env coord.Envelope) {
	if !s.win.IsTop() || !s.live {
		return
	}
	var a coord.Report
	if err := env.Decode(&a); err != nil || a.Generation != s.gen {
		return
	}
	if s.host != nil {
		s.host.Activated(ctx, env.From, a.Record)
	}
}

// --- follow / clear ---

func (s *Session) onFollowActive(ctx context.Context, env coord.Envelope) {
	if s.win.IsTop() {
		s.onHost(ctx, env)
		return
	}
	if env.From != s.win.Parent {
		return
	}
	s.follow()
}

func (s *Session) follow() {
	if !s.live || s.active < 0 {
		return
	}
	switch c := s.cands[s.active].(type) {
	case *marker.Marker:
		if err := c.Activate(); err != nil {
			s.logger.Warn("session: activate failed", "error", err)
		}
	case *marker.FrameProxy:
		s.post(c.Window(), coord.MsgFollowActive, nil)
	}
}

func (s *Session) onClear(ctx context.Context, env coord.Envelope) {
	if !s.fromDriver(env) {
		return
	}
	if s.win.IsTop() {
		s.command(ctx, env)
		return
	}
	s.clear()
}

// clear tears the session down, children included. Safe on an idle session.
func (s *Session) clear() {
	for _, c := range s.cands {
		switch c := c.(type) {
		case *marker.Marker:
			if err := c.Remove(); err != nil {
				s.logger.Debug("session: remove marker", "error", err)
			}
		case *marker.FrameProxy:
			if err := c.Remove(); err != nil {
				s.logger.Debug("session: clear child", "to", c.Window(), "error", err)
			}
		}
	}
	if s.live {
		s.logger.Debug("session: cleared", "candidates", len(s.cands))
	}
	s.cands = nil
	s.active = -1
	s.pending = nil
	s.op = nil
	s.live = false
}

func (s *Session) onClearActive(_ context.Context, env coord.Envelope) {
	if s.win.IsTop() || env.From != s.win.Parent || !s.live {
		return
	}
	s.deactivate()
}
