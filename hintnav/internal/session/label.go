package session

import (
	"context"

	"github.com/hazyhaar/hintnav/hintnav/internal/coord"
	"github.com/hazyhaar/hintnav/hintnav/internal/marker"
)

func (s *Session) onActivateByLabel(ctx context.Context, env coord.Envelope) {
	if s.win.IsTop() {
		s.onHost(ctx, env)
		return
	}
	if env.From != s.win.Parent || !s.live {
		return
	}
	var a coord.LabelArgs
	if err := env.Decode(&a); err != nil {
		return
	}
	s.activateByLabel(ctx, a.Label)
}

// activateByLabel activates the visible marker labelled n, wherever it
// lives. An unknown label leaves the current selection alone.
func (s *Session) activateByLabel(ctx context.Context, n int) {
	s.op = &operation{kind: opLabel, label: n}
	for i, c := range s.cands {
		switch c := c.(type) {
		case *marker.Marker:
			if c.Visible() && c.Label() == n {
				s.activate(ctx, i)
				s.finishLabel(ctx, true)
				return
			}
		case *marker.FrameProxy:
			if c.Covers(n) {
				s.op.index = i
				s.delegate(c, coord.MsgActivateByLabel, coord.LabelArgs{Label: n, Generation: s.gen})
				return
			}
		}
	}
	s.finishLabel(ctx, false)
}

func (s *Session) onLabelResult(ctx context.Context, env coord.Envelope) {
	var a coord.Result
	if err := env.Decode(&a); err != nil {
		return
	}
	p := s.awaiting(env, opLabel, a.Generation)
	if p == nil {
		return
	}
	s.pending = nil
	if a.Found {
		s.setActive(s.indexOf(p))
	}
	s.finishLabel(ctx, a.Found)
}

func (s *Session) finishLabel(ctx context.Context, found bool) {
	label := s.op.label
	s.op = nil
	if !s.win.IsTop() {
		s.post(s.win.Parent, coord.MsgLabelResult, coord.Result{Found: found, Generation: s.gen})
		return
	}
	if !found {
		s.logger.Debug("session: no hint with label", "label", label)
	}
	s.drain(ctx)
}
