package session

import (
	"context"

	"github.com/hazyhaar/hintnav/hintnav/internal/coord"
	"github.com/hazyhaar/hintnav/hintnav/internal/locator"
	"github.com/hazyhaar/hintnav/hintnav/internal/marker"
)

func (s *Session) onStartInSubframe(ctx context.Context, env coord.Envelope) {
	if s.win.IsTop() || env.From != s.win.Parent {
		return
	}
	var a coord.StartArgs
	if err := env.Decode(&a); err != nil {
		s.logger.Warn("session: bad start", "error", err)
		return
	}
	s.gen = a.Generation
	s.start(ctx, a.Selector, a.LabelOffset)
}

// start discovers the frame's candidates, numbering markers from
// offset+1. Frames are entered one at a time: numbering resumes only once
// the child reported the last label it used.
func (s *Session) start(ctx context.Context, selector string, offset int) {
	s.clear()
	s.live = true
	s.selector = selector

	res, err := s.locator.Locate(ctx, s.win.Doc, selector)
	if err != nil {
		s.logger.Warn("session: locate failed", "url", s.win.Doc.URL(), "error", err)
	}
	s.op = &operation{kind: opStart, found: res.Items, vp: res.Viewport, counter: offset}
	s.discover(ctx)
}

func (s *Session) discover(ctx context.Context) {
	op := s.op
	for op.index < len(op.found) {
		loc := op.found[op.index]
		op.index++
		if loc.Frame {
			if s.descend(ctx, loc) {
				return
			}
			continue
		}
		m, err := marker.New(ctx, s.win.Doc, loc, op.vp, op.counter+1, s.style, s)
		if err != nil {
			s.logger.Warn("session: marker", "tag", loc.Info.Tag, "error", err)
			continue
		}
		op.counter++
		s.cands = append(s.cands, m)
	}

	s.op = nil
	s.logger.Debug("session: discovery done", "candidates", len(s.cands), "last_label", op.counter)
	if !s.win.IsTop() {
		s.post(s.win.Parent, coord.MsgStartCompleted, coord.StartCompleted{
			LabelOffset: op.counter,
			Empty:       len(s.cands) == 0,
			Generation:  s.gen,
		})
		return
	}
	s.activateAdjacent(ctx, 1, true)
}

// descend hands discovery to the frame hosted by loc. It reports false when
// the frame cannot be entered, in which case discovery goes on locally.
func (s *Session) descend(ctx context.Context, loc locator.Located) bool {
	doc, err := loc.Element.ContentDocument(ctx)
	if err != nil || doc == nil {
		s.logger.Debug("session: frame not reachable", "error", err)
		return false
	}
	child, err := s.win.Attach(doc)
	if err != nil {
		s.logger.Warn("session: attach frame", "url", doc.URL(), "error", err)
		return false
	}
	p := marker.NewFrameProxy(s.win, child.ID)
	p.SetRange(s.op.counter+1, s.op.counter)
	s.cands = append(s.cands, p)
	s.delegate(p, coord.MsgStartInSubframe, coord.StartArgs{
		Selector:    s.selector,
		LabelOffset: s.op.counter,
		Generation:  s.gen,
	})
	return true
}

func (s *Session) onStartCompleted(ctx context.Context, env coord.Envelope) {
	var a coord.StartCompleted
	if err := env.Decode(&a); err != nil {
		return
	}
	p := s.awaiting(env, opStart, a.Generation)
	if p == nil {
		return
	}
	s.pending = nil
	if a.Empty {
		if i := s.indexOf(p); i >= 0 {
			s.cands = append(s.cands[:i], s.cands[i+1:]...)
		}
		if err := p.Remove(); err != nil {
			s.logger.Debug("session: clear empty frame", "error", err)
		}
	} else {
		first, _ := p.Range()
		p.SetRange(first, a.LabelOffset)
		s.op.counter = a.LabelOffset
	}
	s.discover(ctx)
}
