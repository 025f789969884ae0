package session

import (
	"context"

	"github.com/hazyhaar/hintnav/hintnav/internal/coord"
	"github.com/hazyhaar/hintnav/hintnav/internal/marker"
)

func (s *Session) onActivateAdjacent(ctx context.Context, env coord.Envelope) {
	if s.win.IsTop() {
		s.onHost(ctx, env)
		return
	}
	if env.From != s.win.Parent || !s.live {
		return
	}
	var a coord.AdjacentArgs
	if err := env.Decode(&a); err != nil {
		return
	}
	s.activateAdjacent(ctx, a.Direction, a.FromBoundary)
}

func (s *Session) boundary(dir int) int {
	if dir > 0 {
		return 0
	}
	return len(s.cands) - 1
}

// activateAdjacent moves the selection one visible marker in direction dir,
// across frames. Only the top window wraps around, and at most once.
func (s *Session) activateAdjacent(ctx context.Context, dir int, fromBoundary bool) {
	if dir >= 0 {
		dir = 1
	} else {
		dir = -1
	}
	op := &operation{kind: opAdjacent, dir: dir}
	s.op = op

	if fromBoundary || s.active < 0 {
		s.deactivate()
		op.index = s.boundary(dir)
		op.wrapped = true
		s.scanAdjacent(ctx)
		return
	}

	switch c := s.cands[s.active].(type) {
	case *marker.FrameProxy:
		op.index = s.active
		s.delegate(c, coord.MsgActivateAdjacent, coord.AdjacentArgs{Direction: dir, Generation: s.gen})
	case *marker.Marker:
		op.index = s.active + dir
		s.deactivate()
		s.scanAdjacent(ctx)
	}
}

func (s *Session) scanAdjacent(ctx context.Context) {
	op := s.op
	for {
		for op.index >= 0 && op.index < len(s.cands) {
			i := op.index
			switch c := s.cands[i].(type) {
			case *marker.Marker:
				op.index += op.dir
				if !c.Visible() {
					continue
				}
				s.activate(ctx, i)
				s.finishAdjacent(ctx, true)
				return
			case *marker.FrameProxy:
				s.delegate(c, coord.MsgActivateAdjacent, coord.AdjacentArgs{
					Direction:    op.dir,
					FromBoundary: true,
					Generation:   s.gen,
				})
				return
			}
		}
		if !s.win.IsTop() || op.wrapped || len(s.cands) == 0 {
			break
		}
		op.wrapped = true
		op.index = s.boundary(op.dir)
	}
	s.finishAdjacent(ctx, false)
}

func (s *Session) onActivateResult(ctx context.Context, env coord.Envelope) {
	var a coord.Result
	if err := env.Decode(&a); err != nil {
		return
	}
	p := s.awaiting(env, opAdjacent, a.Generation)
	if p == nil {
		return
	}
	s.pending = nil
	i := s.indexOf(p)
	if a.Found {
		s.setActive(i)
		s.finishAdjacent(ctx, true)
		return
	}
	if s.active == i {
		s.active = -1
	}
	s.op.index = i + s.op.dir
	s.scanAdjacent(ctx)
}

func (s *Session) finishAdjacent(ctx context.Context, found bool) {
	s.op = nil
	if !s.win.IsTop() {
		s.post(s.win.Parent, coord.MsgActivateResult, coord.Result{Found: found, Generation: s.gen})
		return
	}
	if !found {
		s.logger.Debug("session: no activation possible")
	}
	s.drain(ctx)
}
