package session

import (
	"context"
	"regexp"
	"strings"

	"github.com/hazyhaar/hintnav/hintnav/internal/coord"
	"github.com/hazyhaar/hintnav/hintnav/internal/marker"
)

// Matcher compiles filter text into a predicate. Empty text matches
// everything; otherwise every whitespace-separated part must appear, in
// order, case-insensitively. Empty strings only match empty text.
func Matcher(text string) func(string) bool {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return func(string) bool { return true }
	}
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re := regexp.MustCompile("(?is)" + strings.Join(parts, ".*"))
	return func(s string) bool {
		return s != "" && re.MatchString(s)
	}
}

func (s *Session) onFilter(ctx context.Context, env coord.Envelope) {
	if s.win.IsTop() {
		s.onHost(ctx, env)
		return
	}
	if env.From != s.win.Parent || !s.live {
		return
	}
	var a coord.FilterArgs
	if err := env.Decode(&a); err != nil {
		return
	}
	s.filter(ctx, a.Text, a.LabelOffset)
}

// filter shows and renumbers the markers matching text from offset+1 and
// hides the rest, recursing into every child frame in order.
func (s *Session) filter(ctx context.Context, text string, offset int) {
	s.op = &operation{kind: opFilter, text: text, match: Matcher(text), counter: offset}
	s.scanFilter(ctx)
}

func (s *Session) scanFilter(ctx context.Context) {
	op := s.op
	for op.index < len(s.cands) {
		i := op.index
		op.index++
		switch c := s.cands[i].(type) {
		case *marker.Marker:
			if op.match(c.Text()) {
				op.counter++
				renumbered := c.Label() != op.counter
				s.paint(c.SetLabel(op.counter))
				s.paint(c.SetVisible(true))
				// The host holds the old label of a surviving active marker.
				if renumbered && s.active == i {
					s.report(ctx, c.Serialize())
				}
				continue
			}
			if s.active == i {
				s.active = -1
				op.lost = true
			}
			s.paint(c.SetLabel(0))
			s.paint(c.SetVisible(false))
		case *marker.FrameProxy:
			c.SetRange(op.counter+1, op.counter)
			s.delegate(c, coord.MsgFilter, coord.FilterArgs{
				Text:        op.text,
				LabelOffset: op.counter,
				Generation:  s.gen,
			})
			return
		}
	}

	s.op = nil
	if !s.win.IsTop() {
		s.post(s.win.Parent, coord.MsgFilterCompleted, coord.FilterCompleted{
			LabelOffset: op.counter,
			ActiveLost:  op.lost,
			Generation:  s.gen,
		})
		return
	}
	s.logger.Debug("session: filtered", "text", op.text, "visible", op.counter)
	if s.active < 0 {
		s.activateAdjacent(ctx, 1, true)
		return
	}
	s.drain(ctx)
}

func (s *Session) onFilterCompleted(ctx context.Context, env coord.Envelope) {
	var a coord.FilterCompleted
	if err := env.Decode(&a); err != nil {
		return
	}
	p := s.awaiting(env, opFilter, a.Generation)
	if p == nil {
		return
	}
	s.pending = nil
	first, _ := p.Range()
	p.SetRange(first, a.LabelOffset)
	s.op.counter = a.LabelOffset
	if a.ActiveLost && s.active == s.indexOf(p) {
		s.active = -1
		s.op.lost = true
	}
	s.scanFilter(ctx)
}

func (s *Session) paint(err error) {
	if err != nil {
		s.logger.Warn("session: repaint", "error", err)
	}
}
