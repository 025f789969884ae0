package marker

import (
	"github.com/hazyhaar/hintnav/hintnav/internal/coord"
)

// Poster sends a message to another window. *coord.Window implements it.
type Poster interface {
	Post(to coord.WindowID, name string, payload any) error
}

// FrameProxy stands for a child frame in its parent's candidate list. It
// only knows the child's address and the label range the child used on the
// last numbering pass.
type FrameProxy struct {
	poster Poster
	window coord.WindowID
	first  int
	last   int
}

func (*FrameProxy) candidate() {}

// NewFrameProxy creates a proxy with an empty label range.
func NewFrameProxy(p Poster, window coord.WindowID) *FrameProxy {
	return &FrameProxy{poster: p, window: window, first: 1, last: 0}
}

// Window is the child's address.
func (p *FrameProxy) Window() coord.WindowID { return p.window }

// SetRange records the labels the child covers. last < first is empty.
func (p *FrameProxy) SetRange(first, last int) {
	p.first, p.last = first, last
}

// Range returns the covered labels.
func (p *FrameProxy) Range() (first, last int) { return p.first, p.last }

// Covers reports whether label n was handed out inside the child.
func (p *FrameProxy) Covers(n int) bool { return n >= p.first && n <= p.last }

// Delegate forwards a message to the child. It does not wait.
func (p *FrameProxy) Delegate(name string, payload any) error {
	return p.poster.Post(p.window, name, payload)
}

// Remove tears the child's session down.
func (p *FrameProxy) Remove() error {
	return p.Delegate(coord.MsgClear, nil)
}
