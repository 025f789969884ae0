// Package prompt turns key presses into hint-mode commands, the way a
// minibuffer prompt drives hint selection: typed text filters, digits pick a
// label, and Return accepts the active element.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/hintnav/hintnav/internal/locator"
	"github.com/hazyhaar/hintnav/hintnav/report"
)

// ErrClosed is returned by Key once the prompt was accepted or canceled.
var ErrClosed = errors.New("prompt: closed")

// Navigator is the hint-mode surface the prompt drives. Each call returns
// once the command has been fully processed across frames.
type Navigator interface {
	Start(ctx context.Context, selector string) error
	Filter(ctx context.Context, text string) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Select(ctx context.Context, label int) error
	Follow(ctx context.Context) error
	Clear(ctx context.Context) error
	Active() (report.Activation, bool)
	PageURL() string
}

// Mode selects what accepting the prompt does.
type Mode int

const (
	// Follow clicks the active element.
	Follow Mode = iota
	// FollowNewBuffer returns the active link URL instead of clicking it.
	FollowNewBuffer
	// CopyLink returns the active link URL; label 0 stands for the page.
	CopyLink
)

func (m Mode) label() string {
	switch m {
	case FollowNewBuffer:
		return "follow in new buffer:"
	case CopyLink:
		return "copy link:"
	}
	return "follow:"
}

func (m Mode) selector() string {
	if m == Follow {
		return locator.Clickable
	}
	return locator.Link + " | " + locator.Frames
}

// Key is one key press. Name carries named keys and chords ("Return",
// "C-n", "Down"); Text carries the printable character, if any.
type Key struct {
	Name string
	Text string
}

var modifiers = map[string]bool{
	"Control": true,
	"Shift":   true,
	"Alt":     true,
	"Meta":    true,
}

// Result is what a prompt produced when it closed.
type Result struct {
	Accepted bool
	Record   *report.Record
	URL      string
}

// Prompt is one interactive hint selection. Not safe for concurrent use.
type Prompt struct {
	nav      Navigator
	mode     Mode
	selector string
	numbers  string
	text     string
	closed   bool
}

// Option configures a Prompt.
type Option func(*Prompt)

// WithSelector overrides the mode's selector (preset name or XPath).
func WithSelector(sel string) Option {
	return func(p *Prompt) {
		if sel != "" {
			p.selector = locator.Resolve(sel)
		}
	}
}

// Open starts hint mode on nav and returns the prompt driving it.
func Open(ctx context.Context, nav Navigator, mode Mode, opts ...Option) (*Prompt, error) {
	p := &Prompt{nav: nav, mode: mode, selector: mode.selector()}
	for _, o := range opts {
		o(p)
	}
	if err := nav.Start(ctx, p.selector); err != nil {
		return nil, err
	}
	return p, nil
}

// Label is the prompt label, with the typed number when there is one.
func (p *Prompt) Label() string {
	if p.numbers == "" {
		return p.mode.label()
	}
	return p.mode.label() + " #" + p.numbers
}

// Text is the current filter text.
func (p *Prompt) Text() string { return p.text }

// Info is the URL accepting would act on, as shown next to the input.
func (p *Prompt) Info() string {
	if p.mode == CopyLink && p.numbers == "0" {
		return p.nav.PageURL()
	}
	if act, ok := p.nav.Active(); ok {
		return act.Record.URL
	}
	return ""
}

// Closed reports whether the prompt was accepted or canceled.
func (p *Prompt) Closed() bool { return p.closed }

// SetText replaces the filter text.
func (p *Prompt) SetText(ctx context.Context, text string) error {
	if p.closed {
		return ErrClosed
	}
	p.numbers = ""
	if text == p.text {
		return nil
	}
	p.text = text
	return p.nav.Filter(ctx, text)
}

// Key handles one key press. The returned Result is only meaningful once
// Closed reports true.
func (p *Prompt) Key(ctx context.Context, k Key) (Result, error) {
	if p.closed {
		return Result{}, ErrClosed
	}
	if len(k.Text) == 1 && k.Text[0] >= '0' && k.Text[0] <= '9' {
		p.numbers += k.Text
		return Result{}, p.selectNumber(ctx)
	}
	if k.Name != "Return" && !modifiers[k.Name] && (k.Name != "" || k.Text != "") {
		p.numbers = ""
	}

	switch k.Name {
	case "C-n", "Down":
		return Result{}, p.nav.Next(ctx)
	case "C-p", "Up":
		return Result{}, p.nav.Previous(ctx)
	case "C-g", "Esc":
		return Result{}, p.Cancel(ctx)
	case "Return":
		return p.Accept(ctx)
	case "Backspace":
		if p.text == "" {
			return Result{}, nil
		}
		r := []rune(p.text)
		p.text = string(r[:len(r)-1])
		return Result{}, p.nav.Filter(ctx, p.text)
	}
	if k.Text != "" && !strings.HasPrefix(k.Name, "C-") && !strings.HasPrefix(k.Name, "M-") {
		p.text += k.Text
		return Result{}, p.nav.Filter(ctx, p.text)
	}
	return Result{}, nil
}

// Number replaces the typed number with digits and selects that label, as
// if digits were typed right after a non-digit key.
func (p *Prompt) Number(ctx context.Context, digits string) error {
	if p.closed {
		return ErrClosed
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return fmt.Errorf("prompt: %q is not a number", digits)
		}
	}
	p.numbers = digits
	return p.selectNumber(ctx)
}

func (p *Prompt) selectNumber(ctx context.Context) error {
	n := 0
	for _, c := range p.numbers {
		n = n*10 + int(c-'0')
	}
	if n == 0 {
		return nil
	}
	return p.nav.Select(ctx, n)
}

// Cancel leaves hint mode without acting.
func (p *Prompt) Cancel(ctx context.Context) error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.nav.Clear(ctx)
}

// Accept acts on the active element according to the mode and leaves hint
// mode.
func (p *Prompt) Accept(ctx context.Context) (Result, error) {
	if p.closed {
		return Result{}, ErrClosed
	}
	res := Result{Accepted: true}
	if act, ok := p.nav.Active(); ok {
		rec := act.Record
		res.Record = &rec
		res.URL = rec.URL
	}
	var err error
	switch p.mode {
	case Follow:
		if res.Record != nil {
			err = p.nav.Follow(ctx)
		}
	case CopyLink:
		if p.numbers == "0" {
			res.URL = p.nav.PageURL()
			res.Record = nil
		}
	}
	p.closed = true
	return res, errors.Join(err, p.nav.Clear(ctx))
}
