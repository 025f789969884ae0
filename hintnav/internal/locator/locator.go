// Package locator turns a selector into the elements of one frame that can
// carry a hint: matched, laid out, inside the viewport and not hidden by
// computed style. Frame-hosting elements pass through flagged so the
// session can descend into them.
package locator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
)

// Located is one element that survived filtering.
type Located struct {
	Element dom.Element
	Info    dom.Info
	Frame   bool
}

// Result is the output of one Locate call.
type Result struct {
	Items    []Located
	Viewport dom.Viewport
}

// Locator filters selector matches.
type Locator struct {
	logger *slog.Logger
}

// New creates a Locator. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{logger: logger}
}

// Locate runs selector against doc and keeps the visible matches in
// document order. Zero matches is not an error.
func (l *Locator) Locate(ctx context.Context, doc dom.Document, selector string) (Result, error) {
	vp, err := doc.Viewport(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("locator: viewport: %w", err)
	}
	els, err := doc.Query(ctx, selector)
	if err != nil {
		return Result{}, fmt.Errorf("locator: query: %w", err)
	}

	res := Result{Viewport: vp}
	for _, el := range els {
		info := el.Info()
		if !Visible(info, vp) {
			continue
		}
		res.Items = append(res.Items, Located{Element: el, Info: info, Frame: info.Frame})
	}
	l.logger.Debug("locator: located", "url", doc.URL(), "matches", len(els), "visible", len(res.Items))
	return res, nil
}

// Visible applies the viewport and computed style checks to one element.
func Visible(info dom.Info, vp dom.Viewport) bool {
	if !info.HasRect {
		return false
	}
	r := info.Rect
	if r.Top > vp.Height || r.Bottom < 0 || r.Left > vp.Width || r.Right < 0 {
		return false
	}
	return !info.Style.Hidden()
}
