// Package marker holds the two kinds of hint candidates a session orders:
// Marker, an element in the session's own frame, and FrameProxy, the
// address of a child frame that has candidates of its own.
package marker

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
	"github.com/hazyhaar/hintnav/hintnav/internal/locator"
	"github.com/hazyhaar/hintnav/hintnav/report"
)

// Candidate is either a *Marker or a *FrameProxy.
type Candidate interface {
	candidate()
}

// Style holds the colors painted on hinted elements and their label boxes.
type Style struct {
	HintBackground   string
	HintColor        string
	Background       string
	BackgroundActive string
	TextColor        string
}

// DefaultStyle returns the stock hint colors.
func DefaultStyle() Style {
	return Style{
		HintBackground:   "red",
		HintColor:        "white",
		Background:       "yellow",
		BackgroundActive: "#88FF00",
		TextColor:        "black",
	}
}

// Owner tells a marker whether it is the active candidate of its session.
type Owner interface {
	IsActive(m *Marker) bool
}

// Marker is one hinted element.
type Marker struct {
	el      dom.Element
	info    dom.Info
	overlay dom.Overlay
	style   Style
	owner   Owner
	label   int
	visible bool
	removed bool
}

func (*Marker) candidate() {}

// New paints the element as a visible, inactive hint and draws its label at
// the page-relative top-left corner of the element.
func New(ctx context.Context, doc dom.Document, loc locator.Located, vp dom.Viewport, label int, style Style, owner Owner) (*Marker, error) {
	left := loc.Info.Rect.Left + vp.ScrollX
	top := loc.Info.Rect.Top + vp.ScrollY
	ov, err := doc.AddOverlay(ctx, label, dom.OverlayStyle{Background: style.HintBackground, Color: style.HintColor}, left, top)
	if err != nil {
		return nil, fmt.Errorf("marker: overlay: %w", err)
	}
	m := &Marker{
		el:      loc.Element,
		info:    loc.Info,
		overlay: ov,
		style:   style,
		owner:   owner,
		label:   label,
		visible: true,
	}
	if err := m.Refresh(); err != nil {
		ov.Remove()
		return nil, err
	}
	return m, nil
}

// Label is the current label, 0 while hidden by a filter.
func (m *Marker) Label() int { return m.label }

// Visible reports whether the marker survived the last filter.
func (m *Marker) Visible() bool { return m.visible }

// Text is the element's text content, "" when it has none.
func (m *Marker) Text() string { return m.info.Text }

// URL is the element's resolved link target, "" when it has none.
func (m *Marker) URL() string { return m.info.Href }

// SetLabel renumbers the overlay.
func (m *Marker) SetLabel(label int) error {
	m.label = label
	if m.removed || label <= 0 {
		return nil
	}
	if err := m.overlay.SetLabel(label); err != nil {
		return fmt.Errorf("marker: label: %w", err)
	}
	return nil
}

// SetVisible shows or hides the overlay and repaints the element.
func (m *Marker) SetVisible(visible bool) error {
	m.visible = visible
	if m.removed {
		return nil
	}
	if err := m.overlay.SetVisible(visible); err != nil {
		return fmt.Errorf("marker: visibility: %w", err)
	}
	return m.Refresh()
}

// Refresh paints the colors matching the (visible, active) pair. Hidden
// markers get the element's own colors back.
func (m *Marker) Refresh() error {
	if m.removed {
		return nil
	}
	var err error
	switch {
	case !m.visible:
		err = m.el.SetColors(m.info.Background, m.info.Color)
	case m.owner != nil && m.owner.IsActive(m):
		err = m.el.SetColors(m.style.BackgroundActive, m.style.TextColor)
	default:
		err = m.el.SetColors(m.style.Background, m.style.TextColor)
	}
	if err != nil {
		return fmt.Errorf("marker: paint: %w", err)
	}
	return nil
}

// Activate focuses the element and sends it a full click.
func (m *Marker) Activate() error {
	if err := m.el.Focus(); err != nil {
		return fmt.Errorf("marker: focus: %w", err)
	}
	for _, ev := range []string{dom.EventMouseDown, dom.EventClick, dom.EventMouseUp} {
		if err := m.el.Dispatch(ev); err != nil {
			return fmt.Errorf("marker: %s: %w", ev, err)
		}
	}
	return nil
}

// Serialize builds the record reported to the host.
func (m *Marker) Serialize() report.Record {
	return report.Record{
		NodeName: m.info.Tag,
		Text:     m.info.Text,
		ID:       strconv.Itoa(m.label),
		URL:      m.info.Href,
	}
}

// Remove restores the element and drops the overlay. Calling it again is a
// no-op.
func (m *Marker) Remove() error {
	if m.removed {
		return nil
	}
	m.removed = true
	return errors.Join(
		m.el.SetColors(m.info.Background, m.info.Color),
		m.overlay.Remove(),
	)
}
