package htmldoc

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
)

const overlayAttr = "data-hint-overlay"

// Overlay is a label box appended to the document element.
type Overlay struct {
	doc     *Document
	n       *html.Node
	style   dom.OverlayStyle
	label   int
	visible bool
	left    float64
	top     float64
	removed bool
}

// OverlayState is a read-only view of an overlay.
type OverlayState struct {
	Label   int
	Visible bool
	Left    float64
	Top     float64
}

func (d *Document) AddOverlay(_ context.Context, label int, style dom.OverlayStyle, left, top float64) (dom.Overlay, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	o := &Overlay{
		doc:     d,
		style:   style,
		label:   label,
		visible: true,
		left:    left,
		top:     top,
	}
	o.n = &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr:     []html.Attribute{{Key: overlayAttr}},
	}
	o.n.AppendChild(&html.Node{Type: html.TextNode, Data: strconv.Itoa(label)})
	o.paint()
	d.documentElement().AppendChild(o.n)
	d.overlays = append(d.overlays, o)
	return o, nil
}

// Overlays returns the overlays currently attached, in creation order.
func (d *Document) Overlays() []OverlayState {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]OverlayState, 0, len(d.overlays))
	for _, o := range d.overlays {
		if o.removed {
			continue
		}
		out = append(out, OverlayState{Label: o.label, Visible: o.visible, Left: o.left, Top: o.top})
	}
	return out
}

func (o *Overlay) paint() {
	display := "initial"
	if !o.visible {
		display = "none"
	}
	setAttr(o.n, "style", fmt.Sprintf(
		"background: %s; color: %s; position: absolute; z-index: 2147483647; left: %gpx; top: %gpx; display: %s",
		o.style.Background, o.style.Color, o.left, o.top, display))
}

func (o *Overlay) SetLabel(label int) error {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	o.label = label
	if o.n.FirstChild != nil {
		o.n.FirstChild.Data = strconv.Itoa(label)
	}
	return nil
}

func (o *Overlay) SetVisible(visible bool) error {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	o.visible = visible
	o.paint()
	return nil
}

func (o *Overlay) Remove() error {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	if o.removed {
		return nil
	}
	o.removed = true
	if o.n.Parent != nil {
		o.n.Parent.RemoveChild(o.n)
	}
	return nil
}

func isOverlay(n *html.Node) bool {
	_, ok := attr(n, overlayAttr)
	return ok
}
