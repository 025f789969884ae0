// Package dom is the narrow view of one frame's document that the hint
// engine works against. Two backends implement it: htmldoc (parsed static
// HTML) and browser (a live page driven through go-rod).
//
// A Document is only ever touched by the actor that owns its frame.
package dom

import "context"

// Mouse events dispatched by an activation, in order.
const (
	EventMouseDown = "mousedown"
	EventClick     = "click"
	EventMouseUp   = "mouseup"
)

// XPathNamespaces maps the prefixes accepted in selectors to their URIs.
var XPathNamespaces = map[string]string{
	"xhtml": "http://www.w3.org/1999/xhtml",
	"svg":   "http://www.w3.org/2000/svg",
	"m":     "http://www.w3.org/1998/Math/MathML",
	"xul":   "http://www.mozilla.org/keymaster/gatekeeper/there.is.only.xul",
}

// Rect is a viewport-relative bounding box, as getBoundingClientRect reports it.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Viewport is the frame's visible area and scroll offset.
type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScrollX float64 `json:"scroll_x"`
	ScrollY float64 `json:"scroll_y"`
}

// Style is the subset of computed style the locator filters on.
type Style struct {
	Visibility string `json:"visibility"`
	Display    string `json:"display"`
	Opacity    string `json:"opacity"`
}

// Hidden reports whether the computed style makes the element invisible.
func (s Style) Hidden() bool {
	return s.Visibility != "visible" || s.Display == "none" || s.Opacity == "0"
}

// Info is a snapshot of the element facts the engine reads.
type Info struct {
	Tag        string `json:"tag"` // upper-case node name
	Text       string `json:"text"`
	Href       string `json:"href"` // resolved link target, "" when none
	Frame      bool   `json:"frame"`
	HasRect    bool   `json:"has_rect"`
	Rect       Rect   `json:"rect"`
	Style      Style  `json:"style"`
	Background string `json:"background"` // inline style, restored on teardown
	Color      string `json:"color"`
}

// Element is one node returned by a selector query.
type Element interface {
	Info() Info
	SetColors(background, color string) error
	Focus() error
	Dispatch(event string) error
	// ContentDocument returns the document of a frame-hosting element.
	ContentDocument(ctx context.Context) (Document, error)
}

// OverlayStyle colors the label box drawn next to an element.
type OverlayStyle struct {
	Background string
	Color      string
}

// Overlay is the label box of one marker.
type Overlay interface {
	SetLabel(label int) error
	SetVisible(visible bool) error
	Remove() error
}

// Document is one frame's document.
type Document interface {
	// ID is stable for the lifetime of the frame and unique within a page.
	ID() string
	URL() string
	Viewport(ctx context.Context) (Viewport, error)
	// Query evaluates an XPath selector and returns element matches in
	// document order.
	Query(ctx context.Context, selector string) ([]Element, error)
	// AddOverlay draws a label box at page coordinates.
	AddOverlay(ctx context.Context, label int, style OverlayStyle, left, top float64) (Overlay, error)
}
