package htmldoc

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
)

// Element is a node of a Document.
type Element struct {
	doc *Document
	n   *html.Node
}

// Info reads the element's current facts.
func (e *Element) Info() dom.Info {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.info()
}

func (e *Element) info() dom.Info {
	n := e.n
	st, rendered := computedStyle(n)
	style, _ := attr(n, "style")
	decls := declarations(style)
	bg, _ := lookup(decls, "background")
	color, _ := lookup(decls, "color")

	info := dom.Info{
		Tag:        nodeName(n),
		Text:       htmlquery.InnerText(n),
		Href:       e.href(),
		Frame:      isFrame(n),
		HasRect:    rendered,
		Style:      st,
		Background: bg,
		Color:      color,
	}
	if rendered {
		info.Rect = rect(n)
	}
	return info
}

func (e *Element) href() string {
	switch {
	case e.n.Namespace == "" && (e.n.Data == "a" || e.n.Data == "area"),
		e.n.Namespace == "svg" && e.n.Data == "a":
	default:
		return ""
	}
	ref, ok := attr(e.n, "href")
	if !ok {
		return ""
	}
	return e.doc.resolve(ref)
}

// SetColors sets the inline background and text color. Empty values remove
// the declaration.
func (e *Element) SetColors(background, color string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setDeclaration(e.n, "background", background)
	setDeclaration(e.n, "color", color)
	return nil
}

func (e *Element) Focus() error {
	return e.Dispatch("focus")
}

func (e *Element) Dispatch(event string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.doc.events = append(e.doc.events, Event{
		Type:     event,
		NodeName: nodeName(e.n),
		Text:     htmlquery.InnerText(e.n),
	})
	return nil
}

// ContentDocument loads the frame document once and keeps it.
func (e *Element) ContentDocument(ctx context.Context) (dom.Document, error) {
	d := e.doc
	d.mu.Lock()
	if child, ok := d.frames[e.n]; ok {
		d.mu.Unlock()
		return child, nil
	}
	if !isFrame(e.n) {
		d.mu.Unlock()
		return nil, ErrNotFrame
	}
	if d.depth >= d.opts.MaxDepth {
		d.mu.Unlock()
		return nil, fmt.Errorf("htmldoc: frame nesting deeper than %d", d.opts.MaxDepth)
	}
	srcdoc, hasSrcdoc := attr(e.n, "srcdoc")
	src, _ := attr(e.n, "src")
	r := rect(e.n)
	d.mu.Unlock()

	opts := Options{
		URL:      "about:blank",
		Viewport: dom.Viewport{Width: r.Right - r.Left, Height: r.Bottom - r.Top},
		Loader:   d.opts.Loader,
		MaxDepth: d.opts.MaxDepth,
		NewID:    d.opts.NewID,
	}
	var data []byte
	switch {
	case hasSrcdoc:
		data = []byte(srcdoc)
		opts.URL = "about:srcdoc"
	case strings.TrimSpace(src) != "":
		ref := d.resolve(src)
		if d.opts.Loader == nil {
			return nil, fmt.Errorf("htmldoc: no loader for frame %s", ref)
		}
		b, err := d.opts.Loader(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("htmldoc: load frame %s: %w", ref, err)
		}
		data = b
		opts.URL = ref
	}

	child, err := Parse(bytes.NewReader(data), opts)
	if err != nil {
		return nil, err
	}
	child.depth = d.depth + 1
	if hasSrcdoc {
		child.base = d.base
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.frames[e.n]; ok {
		return existing, nil
	}
	d.frames[e.n] = child
	return child, nil
}

func nodeName(n *html.Node) string {
	if n.Namespace == "" {
		return strings.ToUpper(n.Data)
	}
	return n.Data
}

func isFrame(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Namespace == "" && (n.Data == "iframe" || n.Data == "frame")
}

// rect reads data-rect="left,top,width,height". Elements without one get a
// small box in the top-left corner.
func rect(n *html.Node) dom.Rect {
	def := dom.Rect{Left: 0, Top: 0, Right: 100, Bottom: 20}
	v, ok := attr(n, "data-rect")
	if !ok {
		return def
	}
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return def
	}
	var f [4]float64
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return def
		}
		f[i] = x
	}
	return dom.Rect{Left: f[0], Top: f[1], Right: f[0] + f[2], Bottom: f[1] + f[3]}
}
