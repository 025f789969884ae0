// Package htmldoc is a dom.Document over parsed HTML. It has no layout
// engine: geometry comes from a data-rect="left,top,width,height"
// attribute, computed style from inline style declarations and the hidden
// attribute. Frames are loaded from srcdoc or through a Loader.
//
// It backs the CLI's -file mode and every multi-frame test.
package htmldoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
)

// ErrNotFrame is returned by ContentDocument on elements that host no frame.
var ErrNotFrame = errors.New("htmldoc: not a frame element")

// Options configures a Document.
type Options struct {
	URL      string
	Viewport dom.Viewport // zero means 1280x800
	Loader   Loader       // resolves frame src; nil leaves src frames unreachable
	MaxDepth int          // frame nesting limit, default 8
	NewID    func() string
}

func (o *Options) defaults() {
	if o.Viewport.Width == 0 && o.Viewport.Height == 0 {
		o.Viewport.Width, o.Viewport.Height = 1280, 800
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = 8
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.URL == "" {
		o.URL = "about:blank"
	}
}

// Event is a focus or mouse event received by an element.
type Event struct {
	Type     string
	NodeName string
	Text     string
}

// Document is one parsed frame document.
type Document struct {
	mu       sync.Mutex
	id       string
	url      string
	base     *url.URL
	root     *html.Node
	opts     Options
	depth    int
	frames   map[*html.Node]*Document
	overlays []*Overlay
	events   []Event
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts Options) (*Document, error) {
	opts.defaults()
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: url %q: %w", opts.URL, err)
	}
	return &Document{
		id:     opts.NewID(),
		url:    opts.URL,
		base:   base,
		root:   root,
		opts:   opts,
		frames: make(map[*html.Node]*Document),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts Options) (*Document, error) {
	return Parse(strings.NewReader(s), opts)
}

// Open parses a file. Frames with a relative src are read from the same
// directory unless opts carries another Loader.
func Open(path string, opts Options) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: read %s: %w", path, err)
	}
	if opts.URL == "" {
		opts.URL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	if opts.Loader == nil {
		opts.Loader = FileLoader()
	}
	return Parse(bytes.NewReader(data), opts)
}

func (d *Document) ID() string  { return d.id }
func (d *Document) URL() string { return d.url }

func (d *Document) Viewport(context.Context) (dom.Viewport, error) {
	return d.opts.Viewport, nil
}

var nsPrefix = regexp.MustCompile(`\b(xhtml|svg|m|xul):`)

// Query evaluates an XPath selector. Parsed HTML carries no namespace
// prefixes, so a selector the engine rejects is retried with prefixes
// stripped.
func (d *Document) Query(_ context.Context, selector string) ([]dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nodes, err := htmlquery.QueryAll(d.root, selector)
	if err != nil {
		var retryErr error
		nodes, retryErr = htmlquery.QueryAll(d.root, nsPrefix.ReplaceAllString(selector, ""))
		if retryErr != nil {
			return nil, fmt.Errorf("htmldoc: xpath %q: %w", selector, err)
		}
	}

	order := make(map[*html.Node]int)
	walk(d.root, func(n *html.Node) { order[n] = len(order) })

	seen := make(map[*html.Node]bool, len(nodes))
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode || seen[n] || isOverlay(n) {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })

	els := make([]dom.Element, len(out))
	for i, n := range out {
		els[i] = &Element{doc: d, n: n}
	}
	return els, nil
}

// Find returns the elements matching selector as concrete *Element values.
func (d *Document) Find(selector string) ([]*Element, error) {
	els, err := d.Query(context.Background(), selector)
	if err != nil {
		return nil, err
	}
	out := make([]*Element, len(els))
	for i, el := range els {
		out[i] = el.(*Element)
	}
	return out, nil
}

// Events returns the events dispatched so far, oldest first.
func (d *Document) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// Render writes the current state of the document, overlays included.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

func (d *Document) resolve(ref string) string {
	u, err := d.base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return u.String()
}

func (d *Document) documentElement() *html.Node {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return d.root
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
