package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
)

// Document is a page or frame of a live tab.
type Document struct {
	page *rod.Page
	id   string
	url  string
}

// NewDocument wraps a rod page. For frames, pass the page returned by
// Element.Frame.
func NewDocument(ctx context.Context, page *rod.Page) (*Document, error) {
	res, err := page.Context(ctx).Eval(locationJS)
	if err != nil {
		return nil, fmt.Errorf("browser: location: %w", err)
	}
	id := string(page.TargetID)
	if page.FrameID != "" {
		id += "/" + string(page.FrameID)
	}
	return &Document{page: page, id: id, url: res.Value.Str()}, nil
}

func (d *Document) ID() string  { return d.id }
func (d *Document) URL() string { return d.url }

func (d *Document) Viewport(ctx context.Context) (dom.Viewport, error) {
	var vp dom.Viewport
	res, err := d.page.Context(ctx).Eval(viewportJS)
	if err != nil {
		return vp, fmt.Errorf("browser: viewport: %w", err)
	}
	err = decode(res.Value, &vp)
	return vp, err
}

func (d *Document) Query(ctx context.Context, selector string) ([]dom.Element, error) {
	els, err := d.page.Context(ctx).ElementsByJS(rod.Eval(queryJS, selector, dom.XPathNamespaces))
	if err != nil {
		return nil, fmt.Errorf("browser: xpath %q: %w", selector, err)
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		res, err := el.Eval(infoJS)
		if err != nil {
			continue
		}
		e := &Element{el: el}
		if err := decode(res.Value, &e.info); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *Document) AddOverlay(ctx context.Context, label int, style dom.OverlayStyle, left, top float64) (dom.Overlay, error) {
	el, err := d.page.Context(ctx).ElementByJS(rod.Eval(overlayJS, label, style.Background, style.Color, left, top))
	if err != nil {
		return nil, fmt.Errorf("browser: overlay: %w", err)
	}
	return &Overlay{el: el}, nil
}

// Element is an element of a live frame. Its Info is captured when the
// query ran.
type Element struct {
	el   *rod.Element
	info dom.Info
}

func (e *Element) Info() dom.Info { return e.info }

func (e *Element) SetColors(background, color string) error {
	_, err := e.el.Eval(colorsJS, background, color)
	return err
}

func (e *Element) Focus() error {
	return e.el.Focus()
}

func (e *Element) Dispatch(event string) error {
	_, err := e.el.Eval(dispatchJS, event)
	return err
}

func (e *Element) ContentDocument(ctx context.Context) (dom.Document, error) {
	if !e.info.Frame {
		return nil, fmt.Errorf("browser: %s is not a frame", e.info.Tag)
	}
	fp, err := e.el.Frame()
	if err != nil {
		return nil, fmt.Errorf("browser: frame: %w", err)
	}
	return NewDocument(ctx, fp)
}

// Overlay is a label box injected into a live frame.
type Overlay struct {
	el *rod.Element
}

func (o *Overlay) SetLabel(label int) error {
	_, err := o.el.Eval(overlayLabelJS, label)
	return err
}

func (o *Overlay) SetVisible(visible bool) error {
	_, err := o.el.Eval(overlayVisibleJS, visible)
	return err
}

func (o *Overlay) Remove() error {
	_, err := o.el.Eval(removeJS)
	return err
}

// decode converts a remote value into v through its JSON form.
func decode(value any, v any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("browser: encode remote value: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("browser: decode remote value: %w", err)
	}
	return nil
}
