package marker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hazyhaar/hintnav/hintnav/internal/coord"
	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
	"github.com/hazyhaar/hintnav/hintnav/internal/locator"
)

type fakeEl struct {
	bg, color string
	events    []string
}

func (e *fakeEl) Info() dom.Info { return dom.Info{} }
func (e *fakeEl) SetColors(bg, color string) error {
	e.bg, e.color = bg, color
	return nil
}
func (e *fakeEl) Focus() error                                          { e.events = append(e.events, "focus"); return nil }
func (e *fakeEl) Dispatch(ev string) error                              { e.events = append(e.events, ev); return nil }
func (e *fakeEl) ContentDocument(context.Context) (dom.Document, error) { return nil, nil }

type fakeOverlay struct {
	label   int
	visible bool
	left    float64
	top     float64
	removed int
}

func (o *fakeOverlay) SetLabel(n int) error    { o.label = n; return nil }
func (o *fakeOverlay) SetVisible(v bool) error { o.visible = v; return nil }
func (o *fakeOverlay) Remove() error           { o.removed++; return nil }

type fakeDoc struct{ overlays []*fakeOverlay }

func (d *fakeDoc) ID() string                                           { return "d" }
func (d *fakeDoc) URL() string                                          { return "about:blank" }
func (d *fakeDoc) Viewport(context.Context) (dom.Viewport, error)       { return dom.Viewport{}, nil }
func (d *fakeDoc) Query(context.Context, string) ([]dom.Element, error) { return nil, nil }
func (d *fakeDoc) AddOverlay(_ context.Context, label int, _ dom.OverlayStyle, left, top float64) (dom.Overlay, error) {
	o := &fakeOverlay{label: label, visible: true, left: left, top: top}
	d.overlays = append(d.overlays, o)
	return o, nil
}

type owner struct{ active *Marker }

func (o *owner) IsActive(m *Marker) bool { return o.active == m }

func newMarker(t *testing.T, own Owner) (*Marker, *fakeEl, *fakeOverlay) {
	t.Helper()
	el := &fakeEl{bg: "blue", color: "gray"}
	doc := &fakeDoc{}
	loc := locator.Located{Element: el, Info: dom.Info{
		Tag: "A", Text: "Home", Href: "https://example.org/",
		Rect: dom.Rect{Left: 10, Top: 20}, Background: "blue", Color: "gray",
	}}
	m, err := New(context.Background(), doc, loc, dom.Viewport{ScrollX: 5, ScrollY: 100}, 3, DefaultStyle(), own)
	if err != nil {
		t.Fatal(err)
	}
	return m, el, doc.overlays[0]
}

func TestNew_PaintsAndPlacesOverlay(t *testing.T) {
	m, el, ov := newMarker(t, &owner{})
	if el.bg != "yellow" || el.color != "black" {
		t.Errorf("colors = %s/%s, want yellow/black", el.bg, el.color)
	}
	if ov.left != 15 || ov.top != 120 || ov.label != 3 {
		t.Errorf("overlay = %+v", ov)
	}
	if !m.Visible() || m.Label() != 3 {
		t.Errorf("visible=%v label=%d", m.Visible(), m.Label())
	}
}

func TestRefresh_AllStates(t *testing.T) {
	own := &owner{}
	m, el, ov := newMarker(t, own)

	own.active = m
	m.Refresh()
	if el.bg != "#88FF00" {
		t.Errorf("active bg = %s", el.bg)
	}

	m.SetVisible(false)
	if el.bg != "blue" || el.color != "gray" || ov.visible {
		t.Errorf("hidden: bg=%s color=%s overlay=%v", el.bg, el.color, ov.visible)
	}

	own.active = nil
	m.SetVisible(true)
	if el.bg != "yellow" || !ov.visible {
		t.Errorf("visible inactive: bg=%s overlay=%v", el.bg, ov.visible)
	}
}

func TestActivate_EventOrder(t *testing.T) {
	m, el, _ := newMarker(t, nil)
	if err := m.Activate(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(el.events, ","); got != "focus,mousedown,click,mouseup" {
		t.Errorf("events = %s", got)
	}
}

func TestSerialize(t *testing.T) {
	m, _, _ := newMarker(t, nil)
	m.SetLabel(7)
	r := m.Serialize()
	if r.NodeName != "A" || r.Text != "Home" || r.ID != "7" || r.URL != "https://example.org/" {
		t.Errorf("got %+v", r)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	m, el, ov := newMarker(t, nil)
	m.Remove()
	m.Remove()
	if ov.removed != 1 {
		t.Errorf("overlay removed %d times, want 1", ov.removed)
	}
	if el.bg != "blue" {
		t.Errorf("bg = %s, want restored", el.bg)
	}
	m.SetVisible(true)
	if el.bg != "blue" {
		t.Error("removed marker must not repaint")
	}
}

type poster struct {
	to   []coord.WindowID
	name []string
	args []string
}

func (p *poster) Post(to coord.WindowID, name string, payload any) error {
	data, _ := json.Marshal(payload)
	p.to = append(p.to, to)
	p.name = append(p.name, name)
	p.args = append(p.args, string(data))
	return nil
}

func TestFrameProxy_RangeAndDelegation(t *testing.T) {
	p := &poster{}
	fp := NewFrameProxy(p, "win_child")
	if fp.Covers(1) {
		t.Error("new proxy should cover nothing")
	}
	fp.SetRange(3, 5)
	if !fp.Covers(3) || !fp.Covers(5) || fp.Covers(6) || fp.Covers(2) {
		t.Error("range 3..5 misreported")
	}

	fp.Delegate(coord.MsgActivateByLabel, coord.LabelArgs{Label: 4})
	fp.Remove()
	if len(p.name) != 2 || p.name[0] != coord.MsgActivateByLabel || p.name[1] != coord.MsgClear {
		t.Errorf("posted %v", p.name)
	}
	if p.to[0] != "win_child" || !strings.Contains(p.args[0], `"label":4`) {
		t.Errorf("to=%v args=%v", p.to, p.args)
	}
}
