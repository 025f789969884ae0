package htmldoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
	"github.com/hazyhaar/hintnav/hintnav/internal/locator"
)

const page = `<html><body>
<a href="/docs" id="docs">Docs</a>
<button onclick="go()">Go</button>
<div style="display: none"><a href="/hidden">Hidden</a></div>
<a href="/ghost" style="visibility: hidden">Ghost</a>
<span style="opacity: 0.0"><a href="/clear">Clear</a></span>
<input type="hidden" name="csrf">
<input type="text" name="q" data-rect="10,40,200,20">
<p hidden><button>Nope</button></p>
</body></html>`

func mustParse(t *testing.T, s string, opts Options) *Document {
	t.Helper()
	d, err := ParseString(s, opts)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func texts(els []dom.Element) []string {
	out := make([]string, len(els))
	for i, e := range els {
		out[i] = e.Info().Tag + ":" + strings.TrimSpace(e.Info().Text)
	}
	return out
}

func TestQuery_DocumentOrderAndDedupe(t *testing.T) {
	d := mustParse(t, page, Options{URL: "https://example.org/index.html"})
	els, err := d.Query(context.Background(), "//button | //a[@href] | //a[@id='docs']")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(texts(els), ",")
	want := "A:Docs,BUTTON:Go,A:Hidden,A:Ghost,A:Clear,BUTTON:Nope"
	if got != want {
		t.Errorf("got %s\nwant %s", got, want)
	}
}

func TestQuery_ClickablePreset(t *testing.T) {
	d := mustParse(t, page, Options{})
	els, err := d.Query(context.Background(), locator.Clickable)
	if err != nil {
		t.Fatalf("clickable preset: %v", err)
	}
	if len(els) == 0 {
		t.Fatal("clickable preset matched nothing")
	}
	for _, e := range els {
		if e.Info().Tag == "INPUT" {
			if v, _ := attr(e.(*Element).n, "type"); v == "hidden" {
				t.Error("hidden input matched")
			}
		}
	}
}

func TestQuery_BadXPath(t *testing.T) {
	d := mustParse(t, page, Options{})
	if _, err := d.Query(context.Background(), "//a[@href"); err == nil {
		t.Error("expected error for malformed xpath")
	}
}

func TestInfo_ComputedStyle(t *testing.T) {
	d := mustParse(t, page, Options{})
	res, err := locator.New(nil).Locate(context.Background(), d, "//a[@href] | //button | //input")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, it := range res.Items {
		got = append(got, it.Info.Tag+":"+strings.TrimSpace(it.Info.Text))
	}
	// Opacity is not inherited: the link inside the transparent span stays.
	want := "A:Docs,BUTTON:Go,A:Clear,INPUT:"
	if strings.Join(got, ",") != want {
		t.Errorf("visible = %v, want %s", got, want)
	}
}

func TestInfo_OpacityAndRect(t *testing.T) {
	d := mustParse(t, `<body><a href="#" style="opacity: 0.0" data-rect="5, 6, 10, 20">x</a></body>`, Options{})
	els, _ := d.Find("//a")
	info := els[0].Info()
	if info.Style.Opacity != "0" {
		t.Errorf("opacity = %q, want 0", info.Style.Opacity)
	}
	if info.Rect != (dom.Rect{Left: 5, Top: 6, Right: 15, Bottom: 26}) {
		t.Errorf("rect = %+v", info.Rect)
	}
}

func TestInfo_HrefResolved(t *testing.T) {
	d := mustParse(t, page, Options{URL: "https://example.org/a/index.html"})
	els, _ := d.Find("//a[@id='docs']")
	if got := els[0].Info().Href; got != "https://example.org/docs" {
		t.Errorf("href = %q", got)
	}
	btn, _ := d.Find("//button")
	if got := btn[0].Info().Href; got != "" {
		t.Errorf("button href = %q, want empty", got)
	}
}

func TestSetColors_SaveAndRestore(t *testing.T) {
	d := mustParse(t, `<body><a href="#" style="background: blue; font-weight: bold">x</a></body>`, Options{})
	els, _ := d.Find("//a")
	el := els[0]
	saved := el.Info()
	if saved.Background != "blue" || saved.Color != "" {
		t.Fatalf("saved = %q/%q", saved.Background, saved.Color)
	}

	el.SetColors("yellow", "black")
	if info := el.Info(); info.Background != "yellow" || info.Color != "black" {
		t.Errorf("painted = %q/%q", info.Background, info.Color)
	}

	el.SetColors(saved.Background, saved.Color)
	style, _ := attr(el.n, "style")
	if !strings.Contains(style, "font-weight: bold") || !strings.Contains(style, "background: blue") || strings.Contains(style, "color") {
		t.Errorf("restored style = %q", style)
	}
}

func TestEvents(t *testing.T) {
	d := mustParse(t, page, Options{})
	els, _ := d.Find("//button[@onclick]")
	els[0].Focus()
	els[0].Dispatch(dom.EventClick)
	ev := d.Events()
	if len(ev) != 2 || ev[0].Type != "focus" || ev[1].Type != "click" || ev[1].NodeName != "BUTTON" {
		t.Errorf("events = %+v", ev)
	}
}

func TestOverlay_Lifecycle(t *testing.T) {
	d := mustParse(t, page, Options{})
	ov, err := d.AddOverlay(context.Background(), 3, dom.OverlayStyle{Background: "red", Color: "white"}, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	d.Render(&b)
	if !strings.Contains(b.String(), `data-hint-overlay`) || !strings.Contains(b.String(), ">3</span>") {
		t.Errorf("overlay not rendered: %s", b.String())
	}

	ov.SetLabel(12)
	ov.SetVisible(false)
	st := d.Overlays()
	if len(st) != 1 || st[0].Label != 12 || st[0].Visible || st[0].Left != 10 {
		t.Errorf("state = %+v", st)
	}

	els, _ := d.Query(context.Background(), "//span[@data-hint-overlay]")
	if len(els) != 0 {
		t.Error("overlays must not be returned by queries")
	}

	ov.Remove()
	ov.Remove()
	if len(d.Overlays()) != 0 {
		t.Error("overlay still listed after Remove")
	}
}

func TestContentDocument_SrcdocAndLoader(t *testing.T) {
	loader := MapLoader(map[string]string{
		"https://example.org/frames/inner.html": `<body><a href="deep">Deep</a></body>`,
	})
	d := mustParse(t, `<body>
<iframe srcdoc="&lt;a href='x'&gt;In srcdoc&lt;/a&gt;" data-rect="0,0,300,200"></iframe>
<iframe src="frames/inner.html"></iframe>
<iframe src="missing.html"></iframe>
</body>`, Options{URL: "https://example.org/index.html", Loader: loader})

	frames, _ := d.Find("//iframe")
	ctx := context.Background()

	c1, err := frames[0].ContentDocument(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c1.URL() != "about:srcdoc" {
		t.Errorf("srcdoc url = %s", c1.URL())
	}
	vp, _ := c1.Viewport(ctx)
	if vp.Width != 300 || vp.Height != 200 {
		t.Errorf("frame viewport = %+v", vp)
	}
	links, _ := c1.Query(ctx, "//a")
	if len(links) != 1 || links[0].Info().Href != "https://example.org/x" {
		t.Errorf("srcdoc links = %v", texts(links))
	}
	again, _ := frames[0].ContentDocument(ctx)
	if again != c1 {
		t.Error("content document should be cached")
	}

	c2, err := frames[1].ContentDocument(ctx)
	if err != nil {
		t.Fatal(err)
	}
	deep, _ := c2.Query(ctx, "//a")
	if len(deep) != 1 || deep[0].Info().Href != "https://example.org/frames/deep" {
		t.Errorf("loaded frame href = %v", deep)
	}

	if _, err := frames[2].ContentDocument(ctx); err == nil {
		t.Error("expected error for unknown frame source")
	}

	links2, _ := d.Find("//body")
	if _, err := links2[0].ContentDocument(ctx); !errors.Is(err, ErrNotFrame) {
		t.Errorf("err = %v, want ErrNotFrame", err)
	}
}

func TestContentDocument_DepthLimit(t *testing.T) {
	loader := MapLoader(map[string]string{
		"https://example.org/loop.html": `<iframe src="loop.html"></iframe>`,
	})
	d := mustParse(t, `<iframe src="loop.html"></iframe>`, Options{URL: "https://example.org/loop.html", Loader: loader, MaxDepth: 2})
	var cur dom.Document = d
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		var frames []dom.Element
		frames, err = cur.Query(context.Background(), "//iframe")
		if err != nil {
			break
		}
		cur, err = frames[0].ContentDocument(context.Background())
	}
	if err == nil {
		t.Error("expected nesting limit error")
	}
}

func TestOpen_FileFrames(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<a href="a.html">A</a><iframe src="child.html"></iframe>`), 0o644)
	os.WriteFile(filepath.Join(dir, "child.html"), []byte(`<a href="b.html">B</a>`), 0o644)

	d, err := Open(filepath.Join(dir, "index.html"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(d.URL(), "file://") {
		t.Errorf("url = %s", d.URL())
	}
	frames, _ := d.Find("//iframe")
	child, err := frames[0].ContentDocument(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	links, _ := child.Query(context.Background(), "//a")
	if len(links) != 1 || !strings.HasSuffix(links[0].Info().Href, "/b.html") {
		t.Errorf("child links = %v", texts(links))
	}
}
