package hintnav

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/hintnav/hintnav/internal/htmldoc"
	"github.com/hazyhaar/hintnav/hintnav/internal/prompt"
	"github.com/hazyhaar/hintnav/hintnav/report"
)

const page = `<html><body>
<a href="/docs">Docs</a>
<button>Go</button>
<iframe srcdoc="<a href='/inner'>Inner link</a><a href='/other'>Other</a>"></iframe>
<a href="/about">About</a>
</body></html>`

type collected struct {
	mu   sync.Mutex
	acts []report.Activation
}

func (c *collected) fn(_ context.Context, act report.Activation) error {
	c.mu.Lock()
	c.acts = append(c.acts, act)
	c.mu.Unlock()
	return nil
}

func (c *collected) list() []report.Activation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]report.Activation(nil), c.acts...)
}

func newNavigator(t *testing.T, sinks ...Sink) *Navigator {
	t.Helper()
	cfg := DefaultConfig()
	doc, err := ParseHTML(page, "https://example.org/", cfg)
	if err != nil {
		t.Fatal(err)
	}
	nav, err := New(cfg, doc, nil, sinks...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { nav.Close() })
	return nav
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNavigator_StartThenNext(t *testing.T) {
	c := &collected{}
	nav := newNavigator(t, NewCallbackSink(c.fn))
	ctx := testCtx(t)

	if err := nav.Start(ctx, "link"); err != nil {
		t.Fatal(err)
	}
	first, ok := nav.Active()
	if !ok {
		t.Fatal("start activated nothing")
	}
	if first.Record.Text != "Docs" || first.Record.ID != "1" {
		t.Errorf("active after start = %+v, want Docs #1", first.Record)
	}
	if err := nav.Next(ctx); err != nil {
		t.Fatal(err)
	}
	act, ok := nav.Active()
	if !ok {
		t.Fatal("no activation after next")
	}
	if act.Record.Text != "Inner link" || act.Record.ID != "2" {
		t.Errorf("active = %+v, want Inner link #2", act.Record)
	}
	if act.PageURL != "https://example.org/" || act.ID == "" || act.Timestamp == 0 {
		t.Errorf("activation envelope = %+v", act)
	}
	if got := c.list(); len(got) != 2 || got[0].ID != first.ID || got[1].ID != act.ID {
		t.Errorf("sink got %d activations, want 2", len(got))
	}
}

func TestNavigator_SelectInsideFrame(t *testing.T) {
	nav := newNavigator(t)
	ctx := testCtx(t)

	if err := nav.Start(ctx, "link"); err != nil {
		t.Fatal(err)
	}
	// Link labels: Docs 1, frame 2..3, About 4.
	if err := nav.Select(ctx, 3); err != nil {
		t.Fatal(err)
	}
	act, ok := nav.Active()
	if !ok || act.Record.Text != "Other" {
		t.Fatalf("active = %+v, %v; want Other", act.Record, ok)
	}
	if act.Record.URL != "https://example.org/other" {
		t.Errorf("url = %q", act.Record.URL)
	}
	if act.Window == "" {
		t.Error("activation carries no window")
	}
}

func TestNavigator_FilterKeepsActiveLabelCurrent(t *testing.T) {
	nav := newNavigator(t)
	ctx := testCtx(t)

	if err := nav.Start(ctx, "link"); err != nil {
		t.Fatal(err)
	}
	if err := nav.Select(ctx, 3); err != nil {
		t.Fatal(err)
	}
	// "o" keeps Docs, Other and About: Other moves from 3 to 2.
	if err := nav.Filter(ctx, "o"); err != nil {
		t.Fatal(err)
	}
	act, ok := nav.Active()
	if !ok || act.Record.Text != "Other" || act.Record.ID != "2" {
		t.Errorf("active = %+v, %v; want Other #2", act.Record, ok)
	}
}

func TestNavigator_FilterThenFollow(t *testing.T) {
	nav := newNavigator(t)
	ctx := testCtx(t)

	if err := nav.Start(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if err := nav.Filter(ctx, "inner"); err != nil {
		t.Fatal(err)
	}
	act, ok := nav.Active()
	if !ok || act.Record.Text != "Inner link" || act.Record.ID != "1" {
		t.Fatalf("active after filter = %+v, %v", act.Record, ok)
	}
	if err := nav.Follow(ctx); err != nil {
		t.Fatal(err)
	}
	doc := nav.doc.(*htmldoc.Document)
	frames, err := doc.Find("//iframe")
	if err != nil || len(frames) != 1 {
		t.Fatalf("frames: %v %d", err, len(frames))
	}
	child, err := frames[0].ContentDocument(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range child.(*htmldoc.Document).Events() {
		got = append(got, e.Type+":"+e.Text)
	}
	want := []string{"focus:Inner link", "mousedown:Inner link", "click:Inner link", "mouseup:Inner link"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNavigator_ClearResetsActive(t *testing.T) {
	nav := newNavigator(t)
	ctx := testCtx(t)

	if err := nav.Start(ctx, "link"); err != nil {
		t.Fatal(err)
	}
	if err := nav.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if err := nav.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := nav.Active(); ok {
		t.Error("active survived clear")
	}
	if nav.Selector() != "" {
		t.Errorf("selector = %q after clear", nav.Selector())
	}
	if err := nav.Clear(ctx); err != nil {
		t.Errorf("second clear: %v", err)
	}
	overlays := nav.doc.(*htmldoc.Document).Overlays()
	if len(overlays) != 0 {
		t.Errorf("%d overlays left", len(overlays))
	}
}

func TestNavigator_Closed(t *testing.T) {
	nav := newNavigator(t)
	if err := nav.Close(); err != nil {
		t.Fatal(err)
	}
	if err := nav.Next(testCtx(t)); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if err := nav.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestNavigator_HistorySink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	cfg := DefaultConfig()
	cfg.Sinks = []SinkConfig{{Type: "history", Path: path}, {Type: "bogus"}}
	sinks, err := SinksFromConfig(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sinks) != 1 {
		t.Fatalf("sinks = %d, want 1", len(sinks))
	}
	hist := sinks[0].(*History)

	doc, err := ParseHTML(page, "https://example.org/", cfg)
	if err != nil {
		t.Fatal(err)
	}
	nav, err := New(cfg, doc, nil, sinks...)
	if err != nil {
		t.Fatal(err)
	}
	ctx := testCtx(t)
	if err := nav.Start(ctx, "link"); err != nil {
		t.Fatal(err)
	}
	if err := nav.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if err := nav.Next(ctx); err != nil {
		t.Fatal(err)
	}
	recent, err := hist.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("history rows = %d, want 3", len(recent))
	}
	if recent[0].Record.Text != "Other" || recent[1].Record.Text != "Inner link" || recent[2].Record.Text != "Docs" {
		t.Errorf("history = %q, %q, %q; want Other, Inner link, Docs",
			recent[0].Record.Text, recent[1].Record.Text, recent[2].Record.Text)
	}
	if err := nav.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNavigator_DrivenByPrompt(t *testing.T) {
	nav := newNavigator(t)
	ctx := testCtx(t)

	p, err := prompt.Open(ctx, nav, prompt.CopyLink)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []prompt.Key{{Text: "4"}} {
		if _, err := p.Key(ctx, k); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := p.Info(), "https://example.org/about"; got != want {
		t.Errorf("info = %q, want %q", got, want)
	}
	res, err := p.Key(ctx, prompt.Key{Name: "Return"})
	if err != nil {
		t.Fatal(err)
	}
	if res.URL != "https://example.org/about" {
		t.Errorf("copied %q", res.URL)
	}
	if _, ok := nav.Active(); ok {
		t.Error("prompt left hint mode running")
	}
}
