package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/hintnav/hintnav"
)

const page = `<html><body>
<a href="/one">One</a>
<iframe srcdoc="<a href='/two'>Two</a>"></iframe>
<a href="/three">Three</a>
</body></html>`

func navigator(t *testing.T) *hintnav.Navigator {
	t.Helper()
	cfg := hintnav.DefaultConfig()
	doc, err := hintnav.ParseHTML(page, "https://example.org/", cfg)
	if err != nil {
		t.Fatal(err)
	}
	nav, err := hintnav.New(cfg, doc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { nav.Close() })
	return nav
}

func outcomes(t *testing.T, out *bytes.Buffer) []outcome {
	t.Helper()
	var list []outcome
	dec := json.NewDecoder(out)
	for dec.More() {
		var o outcome
		if err := dec.Decode(&o); err != nil {
			t.Fatal(err)
		}
		list = append(list, o)
	}
	return list
}

func TestInteractive_CopyLinkThenCancel(t *testing.T) {
	nav := navigator(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := strings.NewReader("2\nf\n/thr\nc\n0\nf\nq\nn\n")
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := interactive(ctx, logger, nav, hintnav.ModeCopyLink, "", in, &out); err != nil {
		t.Fatal(err)
	}

	got := outcomes(t, &out)
	want := []outcome{
		{Type: "accepted", URL: "https://example.org/two", NodeName: "A", Text: "Two"},
		{Type: "canceled"},
		{Type: "accepted", URL: "https://example.org/"},
	}
	if len(got) != len(want) {
		t.Fatalf("outcomes = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outcome %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFeed_UnknownCommand(t *testing.T) {
	nav := navigator(t)
	ctx := context.Background()
	p, err := nav.OpenPrompt(ctx, hintnav.ModeFollow, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := feed(ctx, p, "zz"); err == nil {
		t.Error("expected error")
	}
	if act, ok := nav.Active(); !ok || act.Record.Text != "One" {
		t.Errorf("active after open = %+v, %v", act.Record, ok)
	}
	if _, err := feed(ctx, p, "n"); err != nil {
		t.Fatal(err)
	}
	act, ok := nav.Active()
	if !ok || act.Record.Text != "Two" {
		t.Errorf("active = %+v, %v", act.Record, ok)
	}
}

func TestParseMode(t *testing.T) {
	if parseMode("copy-link") != hintnav.ModeCopyLink || parseMode("new-buffer") != hintnav.ModeFollowNewBuffer {
		t.Error("named modes")
	}
	if parseMode("bogus") != hintnav.ModeFollow {
		t.Error("default mode")
	}
}
