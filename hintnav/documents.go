package hintnav

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/hintnav/hintnav/internal/browser"
	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
	"github.com/hazyhaar/hintnav/hintnav/internal/htmldoc"
)

// ParseHTML parses a static page. Frames with a srcdoc are hinted as nested
// documents; frames with a src stay unreachable.
func ParseHTML(src, pageURL string, cfg *Config) (Document, error) {
	doc, err := htmldoc.ParseString(src, htmldoc.Options{URL: pageURL, Viewport: viewportOf(cfg)})
	if err != nil {
		return nil, fmt.Errorf("hintnav: %w", err)
	}
	return doc, nil
}

// OpenFile parses a static page from disk. Frame src references are read
// relative to the file.
func OpenFile(path string, cfg *Config) (Document, error) {
	doc, err := htmldoc.Open(path, htmldoc.Options{Viewport: viewportOf(cfg)})
	if err != nil {
		return nil, fmt.Errorf("hintnav: %w", err)
	}
	return doc, nil
}

func viewportOf(cfg *Config) dom.Viewport {
	if cfg == nil {
		return dom.Viewport{}
	}
	return dom.Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}
}

// BrowserPage is a live page in a managed Chrome.
type BrowserPage struct {
	mgr    *browser.Manager
	tab    *browser.Tab
	doc    *browser.Document
	logger *slog.Logger
}

// OpenBrowser launches (or connects to) Chrome as configured and loads
// pageURL in a new tab.
func OpenBrowser(ctx context.Context, cfg *Config, pageURL string, logger *slog.Logger) (*BrowserPage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Stealth:          browser.ParseStealth(cfg.Browser.Stealth),
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, fmt.Errorf("hintnav: start browser: %w", err)
	}
	tab, err := browser.OpenTab(ctx, mgr, pageURL)
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("hintnav: open tab: %w", err)
	}
	doc, err := tab.Document(ctx)
	if err != nil {
		tab.Close()
		mgr.Close()
		return nil, fmt.Errorf("hintnav: page document: %w", err)
	}
	logger.Info("hintnav: page loaded", "url", doc.URL(), "stealth", tab.Stealth)
	return &BrowserPage{mgr: mgr, tab: tab, doc: doc, logger: logger}, nil
}

// Document is the top document of the page.
func (p *BrowserPage) Document() Document { return p.doc }

// Bind clears nav's hints before Chrome is recycled. The page is gone
// afterwards; a new BrowserPage is needed to hint again.
func (p *BrowserPage) Bind(nav *Navigator) {
	p.mgr.OnRecycle(browser.RecycleHooks{
		Before: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := nav.Clear(ctx); err != nil {
				p.logger.Warn("hintnav: clear before recycle", "error", err)
			}
		},
		After: func(b *rod.Browser) {
			p.logger.Warn("hintnav: browser recycled, page closed", "url", p.doc.URL())
		},
	})
}

// Close closes the tab and the browser.
func (p *BrowserPage) Close() error {
	err := p.tab.Close()
	if cerr := p.mgr.Close(); err == nil {
		err = cerr
	}
	return err
}
