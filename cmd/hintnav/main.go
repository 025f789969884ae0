// Command hintnav runs keyboard hint mode over a page and its frames.
//
// Usage:
//
//	hintnav -file page.html                 # static page, commands on stdin
//	hintnav -url https://example.com        # live page in Chrome
//	hintnav -url https://example.com -http :8080
//	hintnav -file page.html -mcp            # MCP tools over stdio
//
// Stdin commands, one per line: /text filters, n and p move, digits select
// a label, f accepts, c cancels, q quits.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/hintnav/hintnav"
)

func main() {
	configPath := flag.String("config", "", "path to hintnav.yaml config file")
	pageURL := flag.String("url", "", "open a URL in Chrome")
	file := flag.String("file", "", "hint a static HTML file")
	selector := flag.String("selector", "", "preset (clickable, link) or XPath")
	mode := flag.String("mode", "follow", "prompt mode: follow, new-buffer, copy-link")
	httpAddr := flag.String("http", "", "serve the control API on this address")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools over stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		configPath: *configPath,
		pageURL:    *pageURL,
		file:       *file,
		selector:   *selector,
		mode:       *mode,
		httpAddr:   *httpAddr,
		mcp:        *mcpStdio,
	}
	if err := run(ctx, logger, opts); err != nil {
		logger.Error("hintnav: fatal", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	pageURL    string
	file       string
	selector   string
	mode       string
	httpAddr   string
	mcp        bool
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	if (opts.pageURL == "") == (opts.file == "") {
		fmt.Fprintln(os.Stderr, "usage: hintnav [-config <file>] -url <url> | -file <page.html>")
		os.Exit(2)
	}

	cfg := hintnav.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = hintnav.LoadConfigFile(opts.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if opts.selector != "" {
		cfg.Hints.Selector = opts.selector
	}
	if opts.httpAddr != "" {
		cfg.HTTP.Addr = opts.httpAddr
	}
	if opts.mcp {
		cfg.MCP.Enabled = true
	}

	// MCP owns stdout in stdio mode.
	var out io.Writer = os.Stdout
	if cfg.MCP.Enabled {
		out = os.Stderr
	}
	sinks, err := hintnav.SinksFromConfig(cfg, out, logger)
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		sinks = append(sinks, hintnav.NewStdoutSink(out))
	}

	var doc hintnav.Document
	var page *hintnav.BrowserPage
	if opts.file != "" {
		if doc, err = hintnav.OpenFile(opts.file, cfg); err != nil {
			return err
		}
	} else {
		if page, err = hintnav.OpenBrowser(ctx, cfg, opts.pageURL, logger); err != nil {
			return err
		}
		defer page.Close()
		doc = page.Document()
	}

	nav, err := hintnav.New(cfg, doc, logger, sinks...)
	if err != nil {
		return err
	}
	defer nav.Close()
	if page != nil {
		page.Bind(nav)
	}

	if cfg.HTTP.Addr != "" {
		srv := serveHTTP(logger, cfg.HTTP.Addr, nav)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("hintnav: http shutdown", "error", err)
			}
		}()
	}

	switch {
	case cfg.MCP.Enabled:
		srv := mcp.NewServer(&mcp.Implementation{Name: cfg.MCP.Name, Version: "0.1.0"}, nil)
		nav.RegisterMCP(srv)
		logger.Info("hintnav: serving MCP on stdio", "url", doc.URL())
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return fmt.Errorf("mcp: %w", err)
		}
	case cfg.HTTP.Addr != "":
		<-ctx.Done()
	default:
		return interactive(ctx, logger, nav, parseMode(opts.mode), opts.selector, os.Stdin, os.Stdout)
	}
	clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return nav.Clear(clearCtx)
}

func serveHTTP(logger *slog.Logger, addr string, nav *hintnav.Navigator) *http.Server {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	nav.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("hintnav: http listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("hintnav: http server", "error", err)
		}
	}()
	return srv
}

func parseMode(s string) hintnav.PromptMode {
	switch s {
	case "new-buffer":
		return hintnav.ModeFollowNewBuffer
	case "copy-link":
		return hintnav.ModeCopyLink
	}
	return hintnav.ModeFollow
}

type outcome struct {
	Type     string `json:"type"` // accepted | canceled
	URL      string `json:"url,omitempty"`
	NodeName string `json:"node_name,omitempty"`
	Text     string `json:"text,omitempty"`
}

// interactive feeds stdin lines to a prompt, opening a new one whenever the
// previous one was accepted or canceled.
func interactive(ctx context.Context, logger *slog.Logger, nav *hintnav.Navigator, mode hintnav.PromptMode, selector string, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	enc := json.NewEncoder(out)
	var p *hintnav.Prompt
	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}
		if line == "q" {
			return nil
		}
		if p == nil || p.Closed() {
			var err error
			if p, err = nav.OpenPrompt(ctx, mode, selector); err != nil {
				return err
			}
		}
		res, err := feed(ctx, p, line)
		if err != nil {
			logger.Warn("hintnav: command failed", "line", line, "error", err)
			continue
		}
		if !p.Closed() {
			continue
		}
		o := outcome{Type: "canceled"}
		if res.Accepted {
			o = outcome{Type: "accepted", URL: res.URL}
			if res.Record != nil {
				o.NodeName, o.Text = res.Record.NodeName, res.Record.Text
			}
		}
		if err := enc.Encode(o); err != nil {
			return err
		}
	}
}

// feed translates one command line into prompt keys.
func feed(ctx context.Context, p *hintnav.Prompt, line string) (hintnav.PromptResult, error) {
	switch {
	case strings.HasPrefix(line, "/"):
		return hintnav.PromptResult{}, p.SetText(ctx, line[1:])
	case line == "n":
		return p.Key(ctx, hintnav.PromptKey{Name: "C-n"})
	case line == "p":
		return p.Key(ctx, hintnav.PromptKey{Name: "C-p"})
	case line == "f":
		return p.Key(ctx, hintnav.PromptKey{Name: "Return"})
	case line == "c":
		return p.Key(ctx, hintnav.PromptKey{Name: "C-g"})
	case isDigits(line):
		return hintnav.PromptResult{}, p.Number(ctx, line)
	}
	return hintnav.PromptResult{}, fmt.Errorf("unknown command %q", line)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
