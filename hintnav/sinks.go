package hintnav

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/hintnav/hintnav/internal/sink"
	"github.com/hazyhaar/hintnav/hintnav/report"
)

// Sink is the output interface for activations.
type Sink = sink.Sink

// History is the SQLite activation log.
type History = sink.History

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry. A non-empty secret
// signs every body (X-Hintnav-Signature).
func NewWebhookSink(url, secret string, logger *slog.Logger) Sink {
	opts := []sink.WebhookOption{sink.WithWebhookLogger(logger)}
	if secret != "" {
		opts = append(opts, sink.WithWebhookSecret(secret))
	}
	return sink.NewWebhook(url, opts...)
}

// NewCallbackSink creates an in-process sink calling fn for every activation.
func NewCallbackSink(fn func(ctx context.Context, act report.Activation) error) Sink {
	return sink.NewCallback(fn)
}

// OpenHistorySink opens (or creates) the SQLite activation history at path.
func OpenHistorySink(path string) (*History, error) {
	return sink.OpenHistory(path)
}

// SinksFromConfig builds the sinks a configuration lists. Stdout sinks
// write to w. Unknown types are logged and skipped.
func SinksFromConfig(cfg *Config, w io.Writer, logger *slog.Logger) ([]Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var sinks []Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, NewStdoutSink(w))
		case "webhook":
			sinks = append(sinks, NewWebhookSink(sc.URL, sc.Secret, logger))
		case "history":
			h, err := OpenHistorySink(sc.Path)
			if err != nil {
				for _, s := range sinks {
					s.Close()
				}
				return nil, fmt.Errorf("hintnav: history sink: %w", err)
			}
			sinks = append(sinks, h)
		default:
			logger.Warn("hintnav: unknown sink type", "type", sc.Type)
		}
	}
	return sinks, nil
}
