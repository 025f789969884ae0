// Package sink defines output backends for hint activations.
package sink

import (
	"context"

	"github.com/hazyhaar/hintnav/hintnav/report"
)

// Sink receives every activation reported by the top frame.
type Sink interface {
	Send(ctx context.Context, act report.Activation) error
	Close() error
}
