package sink

import (
	"context"

	"github.com/hazyhaar/hintnav/hintnav/report"
)

// ActivationFunc is called for each activation, in process.
type ActivationFunc func(ctx context.Context, act report.Activation) error

// Callback delivers activations via a Go function call.
type Callback struct {
	fn ActivationFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn ActivationFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, act report.Activation) error {
	if c.fn != nil {
		return c.fn(ctx, act)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
