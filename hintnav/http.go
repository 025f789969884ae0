package hintnav

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/hintnav/hintnav/internal/shield"
	"github.com/hazyhaar/hintnav/hintnav/report"
)

// Status is what every control endpoint and MCP tool answers with.
type Status struct {
	PageURL  string             `json:"page_url"`
	Selector string             `json:"selector,omitempty"`
	Active   *report.Activation `json:"active,omitempty"`
}

// Status returns the navigator state after the last command.
func (n *Navigator) Status() Status {
	st := Status{PageURL: n.PageURL(), Selector: n.Selector()}
	if act, ok := n.Active(); ok {
		st.Active = &act
	}
	return st
}

// RegisterHTTP mounts the control API under /hints on r.
//
//	POST /hints/start     {"selector": "link"}
//	POST /hints/filter    {"text": "docs"}
//	POST /hints/next
//	POST /hints/previous
//	POST /hints/select    {"label": 4}
//	POST /hints/follow
//	POST /hints/clear
//	GET  /hints/active
func (n *Navigator) RegisterHTTP(r chi.Router) {
	r.Route("/hints", func(r chi.Router) {
		for _, mw := range shield.Stack(n.logger) {
			r.Use(mw)
		}
		r.Post("/start", n.command(func(ctx context.Context, req controlRequest) error {
			return n.Start(ctx, req.Selector)
		}))
		r.Post("/filter", n.command(func(ctx context.Context, req controlRequest) error {
			return n.Filter(ctx, req.Text)
		}))
		r.Post("/next", n.command(func(ctx context.Context, _ controlRequest) error {
			return n.Next(ctx)
		}))
		r.Post("/previous", n.command(func(ctx context.Context, _ controlRequest) error {
			return n.Previous(ctx)
		}))
		r.Post("/select", n.command(func(ctx context.Context, req controlRequest) error {
			if req.Label <= 0 {
				return errBadLabel
			}
			return n.Select(ctx, req.Label)
		}))
		r.Post("/follow", n.command(func(ctx context.Context, _ controlRequest) error {
			return n.Follow(ctx)
		}))
		r.Post("/clear", n.command(func(ctx context.Context, _ controlRequest) error {
			return n.Clear(ctx)
		}))
		r.Get("/active", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, n.Status())
		})
	})
}

var errBadLabel = errors.New("hintnav: label must be positive")

type controlRequest struct {
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	Label    int    `json:"label,omitempty"`
}

func (n *Navigator) command(fn func(ctx context.Context, req controlRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req controlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := fn(r.Context(), req); err != nil {
			shield.Logger(r.Context()).Warn("hintnav: command failed", "error", err)
			writeError(w, statusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, n.Status())
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadLabel):
		return http.StatusBadRequest
	case errors.Is(err, ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
