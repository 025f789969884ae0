package coord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
)

var (
	// ErrUnknownWindow is returned when posting to a window the bus never
	// attached.
	ErrUnknownWindow = errors.New("coord: unknown window")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("coord: bus closed")
)

// MountFunc installs a frame's handlers. It runs once per window, before
// the window can receive anything.
type MountFunc func(w *Window)

// Options configures a Bus.
type Options struct {
	// Secret tags every envelope. Envelopes carrying another tag are dropped.
	Secret string
	Logger *slog.Logger
	// NewID generates window ids. Default: "win_" + UUIDv7.
	NewID func() string
	Mount MountFunc
}

// Bus is the in-process transport between the frames of one page.
type Bus struct {
	secret string
	logger *slog.Logger
	newID  func() string
	mount  MountFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	windows  map[WindowID]*Window
	byDoc    map[string]WindowID
	inflight int
	idle     chan struct{}
	closed   bool
}

// NewBus creates a bus with no windows.
func NewBus(opts Options) *Bus {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "win_" + uuid.Must(uuid.NewV7()).String() }
	}
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Bus{
		secret:  opts.Secret,
		logger:  opts.Logger,
		newID:   opts.NewID,
		mount:   opts.Mount,
		ctx:     ctx,
		cancel:  cancel,
		windows: make(map[WindowID]*Window),
		byDoc:   make(map[string]WindowID),
		idle:    idle,
	}
}

// Attach returns the window for doc, creating and starting it when the
// document was never seen. An empty parent makes a top window.
func (b *Bus) Attach(parent WindowID, doc dom.Document) (*Window, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if id, ok := b.byDoc[doc.ID()]; ok {
		w := b.windows[id]
		b.mu.Unlock()
		return w, nil
	}
	top := WindowID("")
	if parent != "" {
		p, ok := b.windows[parent]
		if !ok {
			b.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrUnknownWindow, parent)
		}
		top = p.Top
	}
	b.mu.Unlock()

	w := &Window{
		ID:     WindowID(b.newID()),
		Parent: parent,
		Doc:    doc,
		bus:    b,
		coord:  NewCoordinator(b.secret, b.logger),
		notify: make(chan struct{}, 1),
	}
	w.Top = top
	if top == "" {
		w.Top = w.ID
	}
	if b.mount != nil {
		b.mount(w)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if id, ok := b.byDoc[doc.ID()]; ok {
		return b.windows[id], nil
	}
	b.windows[w.ID] = w
	b.byDoc[doc.ID()] = w.ID
	b.wg.Add(1)
	go w.run(b.ctx)
	b.logger.Debug("coord: window attached", "window", w.ID, "parent", parent, "url", doc.URL())
	return w, nil
}

// Window returns an attached window.
func (b *Bus) Window(id WindowID) (*Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	return w, ok
}

// Post marshals payload and delivers it to the window to, tagged with the
// bus secret. A nil payload sends no args.
func (b *Bus) Post(from, to WindowID, name string, payload any) error {
	var args json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("coord: marshal %s: %w", name, err)
		}
		args = data
	}
	return b.Deliver(to, Envelope{Tag: b.secret, Name: name, From: from, Args: args})
}

// Deliver enqueues a prepared envelope as is, tag included.
func (b *Bus) Deliver(to WindowID, env Envelope) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	w, ok := b.windows[to]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownWindow, to)
	}
	b.inflight++
	if b.inflight == 1 {
		b.idle = make(chan struct{})
	}
	b.mu.Unlock()

	if !w.enqueue(env) {
		b.done(1)
	}
	return nil
}

// Settle blocks until no message is queued or being handled anywhere on
// the bus.
func (b *Bus) Settle(ctx context.Context) error {
	b.mu.Lock()
	ch := b.idle
	b.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops every window. Queued messages are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
}

func (b *Bus) done(n int) {
	if n == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inflight -= n
	if b.inflight <= 0 {
		b.inflight = 0
		select {
		case <-b.idle:
		default:
			close(b.idle)
		}
	}
}

// Window is one frame on the bus. Its handlers run on a single goroutine,
// one envelope at a time, in arrival order.
type Window struct {
	ID     WindowID
	Parent WindowID // "" for the top window
	Top    WindowID
	Doc    dom.Document

	bus   *Bus
	coord *Coordinator

	mu      sync.Mutex
	queue   []Envelope
	stopped bool
	notify  chan struct{}
}

// IsTop reports whether the window is the root of its frame tree.
func (w *Window) IsTop() bool { return w.ID == w.Top }

// Handle registers a handler on the window's coordinator. Call it from the
// bus MountFunc only.
func (w *Window) Handle(name string, fn HandlerFunc) { w.coord.Handle(name, fn) }

// Post sends a message from this window.
func (w *Window) Post(to WindowID, name string, payload any) error {
	return w.bus.Post(w.ID, to, name, payload)
}

// Attach creates (or finds) the child window for a frame document.
func (w *Window) Attach(doc dom.Document) (*Window, error) {
	return w.bus.Attach(w.ID, doc)
}

func (w *Window) enqueue(env Envelope) bool {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, env)
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
	return true
}

func (w *Window) next(ctx context.Context) (Envelope, bool) {
	for {
		w.mu.Lock()
		if ctx.Err() == nil && len(w.queue) > 0 {
			env := w.queue[0]
			w.queue[0] = Envelope{}
			w.queue = w.queue[1:]
			w.mu.Unlock()
			return env, true
		}
		if ctx.Err() != nil {
			n := len(w.queue)
			w.queue = nil
			w.stopped = true
			w.mu.Unlock()
			w.bus.done(n)
			return Envelope{}, false
		}
		w.mu.Unlock()

		select {
		case <-w.notify:
		case <-ctx.Done():
		}
	}
}

func (w *Window) run(ctx context.Context) {
	defer w.bus.wg.Done()
	for {
		env, ok := w.next(ctx)
		if !ok {
			return
		}
		w.dispatch(ctx, env)
		w.bus.done(1)
	}
}

func (w *Window) dispatch(ctx context.Context, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			w.bus.logger.Error("coord: handler panic", "window", w.ID, "name", env.Name, "panic", r)
		}
	}()
	w.coord.Dispatch(ctx, env)
}
