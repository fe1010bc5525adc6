// Package signal turns SIGINT and SIGTERM into context cancellation for
// long-running wipecert commands.
//
// A canceled erasure never starts another overwrite pass. Files whose first
// pass already began are finished and attested, so an interrupt never
// leaves a touched file without a record.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler cancels its context on the first SIGINT or SIGTERM.
type Handler struct {
	ctx         context.Context //nolint:containedctx // the handler owns the context lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{}
	sigChan     chan os.Signal
	once        sync.Once
	stopOnce    sync.Once
}

// NewHandler starts listening for interrupt signals.
//
// Usage:
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	items := svc.EraseAll(h.Context(), reqs)
//	if h.WasInterrupted() {
//	    // report skipped files
//	}
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// Buffered so signal.Notify never drops the first signal.
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the context canceled by an interrupt.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel closed when an interrupt is received.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// WasInterrupted reports whether an interrupt has been received.
func (h *Handler) WasInterrupted() bool {
	select {
	case <-h.interrupted:
		return true
	default:
		return false
	}
}

// Stop stops listening and cancels the context. Safe to call more than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

// handleSignal cancels the context once; later signals are ignored.
func (h *Handler) handleSignal() {
	h.once.Do(func() {
		h.cancel()
		close(h.interrupted)
	})
}

func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case <-h.sigChan:
			h.handleSignal()
		}
	}
}
