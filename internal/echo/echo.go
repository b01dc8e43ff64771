// internal/echo/echo.go
// Package echo implements the reply side of the benchmark: every multi-part
// request is sent straight back, frame for frame.
package echo

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mwiater/framebench/internal/logging"
	"github.com/mwiater/framebench/internal/wire"
)

// Responder echoes multi-part messages on a REP endpoint.
type Responder struct {
	endpoint string
	listen   wire.ListenFunc
	echoed   atomic.Uint64
}

// Option configures a Responder.
type Option func(*Responder)

// WithListener replaces the socket factory, mainly for tests.
func WithListener(fn wire.ListenFunc) Option {
	return func(r *Responder) { r.listen = fn }
}

// New returns a Responder that will bind endpoint when served.
func New(endpoint string, opts ...Option) *Responder {
	r := &Responder{endpoint: endpoint, listen: wire.Listen}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Endpoint returns the bind endpoint.
func (r *Responder) Endpoint() string { return r.endpoint }

// Echoed returns how many messages have been echoed so far.
func (r *Responder) Echoed() uint64 { return r.echoed.Load() }

// Serve binds the endpoint and echoes until ctx is cancelled. Cancellation is
// the only way out of the loop and is reported as a nil error.
func (r *Responder) Serve(ctx context.Context) error {
	log := logging.Named("responder")

	sock, err := r.listen(ctx, r.endpoint)
	if err != nil {
		return fmt.Errorf("start responder: %w", err)
	}
	defer sock.Close()

	log.Info("responder listening", zap.String("endpoint", r.endpoint))
	for {
		frames, err := sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("responder shutting down", zap.Uint64("echoed", r.Echoed()))
				return nil
			}
			return fmt.Errorf("receive request: %w", err)
		}
		if err := sock.Send(frames); err != nil {
			if ctx.Err() != nil {
				log.Info("responder shutting down", zap.Uint64("echoed", r.Echoed()))
				return nil
			}
			return fmt.Errorf("send reply: %w", err)
		}
		r.echoed.Add(1)
		log.Debug("echoed request", zap.Int("frames", len(frames)))
	}
}

// Handle tracks a responder running in the background.
type Handle struct {
	Responder *Responder
	done      chan struct{}
	err       error
}

// Start runs r.Serve on its own goroutine.
func Start(ctx context.Context, r *Responder) *Handle {
	h := &Handle{Responder: r, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.err = r.Serve(ctx)
		if h.err != nil {
			logging.Errorf("responder stopped: %v", h.err)
		}
	}()
	return h
}

// Done is closed once the responder loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the loop's result. It is only meaningful after Done is closed.
func (h *Handle) Err() error {
	<-h.done
	return h.err
}
