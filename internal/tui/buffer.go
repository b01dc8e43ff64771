// internal/tui/buffer.go
package tui

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/mwiater/framebench/internal/benchmark"
)

// eventBuffer is an unbounded FIFO between the benchmark driver and the
// bubbletea program. push never blocks, so rendering cannot stall a timed exchange.
type eventBuffer struct {
	mu     sync.Mutex
	q      *queue.Queue
	ready  chan struct{}
	closed bool
}

func newEventBuffer() *eventBuffer {
	return &eventBuffer{q: queue.New(), ready: make(chan struct{}, 1)}
}

func (b *eventBuffer) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

func (b *eventBuffer) push(ev benchmark.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.q.Add(ev)
	b.mu.Unlock()
	b.signal()
}

// next blocks until an event is available. It reports false once the buffer
// is closed and drained.
func (b *eventBuffer) next() (benchmark.Event, bool) {
	for {
		b.mu.Lock()
		if b.q.Length() > 0 {
			ev := b.q.Remove().(benchmark.Event)
			b.mu.Unlock()
			return ev, true
		}
		if b.closed {
			b.mu.Unlock()
			return benchmark.Event{}, false
		}
		b.mu.Unlock()
		<-b.ready
	}
}

func (b *eventBuffer) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.signal()
}

func (b *eventBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.q.Length()
}
