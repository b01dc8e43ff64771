// internal/benchmark/types.go
package benchmark

import (
	"errors"
	"fmt"
	"time"
)

// DefaultPause is the gap between successive runs against the shared responder.
const DefaultPause = 500 * time.Millisecond

// ErrInvalidParams is wrapped by every Params validation failure.
var ErrInvalidParams = errors.New("invalid benchmark parameters")

// Result holds the metrics of one exchange, or the mean over the runs of one chunk size.
type Result struct {
	ChunkSize      int     `json:"chunkSize"`
	NumFrames      int     `json:"numFrames"`
	LatencyMS      float64 `json:"latencyMs"`
	ThroughputMbps float64 `json:"throughputMbps"`
}

// Summary is the outcome of a full benchmark: one averaged Result per chunk
// size, in the order tested, plus the best configurations.
type Summary struct {
	HeaderSize        int      `json:"headerSize"`
	DataSize          int      `json:"dataSize"`
	Runs              int      `json:"runs"`
	Results           []Result `json:"results"`
	LowestLatency     Result   `json:"lowestLatency"`
	HighestThroughput Result   `json:"highestThroughput"`
}

// Params are the caller-supplied settings for one benchmark invocation.
type Params struct {
	Endpoint   string
	HeaderSize int
	DataSize   int
	ChunkSizes []int
	Runs       int
	Pause      time.Duration
}

// DefaultChunkSizes returns the chunk sizes tested when none are configured,
// from 1KiB up to 512KiB, which holds the default payload in a single frame.
func DefaultChunkSizes() []int {
	return []int{
		1024,
		8192,
		16384,
		32768,
		65536,
		131072,
		262144,
		524288,
	}
}

// Validate reports the first parameter that cannot produce a meaningful run.
func (p Params) Validate() error {
	if p.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidParams)
	}
	if p.HeaderSize < 0 {
		return fmt.Errorf("%w: header size %d is negative", ErrInvalidParams, p.HeaderSize)
	}
	if p.DataSize < 0 {
		return fmt.Errorf("%w: data size %d is negative", ErrInvalidParams, p.DataSize)
	}
	if p.Runs < 1 {
		return fmt.Errorf("%w: runs must be at least 1, got %d", ErrInvalidParams, p.Runs)
	}
	if len(p.ChunkSizes) == 0 {
		return fmt.Errorf("%w: at least one chunk size is required", ErrInvalidParams)
	}
	for _, cs := range p.ChunkSizes {
		if cs < 1 {
			return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidParams, cs)
		}
	}
	if p.Pause < 0 {
		return fmt.Errorf("%w: pause %s is negative", ErrInvalidParams, p.Pause)
	}
	return nil
}

// EventKind identifies a progress notification from the driver.
type EventKind int

const (
	// EventChunkStart fires before the first run of a chunk size.
	EventChunkStart EventKind = iota
	// EventRunDone fires after each timed exchange.
	EventRunDone
	// EventChunkDone fires once the runs of a chunk size are averaged.
	EventChunkDone
)

// Event reports driver progress. Result is the run's metrics for EventRunDone
// and the averaged metrics for EventChunkDone.
type Event struct {
	Kind      EventKind
	ChunkSize int
	Run       int
	Runs      int
	Result    Result
}

// Observer receives driver events. Observe is called on the driver goroutine
// between exchanges, never while one is being timed.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }
