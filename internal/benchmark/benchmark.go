// internal/benchmark/benchmark.go
// Package benchmark times request/reply exchanges for a range of frame sizes.
package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/mwiater/framebench/internal/frames"
	"github.com/mwiater/framebench/internal/logging"
	"github.com/mwiater/framebench/internal/wire"
)

var now = time.Now

// newResult derives latency and throughput from the bytes sent and the elapsed wall time.
func newResult(chunkSize int, set frames.Set, elapsed time.Duration) Result {
	seconds := elapsed.Seconds()
	return Result{
		ChunkSize:      chunkSize,
		NumFrames:      set.Count(),
		LatencyMS:      seconds * 1000,
		ThroughputMbps: float64(set.TotalBytes()) * 8 / 1_000_000 / seconds,
	}
}

// exchange sends set and blocks until the full reply has been received.
func exchange(conn wire.Requester, set frames.Set) error {
	if err := conn.Send(set); err != nil {
		return fmt.Errorf("send frames: %w", err)
	}
	if _, err := conn.Recv(); err != nil {
		return fmt.Errorf("receive reply: %w", err)
	}
	return nil
}

// TimeExchange performs exactly one round trip of set over conn and measures it.
// The caller must already have warmed conn up with a discarded exchange. There
// is no timeout: a silent peer blocks this call indefinitely.
func TimeExchange(conn wire.Requester, set frames.Set, chunkSize int) (Result, error) {
	start := now()
	if err := exchange(conn, set); err != nil {
		return Result{}, err
	}
	return newResult(chunkSize, set, now().Sub(start)), nil
}

// RunClientTest opens a fresh connection, warms it up with one exchange, times a
// second exchange of the same frames, and closes the connection.
func RunClientTest(ctx context.Context, dial wire.DialFunc, endpoint string, header, data []byte, chunkSize int) (Result, error) {
	conn, err := dial(ctx, endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	set := frames.Build(header, data, chunkSize)

	if err := exchange(conn, set); err != nil {
		return Result{}, fmt.Errorf("warm-up: %w", err)
	}

	return TimeExchange(conn, set, chunkSize)
}

// Driver runs the benchmark for every configured chunk size.
type Driver struct {
	Params   Params
	Dial     wire.DialFunc
	Sleep    func(time.Duration)
	Observer Observer
}

// NewDriver returns a Driver that dials real REQ sockets.
func NewDriver(p Params) *Driver {
	return &Driver{
		Params: p,
		Dial:   wire.Dial,
		Sleep:  time.Sleep,
	}
}

func (d *Driver) emit(ev Event) {
	if d.Observer != nil {
		d.Observer.Observe(ev)
	}
}

// Run tests each chunk size in order. Every run uses its own connection and is
// followed by the configured pause; runs never overlap. The per-run results of a
// chunk size are averaged into one Result.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	p := d.Params
	if err := p.Validate(); err != nil {
		return Summary{}, err
	}

	header := frames.Fill('H', p.HeaderSize)
	data := frames.Fill('D', p.DataSize)

	results := make([]Result, 0, len(p.ChunkSizes))
	for _, chunkSize := range p.ChunkSizes {
		logging.Debugf("benchmarking chunk size %d bytes (%d frames)", chunkSize, frames.Count(p.DataSize, chunkSize))
		d.emit(Event{Kind: EventChunkStart, ChunkSize: chunkSize, Runs: p.Runs})

		runs := make([]Result, 0, p.Runs)
		for i := 0; i < p.Runs; i++ {
			r, err := RunClientTest(ctx, d.Dial, p.Endpoint, header, data, chunkSize)
			if err != nil {
				return Summary{}, fmt.Errorf("chunk size %d, run %d: %w", chunkSize, i+1, err)
			}
			runs = append(runs, r)
			logging.Debugf("chunk size %d run %d: latency=%.2fms throughput=%.2fMbps", chunkSize, i+1, r.LatencyMS, r.ThroughputMbps)
			d.emit(Event{Kind: EventRunDone, ChunkSize: chunkSize, Run: i + 1, Runs: p.Runs, Result: r})
			d.Sleep(p.Pause)
		}

		avg := Average(runs)
		results = append(results, avg)
		d.emit(Event{Kind: EventChunkDone, ChunkSize: chunkSize, Runs: p.Runs, Result: avg})
	}

	lowest, highest := Best(results)
	return Summary{
		HeaderSize:        p.HeaderSize,
		DataSize:          p.DataSize,
		Runs:              p.Runs,
		Results:           results,
		LowestLatency:     lowest,
		HighestThroughput: highest,
	}, nil
}

// Average returns the arithmetic mean of latency and throughput across runs.
// Chunk size and frame count are taken from the first run.
func Average(runs []Result) Result {
	if len(runs) == 0 {
		return Result{}
	}

	var latency, throughput float64
	for _, r := range runs {
		latency += r.LatencyMS
		throughput += r.ThroughputMbps
	}

	count := float64(len(runs))
	return Result{
		ChunkSize:      runs[0].ChunkSize,
		NumFrames:      runs[0].NumFrames,
		LatencyMS:      latency / count,
		ThroughputMbps: throughput / count,
	}
}

// Best returns the result with the lowest latency and the one with the highest
// throughput. Ties go to the earlier result.
func Best(results []Result) (lowestLatency, highestThroughput Result) {
	if len(results) == 0 {
		return Result{}, Result{}
	}

	lowestLatency = results[0]
	highestThroughput = results[0]
	for _, r := range results[1:] {
		if r.LatencyMS < lowestLatency.LatencyMS {
			lowestLatency = r
		}
		if r.ThroughputMbps > highestThroughput.ThroughputMbps {
			highestThroughput = r
		}
	}
	return lowestLatency, highestThroughput
}
