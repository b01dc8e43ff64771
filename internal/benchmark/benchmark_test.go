package benchmark

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/framebench/internal/frames"
	"github.com/mwiater/framebench/internal/wire"
)

type fakeConn struct {
	sends   [][][]byte
	last    [][]byte
	sendErr error
	recvErr error
	closed  bool
}

func (f *fakeConn) Send(msg [][]byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends = append(f.sends, msg)
	f.last = msg
	return nil
}

func (f *fakeConn) Recv() ([][]byte, error) {
	if f.recvErr != nil {
		return nil, f.recvErr
	}
	return f.last, nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type fakeDialer struct {
	conns     []*fakeConn
	endpoints []string
	err       error
}

func (d *fakeDialer) dial(_ context.Context, endpoint string) (wire.Requester, error) {
	d.endpoints = append(d.endpoints, endpoint)
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeConn{}
	d.conns = append(d.conns, c)
	return c, nil
}

// scriptClock makes every start/stop pair of now() calls span the next latency.
func scriptClock(latencies ...time.Duration) func() time.Time {
	cur := time.Unix(1700000000, 0)
	calls := 0
	return func() time.Time {
		if calls%2 == 1 {
			cur = cur.Add(latencies[(calls/2)%len(latencies)])
		} else {
			cur = cur.Add(time.Second)
		}
		calls++
		return cur
	}
}

func useClock(t *testing.T, clock func() time.Time) {
	t.Helper()
	prev := now
	now = clock
	t.Cleanup(func() { now = prev })
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestTimeExchangeMeasuresOneRoundTrip(t *testing.T) {
	useClock(t, scriptClock(2*time.Millisecond))

	set := frames.Build(frames.Fill('H', 100), frames.Fill('D', 500000), 524288)
	conn := &fakeConn{}

	r, err := TimeExchange(conn, set, 524288)
	if err != nil {
		t.Fatalf("TimeExchange: %v", err)
	}
	if len(conn.sends) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(conn.sends))
	}
	if r.ChunkSize != 524288 || r.NumFrames != 2 {
		t.Fatalf("unexpected shape: %+v", r)
	}
	if !almostEqual(r.LatencyMS, 2) {
		t.Fatalf("latency = %v, want 2", r.LatencyMS)
	}
	if !almostEqual(r.ThroughputMbps, 500100*8/1e6/0.002) {
		t.Fatalf("throughput = %v", r.ThroughputMbps)
	}
}

func TestTimeExchangeReportsTransportErrors(t *testing.T) {
	useClock(t, scriptClock(time.Millisecond))
	set := frames.Build([]byte("H"), []byte("DD"), 1)

	if _, err := TimeExchange(&fakeConn{sendErr: errors.New("boom")}, set, 1); err == nil || !strings.Contains(err.Error(), "send frames") {
		t.Fatalf("expected send error, got %v", err)
	}
	if _, err := TimeExchange(&fakeConn{recvErr: errors.New("boom")}, set, 1); err == nil || !strings.Contains(err.Error(), "receive reply") {
		t.Fatalf("expected receive error, got %v", err)
	}
}

func TestRunClientTestWarmsUpThenTimesSameFrames(t *testing.T) {
	useClock(t, scriptClock(time.Millisecond))
	d := &fakeDialer{}

	header := frames.Fill('H', 100)
	data := frames.Fill('D', 500000)
	r, err := RunClientTest(context.Background(), d.dial, "tcp://localhost:5555", header, data, 262144)
	if err != nil {
		t.Fatalf("RunClientTest: %v", err)
	}
	if r.NumFrames != 3 {
		t.Fatalf("expected 3 frames for 262144 byte chunks, got %d", r.NumFrames)
	}
	if len(d.conns) != 1 {
		t.Fatalf("expected one connection, got %d", len(d.conns))
	}
	conn := d.conns[0]
	if !conn.closed {
		t.Fatalf("connection not closed")
	}
	if len(conn.sends) != 2 {
		t.Fatalf("expected warm-up plus timed send, got %d", len(conn.sends))
	}
	for i := range conn.sends[0] {
		if !bytes.Equal(conn.sends[0][i], conn.sends[1][i]) {
			t.Fatalf("frame %d differs between warm-up and timed exchange", i)
		}
	}
	if len(conn.sends[0][0]) != 100 || conn.sends[0][0][0] != 'H' {
		t.Fatalf("first frame is not the header")
	}
}

func TestRunClientTestWarmUpFailureClosesConnection(t *testing.T) {
	conn := &fakeConn{recvErr: errors.New("gone")}
	dial := func(context.Context, string) (wire.Requester, error) { return conn, nil }

	_, err := RunClientTest(context.Background(), dial, "tcp://localhost:1", []byte("H"), []byte("D"), 1)
	if err == nil || !strings.Contains(err.Error(), "warm-up") {
		t.Fatalf("expected warm-up error, got %v", err)
	}
	if !conn.closed {
		t.Fatalf("connection not closed after failure")
	}
}

func TestDriverRunAveragesAndPicksBest(t *testing.T) {
	// Two runs per chunk size: 1024 averages 2.0ms, 8192 averages 1.5ms.
	useClock(t, scriptClock(
		1*time.Millisecond, 3*time.Millisecond,
		1*time.Millisecond, 2*time.Millisecond,
	))

	d := &fakeDialer{}
	var slept []time.Duration
	var events []Event
	drv := &Driver{
		Params: Params{
			Endpoint:   "tcp://localhost:5555",
			HeaderSize: 10,
			DataSize:   10000,
			ChunkSizes: []int{1024, 8192},
			Runs:       2,
			Pause:      DefaultPause,
		},
		Dial:     d.dial,
		Sleep:    func(p time.Duration) { slept = append(slept, p) },
		Observer: ObserverFunc(func(ev Event) { events = append(events, ev) }),
	}

	summary, err := drv.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(d.conns) != 4 {
		t.Fatalf("expected a fresh connection per run, got %d", len(d.conns))
	}
	for i, c := range d.conns {
		if !c.closed {
			t.Fatalf("connection %d left open", i)
		}
	}
	if len(slept) != 4 {
		t.Fatalf("expected a pause after each run, got %d", len(slept))
	}
	for _, p := range slept {
		if p != DefaultPause {
			t.Fatalf("pause = %s, want %s", p, DefaultPause)
		}
	}

	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(summary.Results))
	}
	first, second := summary.Results[0], summary.Results[1]
	if first.ChunkSize != 1024 || second.ChunkSize != 8192 {
		t.Fatalf("results out of order: %+v", summary.Results)
	}
	if first.NumFrames != frames.Count(10000, 1024) || second.NumFrames != frames.Count(10000, 8192) {
		t.Fatalf("unexpected frame counts: %+v", summary.Results)
	}
	if !almostEqual(first.LatencyMS, 2.0) || !almostEqual(second.LatencyMS, 1.5) {
		t.Fatalf("unexpected averages: %+v", summary.Results)
	}
	if summary.LowestLatency.ChunkSize != 8192 {
		t.Fatalf("lowest latency = %d, want 8192", summary.LowestLatency.ChunkSize)
	}
	if summary.HighestThroughput.ChunkSize != 8192 {
		t.Fatalf("highest throughput = %d, want 8192", summary.HighestThroughput.ChunkSize)
	}

	kinds := make([]EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	want := []EventKind{
		EventChunkStart, EventRunDone, EventRunDone, EventChunkDone,
		EventChunkStart, EventRunDone, EventRunDone, EventChunkDone,
	}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
	if events[2].Run != 2 || events[2].Runs != 2 {
		t.Fatalf("unexpected run numbering: %+v", events[2])
	}
}

func TestDriverRunWrapsRunErrors(t *testing.T) {
	dialErr := errors.New("refused")
	d := &fakeDialer{err: dialErr}
	drv := &Driver{
		Params: Params{Endpoint: "tcp://localhost:5555", DataSize: 10, ChunkSizes: []int{1024}, Runs: 1},
		Dial:   d.dial,
		Sleep:  func(time.Duration) {},
	}

	_, err := drv.Run(context.Background())
	if !errors.Is(err, dialErr) {
		t.Fatalf("expected dial error, got %v", err)
	}
	if !strings.Contains(err.Error(), "chunk size 1024, run 1") {
		t.Fatalf("error lacks run context: %v", err)
	}
}

func TestDriverRunRejectsInvalidParams(t *testing.T) {
	drv := &Driver{Params: Params{Endpoint: "tcp://localhost:5555", ChunkSizes: []int{1024}}}
	if _, err := drv.Run(context.Background()); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	valid := Params{Endpoint: "tcp://localhost:5555", HeaderSize: 100, DataSize: 500000, ChunkSizes: DefaultChunkSizes(), Runs: 5, Pause: DefaultPause}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	cases := map[string]func(p *Params){
		"endpoint":       func(p *Params) { p.Endpoint = "" },
		"header":         func(p *Params) { p.HeaderSize = -1 },
		"data":           func(p *Params) { p.DataSize = -1 },
		"runs":           func(p *Params) { p.Runs = 0 },
		"no chunks":      func(p *Params) { p.ChunkSizes = nil },
		"zero chunk":     func(p *Params) { p.ChunkSizes = []int{1024, 0} },
		"negative pause": func(p *Params) { p.Pause = -time.Second },
	}
	for name, mutate := range cases {
		p := valid
		p.ChunkSizes = append([]int(nil), valid.ChunkSizes...)
		mutate(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("%s: expected ErrInvalidParams, got %v", name, err)
		}
	}
}

func TestAverage(t *testing.T) {
	if got := Average(nil); got != (Result{}) {
		t.Fatalf("Average(nil) = %+v", got)
	}

	got := Average([]Result{
		{ChunkSize: 1024, NumFrames: 490, LatencyMS: 1, ThroughputMbps: 100},
		{ChunkSize: 1024, NumFrames: 490, LatencyMS: 2, ThroughputMbps: 200},
		{ChunkSize: 1024, NumFrames: 490, LatencyMS: 6, ThroughputMbps: 600},
	})
	if got.ChunkSize != 1024 || got.NumFrames != 490 {
		t.Fatalf("unexpected identity fields: %+v", got)
	}
	if !almostEqual(got.LatencyMS, 3) || !almostEqual(got.ThroughputMbps, 300) {
		t.Fatalf("unexpected means: %+v", got)
	}
}

func TestBestKeepsFirstOnTies(t *testing.T) {
	results := []Result{
		{ChunkSize: 1024, LatencyMS: 1.5, ThroughputMbps: 900},
		{ChunkSize: 8192, LatencyMS: 1.5, ThroughputMbps: 900},
		{ChunkSize: 16384, LatencyMS: 3, ThroughputMbps: 100},
	}
	lowest, highest := Best(results)
	if lowest.ChunkSize != 1024 || highest.ChunkSize != 1024 {
		t.Fatalf("ties should go to the first result: %+v %+v", lowest, highest)
	}

	lowest, highest = Best(nil)
	if lowest != (Result{}) || highest != (Result{}) {
		t.Fatalf("Best(nil) should be zero values")
	}
}

func TestDefaultChunkSizes(t *testing.T) {
	sizes := DefaultChunkSizes()
	if len(sizes) != 8 || sizes[0] != 1024 || sizes[len(sizes)-1] != 524288 {
		t.Fatalf("unexpected defaults: %v", sizes)
	}
	sizes[0] = 1
	if DefaultChunkSizes()[0] != 1024 {
		t.Fatalf("DefaultChunkSizes must return a fresh slice")
	}
}
