// internal/report/report.go
// Package report renders benchmark progress and results for the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/mwiater/framebench/internal/benchmark"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	bestLatency    = color.New(color.FgGreen).SprintFunc()
	bestThroughput = color.New(color.FgCyan).SprintFunc()
)

// Columns are the results table headings.
var Columns = []string{"Chunk Size (bytes)", "# Frames", "Avg Latency (ms)", "Avg Throughput (Mbps)"}

// Printer writes the plain-text progress log of a benchmark. It satisfies benchmark.Observer.
type Printer struct {
	out io.Writer
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Banner announces the payload shape and run count before the first exchange.
func (p *Printer) Banner(params benchmark.Params) {
	fmt.Fprintf(p.out, "Starting benchmark with %d byte header and %.1fKB data\n", params.HeaderSize, float64(params.DataSize)/1000)
	fmt.Fprintf(p.out, "Running %d tests per chunk size\n", params.Runs)
}

// Observe prints a heading per chunk size and one line per run.
func (p *Printer) Observe(ev benchmark.Event) {
	switch ev.Kind {
	case benchmark.EventChunkStart:
		fmt.Fprintf(p.out, "\nBenchmarking chunk size: %d bytes\n", ev.ChunkSize)
	case benchmark.EventRunDone:
		fmt.Fprintf(p.out, "  Run %d: Latency=%.2fms, Throughput=%.2fMbps\n", ev.Run, ev.Result.LatencyMS, ev.Result.ThroughputMbps)
	}
}

// RenderTable returns the averaged results as a bordered table.
func RenderTable(results []benchmark.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(r.ChunkSize),
			strconv.Itoa(r.NumFrames),
			fmt.Sprintf("%.2f", r.LatencyMS),
			fmt.Sprintf("%.2f", r.ThroughputMbps),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.String()
}

// PrintResults writes the results section.
func PrintResults(out io.Writer, s benchmark.Summary) {
	fmt.Fprintln(out, "\n=== BENCHMARK RESULTS ===")
	fmt.Fprintln(out, RenderTable(s.Results))
}

// PrintSummary writes the best latency and best throughput configurations.
func PrintSummary(out io.Writer, s benchmark.Summary) {
	fmt.Fprintln(out, "\n=== SUMMARY ===")
	if len(s.Results) == 0 {
		fmt.Fprintln(out, "No results.")
		return
	}
	fmt.Fprintf(out, "Lowest latency: %s\n",
		bestLatency(fmt.Sprintf("%d bytes (%.2fms)", s.LowestLatency.ChunkSize, s.LowestLatency.LatencyMS)))
	fmt.Fprintf(out, "Highest throughput: %s\n",
		bestThroughput(fmt.Sprintf("%d bytes (%.2fMbps)", s.HighestThroughput.ChunkSize, s.HighestThroughput.ThroughputMbps)))
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(out io.Writer, s benchmark.Summary) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}
