// internal/tui/progress.go
// Package tui provides the live progress view shown while a benchmark runs.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/framebench/internal/benchmark"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type eventMsg benchmark.Event

type doneMsg struct{}

func waitForEvent(buf *eventBuffer) tea.Cmd {
	return func() tea.Msg {
		ev, ok := buf.next()
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

type model struct {
	buf         *eventBuffer
	spinner     spinner.Model
	params      benchmark.Params
	chunkIndex  int
	chunkSize   int
	run         int
	completed   []benchmark.Result
	done        bool
	interrupted bool
	onInterrupt func()
}

func newModel(buf *eventBuffer, params benchmark.Params, onInterrupt func()) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		buf:         buf,
		spinner:     s,
		params:      params,
		onInterrupt: onInterrupt,
	}
}

// Init starts the spinner and the first wait on the event buffer.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.buf))
}

// Update applies driver events and key presses to the model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		ev := benchmark.Event(msg)
		switch ev.Kind {
		case benchmark.EventChunkStart:
			m.chunkIndex++
			m.chunkSize = ev.ChunkSize
			m.run = 0
		case benchmark.EventRunDone:
			m.run = ev.Run
		case benchmark.EventChunkDone:
			m.completed = append(m.completed, ev.Result)
		}
		return m, waitForEvent(m.buf)

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders finished chunk sizes and the one in flight.
func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("framebench %s", m.params.Endpoint)))
	b.WriteString("\n\n")

	for _, r := range m.completed {
		b.WriteString(doneStyle.Render(fmt.Sprintf("  ✓ %d bytes", r.ChunkSize)))
		b.WriteString(fmt.Sprintf(" %d frames, %.2fms, %.2fMbps\n", r.NumFrames, r.LatencyMS, r.ThroughputMbps))
	}

	switch {
	case m.interrupted:
		b.WriteString("\n  interrupted\n")
	case m.done:
		b.WriteString("\n  done\n")
	case m.chunkSize == 0:
		b.WriteString(fmt.Sprintf("\n  %s waiting for responder...\n", m.spinner.View()))
	default:
		b.WriteString(fmt.Sprintf("\n  %s chunk size %d bytes, run %d/%d ", m.spinner.View(), m.chunkSize, m.run+1, m.params.Runs))
		b.WriteString(dimStyle.Render(fmt.Sprintf("(%d/%d)", m.chunkIndex, len(m.params.ChunkSizes))))
		b.WriteString("\n")
	}
	return b.String()
}

// Progress runs the progress view on its own goroutine and feeds it driver events.
// It satisfies benchmark.Observer.
type Progress struct {
	buf     *eventBuffer
	program *tea.Program
	done    chan struct{}
	err     error
}

// NewProgress builds a progress view for params. onInterrupt is called when
// the user presses ctrl+c.
func NewProgress(params benchmark.Params, onInterrupt func(), opts ...tea.ProgramOption) *Progress {
	buf := newEventBuffer()
	return &Progress{
		buf:     buf,
		program: tea.NewProgram(newModel(buf, params, onInterrupt), opts...),
		done:    make(chan struct{}),
	}
}

// Start launches the bubbletea program.
func (p *Progress) Start() {
	go func() {
		defer close(p.done)
		if _, err := p.program.Run(); err != nil {
			p.err = fmt.Errorf("progress view: %w", err)
		}
	}()
}

// Observe queues ev for rendering without blocking.
func (p *Progress) Observe(ev benchmark.Event) {
	p.buf.push(ev)
}

// Stop lets the view drain the remaining events, then waits for it to exit.
func (p *Progress) Stop() error {
	p.buf.close()
	<-p.done
	return p.err
}
