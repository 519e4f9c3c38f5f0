// Package tui implements the live run view named in spec.md §6 ("the
// interactive TUI" collaborator): a bubbletea program showing PPS, protocol
// breakdown, and elapsed/remaining time while a simulation runs, colored
// via fatih/color. Grounded on nabbar-golib's cobra/ui model/update/view
// shape (Init/Update/View, a polling tea.Msg, cursor-free here since this
// view is read-only rather than interactive).
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/stats"
)

// tickInterval is how often the model polls Global for a fresh snapshot.
const tickInterval = 200 * time.Millisecond

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgHiBlack)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
)

// tickMsg drives the periodic re-render; its payload is the snapshot taken
// at tick time.
type tickMsg stats.Snapshot

// Model is the bubbletea model for a live run view. It never mutates the
// run itself (unlike nabbar-golib's prompt UI, which drives cobra input);
// it only polls and renders.
type Model struct {
	target   string
	duration time.Duration
	start    time.Time
	snapshot func() stats.Snapshot

	last   stats.Snapshot
	done   bool
	doneAt time.Time
}

// NewModel builds a Model polling snapshot for target, with duration 0
// meaning "run until stopped externally".
func NewModel(target string, duration time.Duration, snapshot func() stats.Snapshot) Model {
	return Model{
		target:   target,
		duration: duration,
		start:    time.Now(),
		snapshot: snapshot,
	}
}

func (m Model) Init() tea.Cmd {
	return tick(m.snapshot)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			m.doneAt = time.Now()
			return m, tea.Quit
		}
	case tickMsg:
		m.last = stats.Snapshot(msg)
		if m.duration > 0 && time.Since(m.start) >= m.duration {
			m.done = true
			m.doneAt = time.Now()
			return m, tea.Quit
		}
		return m, tick(m.snapshot)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	headerColor.Fprintf(&b, "packetgen  %s\n", m.target)
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n")

	elapsed := time.Since(m.start)
	if m.done {
		elapsed = m.doneAt.Sub(m.start)
	}

	labelColor.Fprint(&b, "elapsed:  ")
	fmt.Fprintf(&b, "%s", elapsed.Round(time.Second))
	if m.duration > 0 {
		labelColor.Fprint(&b, "  remaining: ")
		remaining := m.duration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		fmt.Fprintf(&b, "%s", remaining.Round(time.Second))
	}
	b.WriteString("\n")

	labelColor.Fprint(&b, "sent:     ")
	okColor.Fprintf(&b, "%d", m.last.Sent)
	labelColor.Fprint(&b, "   failed: ")
	if m.last.Failed > 0 {
		warnColor.Fprintf(&b, "%d", m.last.Failed)
	} else {
		fmt.Fprintf(&b, "%d", m.last.Failed)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "pps:      %.0f\n", m.last.PacketsPerSecond())
	fmt.Fprintf(&b, "mbps:     %.2f\n", m.last.Megabits())

	b.WriteString("\n")
	labelColor.Fprint(&b, "protocol breakdown:\n")
	for _, row := range breakdownRows(m.last) {
		fmt.Fprintf(&b, "  %-8s %d\n", row.tag, row.count)
	}

	if m.done {
		b.WriteString("\n(finished — press any key to exit)\n")
	} else {
		b.WriteString("\n(press q to stop)\n")
	}

	return b.String()
}

type breakdownRow struct {
	tag   string
	count uint64
}

// breakdownRows renders only kinds with at least one packet sent, sorted by
// descending count so the dominant protocol always appears first.
func breakdownRows(snap stats.Snapshot) []breakdownRow {
	rows := make([]breakdownRow, 0, domain.NumKinds)
	for i, k := range domain.AllKinds {
		if snap.PerProtocol[i] > 0 {
			rows = append(rows, breakdownRow{tag: k.Tag(), count: snap.PerProtocol[i]})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].count > rows[j].count })
	return rows
}

func tick(snapshot func() stats.Snapshot) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg(snapshot())
	})
}

// Run starts a bubbletea program rendering m until the user quits or the
// model's own duration elapses. It blocks until the program exits.
func Run(m Model) error {
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}
