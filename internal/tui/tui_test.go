package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/stats"
)

func TestViewRendersBreakdownSortedByCount(t *testing.T) {
	snap := stats.Snapshot{Sent: 120, Failed: 3}
	snap.PerProtocol[domain.KindUDPv4] = 20
	snap.PerProtocol[domain.KindTCPv4SYN] = 100

	m := NewModel("10.0.0.1:80", 0, func() stats.Snapshot { return snap })
	updated, _ := m.Update(tickMsg(snap))
	view := updated.(Model).View()

	tcpIdx := strings.Index(view, "TCP_SYN")
	udpIdx := strings.Index(view, "UDP")
	if tcpIdx == -1 || udpIdx == -1 {
		t.Fatalf("expected both protocol tags in view, got:\n%s", view)
	}
	if tcpIdx > udpIdx {
		t.Fatalf("expected higher-count protocol (TCP_SYN) listed before UDP, got:\n%s", view)
	}
}

func TestUpdateQuitsAfterDurationElapses(t *testing.T) {
	m := NewModel("10.0.0.1:80", 10*time.Millisecond, func() stats.Snapshot { return stats.Snapshot{} })
	time.Sleep(15 * time.Millisecond)

	updated, cmd := m.Update(tickMsg(stats.Snapshot{Sent: 5}))
	if !updated.(Model).done {
		t.Fatalf("expected model to mark itself done once duration elapsed")
	}
	if cmd == nil {
		t.Fatalf("expected a quit command once duration elapsed")
	}
}

func TestUpdateQuitsOnCtrlC(t *testing.T) {
	m := NewModel("10.0.0.1:80", 0, func() stats.Snapshot { return stats.Snapshot{} })
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !updated.(Model).done {
		t.Fatalf("expected ctrl+c to mark the model done")
	}
	if cmd == nil {
		t.Fatalf("expected a quit command on ctrl+c")
	}
}
