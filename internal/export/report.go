// Package export implements the stats export schema (spec.md §6): a stable
// JSON/CSV report shape derived from a stats.Snapshot, Prometheus gauges for
// scraping a live run, and on-disk report storage with retention, grounded
// on pkg/reporting/storage.go's Storage{outputDir, keepLastN} pattern.
package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/stats"
)

// SystemStats is the optional host resource snapshot included when
// export.include_system_stats is set (spec.md §6).
type SystemStats struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	MemoryTotal uint64  `json:"memory_total"`
}

// Report is the stable-field-name export schema from spec.md §6. Field
// names and nesting are part of the contract; do not rename without
// updating both the JSON and CSV writers together.
type Report struct {
	SessionID         string            `json:"session_id"`
	Timestamp         time.Time         `json:"timestamp"`
	PacketsSent       uint64            `json:"packets_sent"`
	PacketsFailed     uint64            `json:"packets_failed"`
	BytesSent         uint64            `json:"bytes_sent"`
	DurationSecs      float64           `json:"duration_secs"`
	PacketsPerSecond  float64           `json:"packets_per_second"`
	MegabitsPerSecond float64           `json:"megabits_per_second"`
	ProtocolBreakdown map[string]uint64 `json:"protocol_breakdown"`
	SystemStats       *SystemStats      `json:"system_stats,omitempty"`
}

// NewReport builds a Report from a snapshot, stamped with the given session
// ID. now and sessionID are parameters (not time.Now/uuid.New directly) so
// callers can pass deterministic values in tests.
func NewReport(snap stats.Snapshot, now time.Time, sessionID string, sys *SystemStats) Report {
	breakdown := make(map[string]uint64, domain.NumKinds)
	for i, k := range domain.AllKinds {
		if snap.PerProtocol[i] > 0 {
			breakdown[k.Tag()] = snap.PerProtocol[i]
		}
	}

	return Report{
		SessionID:         sessionID,
		Timestamp:         now,
		PacketsSent:       snap.Sent,
		PacketsFailed:     snap.Failed,
		BytesSent:         snap.Bytes,
		DurationSecs:      snap.Elapsed.Seconds(),
		PacketsPerSecond:  snap.PacketsPerSecond(),
		MegabitsPerSecond: snap.Megabits(),
		ProtocolBreakdown: breakdown,
		SystemStats:       sys,
	}
}

// NewSessionID mints a fresh session identifier for a Report, wrapping
// uuid.New so the rest of the package never imports uuid directly.
func NewSessionID() string {
	return uuid.New().String()
}
