// Package config implements the YAML configuration schema of spec.md §6,
// grounded on the teacher's pkg/config/config.go: a Config struct tree with
// DefaultConfig/Load/Save/Validate, environment-variable expansion before
// YAML unmarshal, and a flat error-on-first-bad-field Validate.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/packetgen/packetgen/internal/domain"
)

// Config is the root of the YAML schema (spec.md §6 "Configuration file").
type Config struct {
	Target     TargetConfig     `yaml:"target"`
	Attack     AttackConfig     `yaml:"attack"`
	Safety     SafetyConfig     `yaml:"safety"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Export     ExportConfig     `yaml:"export"`
	Framework  FrameworkConfig  `yaml:"framework"`
}

// TargetConfig names the destination and the protocol mix sent at it.
type TargetConfig struct {
	IP           string           `yaml:"ip"`
	Ports        []uint16         `yaml:"ports"`
	ProtocolMix  ProtocolMixRatio `yaml:"protocol_mix"`
	Interface    string           `yaml:"interface"`
}

// ProtocolMixRatio is the YAML-facing ratio form of domain.ProtocolMix,
// named per-kind instead of indexed, matching spec.md §6's
// `target.protocol_mix.{udp, tcp_syn, tcp_ack, icmp, ipv6, arp}_ratio` keys.
type ProtocolMixRatio struct {
	UDPRatio    float64 `yaml:"udp_ratio"`
	TCPSynRatio float64 `yaml:"tcp_syn_ratio"`
	TCPAckRatio float64 `yaml:"tcp_ack_ratio"`
	ICMPRatio   float64 `yaml:"icmp_ratio"`
	IPv6Ratio   float64 `yaml:"ipv6_ratio"`
	ARPRatio    float64 `yaml:"arp_ratio"`
}

// ToDomain builds a domain.ProtocolMix from the ratio fields. The spec's
// ipv6_ratio lumps every IPv6 kind under one knob; it's split evenly across
// UDPv6/TCPv6/ICMPv6 since the schema has no finer IPv6 sub-ratios.
func (p ProtocolMixRatio) ToDomain() domain.ProtocolMix {
	weights := map[domain.PacketKind]float64{
		domain.KindUDPv4:    p.UDPRatio,
		domain.KindTCPv4SYN: p.TCPSynRatio,
		domain.KindTCPv4ACK: p.TCPAckRatio,
		domain.KindICMPv4:   p.ICMPRatio,
		domain.KindARP:      p.ARPRatio,
	}
	if p.IPv6Ratio > 0 {
		third := p.IPv6Ratio / 3
		weights[domain.KindUDPv6] = third
		weights[domain.KindTCPv6] = third
		weights[domain.KindICMPv6] = third
	}
	return domain.NewProtocolMix(weights)
}

// AttackConfig controls the worker fleet's shape and rate (spec.md §6
// "attack.*" keys).
type AttackConfig struct {
	Threads         int          `yaml:"threads"`
	PacketRate      int          `yaml:"packet_rate"`
	Duration        time.Duration `yaml:"duration"`
	PacketSizeRange [2]int       `yaml:"packet_size_range"`
	BurstPattern    BurstPattern `yaml:"burst_pattern"`
	Jitter          bool         `yaml:"jitter"`
	CPUAffinity     bool         `yaml:"cpu_affinity"`
}

// SafetyConfig mirrors internal/safety.Limits plus the run-mode switches
// spec.md §6 names under "safety.*".
type SafetyConfig struct {
	DryRun               bool    `yaml:"dry_run"`
	PerfectSimulation    bool    `yaml:"perfect_simulation"`
	RequirePrivateRanges bool    `yaml:"require_private_ranges"`
	MaxThreads           int     `yaml:"max_threads"`
	MaxPacketRate        int     `yaml:"max_packet_rate"`
	MaxBandwidthBps      float64 `yaml:"max_bandwidth_bps"`
}

// MonitoringConfig controls how often stats are sampled and exported.
type MonitoringConfig struct {
	StatsInterval    time.Duration `yaml:"stats_interval"`
	SystemMonitoring bool          `yaml:"system_monitoring"`
	ExportInterval   time.Duration `yaml:"export_interval"`
}

// ExportConfig controls the export collaborator (internal/export).
type ExportConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Format             string `yaml:"format"` // json, csv, both
	OutputDir          string `yaml:"output_dir"`
	FilenamePattern    string `yaml:"filename_pattern"`
	IncludeSystemStats bool   `yaml:"include_system_stats"`
	KeepLastN          int    `yaml:"keep_last_n"`
	PrometheusAddr     string `yaml:"prometheus_addr"`
	AuditLogPath       string `yaml:"audit_log_path"`
}

// FrameworkConfig is the ambient logging configuration, shaped like the
// teacher's FrameworkConfig.
type FrameworkConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns a conservative, dry-run-first default configuration,
// following the teacher's DefaultConfig shape field for field.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Ports: []uint16{80},
			ProtocolMix: ProtocolMixRatio{
				UDPRatio: 1.0,
			},
		},
		Attack: AttackConfig{
			Threads:         4,
			PacketRate:      1000,
			Duration:        30 * time.Second,
			PacketSizeRange: [2]int{64, 512},
			BurstPattern:    BurstPattern{Kind: BurstSustained, Sustained: &SustainedPattern{Rate: 1000}},
		},
		Safety: SafetyConfig{
			DryRun:               true,
			RequirePrivateRanges: true,
			MaxThreads:           100,
			MaxPacketRate:        10_000,
		},
		Monitoring: MonitoringConfig{
			StatsInterval:  time.Second,
			ExportInterval: 5 * time.Second,
		},
		Export: ExportConfig{
			Format:       "json",
			OutputDir:    "./reports",
			KeepLastN:    50,
			AuditLogPath: "./reports/audit.jsonl",
		},
		Framework: FrameworkConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// Load reads path, overlaying it onto DefaultConfig after expanding
// environment variable references (os.ExpandEnv), exactly as the teacher's
// Load does. A missing file is not an error — it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "packetgen.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate returns the first structurally invalid field it finds. It does
// not duplicate the Safety Gate's semantic checks (private-range, mix-sum,
// etc — internal/safety owns those with the actual parsed domain.Target);
// this only catches config-file-shape problems early, e.g. from
// `config validate`.
func (c *Config) Validate() error {
	if c.Target.IP == "" {
		return fmt.Errorf("target.ip is required")
	}
	if len(c.Target.Ports) == 0 {
		return fmt.Errorf("target.ports must be non-empty")
	}
	if c.Attack.Threads < 1 {
		return fmt.Errorf("attack.threads must be at least 1")
	}
	if c.Attack.PacketRate < 1 {
		return fmt.Errorf("attack.packet_rate must be at least 1")
	}
	if c.Attack.PacketSizeRange[0] > c.Attack.PacketSizeRange[1] {
		return fmt.Errorf("attack.packet_size_range: min exceeds max")
	}
	if c.Export.Enabled {
		switch c.Export.Format {
		case "json", "csv", "both":
		default:
			return fmt.Errorf("export.format must be one of json, csv, both, got %q", c.Export.Format)
		}
	}
	return nil
}
