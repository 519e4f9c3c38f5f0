package config

import "fmt"

// Templates lists the sample configurations `config generate --template`
// accepts (spec.md §6).
var Templates = []string{"basic", "web_server", "dns_server", "high_performance"}

// Template builds a named sample configuration, starting from
// DefaultConfig and adjusting the fields that make each template distinct.
func Template(name string) (*Config, error) {
	cfg := DefaultConfig()

	switch name {
	case "basic":
		// DefaultConfig already is the basic template: low rate, dry-run.
		return cfg, nil

	case "web_server":
		cfg.Target.Ports = []uint16{80, 443}
		cfg.Target.ProtocolMix = ProtocolMixRatio{TCPSynRatio: 0.6, TCPAckRatio: 0.4}
		cfg.Attack.PacketRate = 5000
		cfg.Attack.BurstPattern = BurstPattern{Kind: BurstSustained, Sustained: &SustainedPattern{Rate: 5000}}
		return cfg, nil

	case "dns_server":
		cfg.Target.Ports = []uint16{53}
		cfg.Target.ProtocolMix = ProtocolMixRatio{UDPRatio: 1.0}
		cfg.Attack.PacketRate = 2000
		cfg.Attack.PacketSizeRange = [2]int{40, 128}
		cfg.Attack.BurstPattern = BurstPattern{Kind: BurstSustained, Sustained: &SustainedPattern{Rate: 2000}}
		return cfg, nil

	case "high_performance":
		cfg.Attack.Threads = 32
		cfg.Attack.PacketRate = 50_000
		cfg.Attack.CPUAffinity = true
		cfg.Attack.BurstPattern = BurstPattern{Kind: BurstSustained, Sustained: &SustainedPattern{Rate: 50_000}}
		cfg.Safety.MaxThreads = 128
		cfg.Safety.MaxPacketRate = 100_000
		return cfg, nil

	default:
		return nil, fmt.Errorf("config: unknown template %q, expected one of %v", name, Templates)
	}
}
