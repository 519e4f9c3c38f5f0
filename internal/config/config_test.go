package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/packetgen/packetgen/internal/domain"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target.IP = "10.0.0.1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config (with an IP set) to validate, got: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Framework.LogLevel != "info" {
		t.Fatalf("expected defaults, got %+v", cfg.Framework)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packetgen.yaml")

	cfg := DefaultConfig()
	cfg.Target.IP = "192.168.1.5"
	cfg.Attack.Threads = 8

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Target.IP != "192.168.1.5" || loaded.Attack.Threads != 8 {
		t.Fatalf("round-tripped config mismatch: %+v", loaded)
	}
	if loaded.Attack.BurstPattern.Kind != BurstSustained {
		t.Fatalf("expected burst pattern to round-trip as sustained, got %+v", loaded.Attack.BurstPattern)
	}
	if loaded.Attack.BurstPattern.Sustained == nil || loaded.Attack.BurstPattern.Sustained.Rate != 1000 {
		t.Fatalf("expected sustained rate to round-trip, got %+v", loaded.Attack.BurstPattern.Sustained)
	}
}

func TestEnvVarExpansionInConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packetgen.yaml")
	t.Setenv("PACKETGEN_TEST_IP", "172.16.0.9")

	content := "target:\n  ip: \"${PACKETGEN_TEST_IP}\"\n  ports: [80]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Target.IP != "172.16.0.9" {
		t.Fatalf("expected env var expansion, got %q", cfg.Target.IP)
	}
}

func TestValidateRejectsEmptyTargetIP(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty target.ip")
	}
}

func TestValidateRejectsBadExportFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target.IP = "10.0.0.1"
	cfg.Export.Enabled = true
	cfg.Export.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported export format")
	}
}

func TestProtocolMixRatioToDomainSplitsIPv6Evenly(t *testing.T) {
	mix := ProtocolMixRatio{IPv6Ratio: 0.3}.ToDomain()
	sum := mix.Sum()
	if diff := sum - 0.3; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected ipv6_ratio to be preserved across the split, got sum %v", sum)
	}
	for _, k := range []domain.PacketKind{domain.KindUDPv6, domain.KindTCPv6, domain.KindICMPv6} {
		if diff := mix.Weights[k] - 0.1; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("expected %s to get an even third (0.1) of ipv6_ratio, got %v", k.Tag(), mix.Weights[k])
		}
	}
}
