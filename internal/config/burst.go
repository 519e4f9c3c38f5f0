package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// BurstKind discriminates the burst_pattern tagged union (spec.md §6:
// "one of: !Sustained{rate}, !Bursts{burst_size, burst_interval_ms},
// !Ramp{start_rate, end_rate, ramp_duration}").
type BurstKind string

const (
	BurstSustained BurstKind = "sustained"
	BurstBursts    BurstKind = "bursts"
	BurstRamp      BurstKind = "ramp"
)

// SustainedPattern sends at a constant rate — the only pattern the driver
// actually implements.
type SustainedPattern struct {
	Rate int `yaml:"rate"`
}

// BurstsPattern parses but is not wired to the driver (spec.md §9: "don't
// guess semantics for burst/ramp patterns").
type BurstsPattern struct {
	BurstSize       int `yaml:"burst_size"`
	BurstIntervalMs int `yaml:"burst_interval_ms"`
}

// RampPattern parses but is not wired to the driver, same as BurstsPattern.
type RampPattern struct {
	StartRate    int           `yaml:"start_rate"`
	EndRate      int           `yaml:"end_rate"`
	RampDuration time.Duration `yaml:"ramp_duration"`
}

// BurstPattern is a YAML tagged union: exactly one of Sustained, Bursts, or
// Ramp is set, selected by Kind. UnmarshalYAML/MarshalYAML implement the
// `!Sustained`/`!Bursts`/`!Ramp` tag dispatch by hand since yaml.v3 has no
// built-in tagged-union support.
type BurstPattern struct {
	Kind      BurstKind
	Sustained *SustainedPattern
	Bursts    *BurstsPattern
	Ramp      *RampPattern
}

// ErrBurstPatternNotImplemented is returned by RequireSustained for the
// Bursts/Ramp variants, per spec.md §9's explicit direction not to invent
// their runtime semantics.
var ErrBurstPatternNotImplemented = fmt.Errorf("config: burst pattern not implemented by the driver")

// RequireSustained extracts the Sustained pattern or returns a structured
// not-implemented error for Bursts/Ramp, used where the driver needs a flat
// rate rather than the whole union (spec.md §9).
func (b BurstPattern) RequireSustained() (*SustainedPattern, error) {
	if b.Kind == BurstSustained && b.Sustained != nil {
		return b.Sustained, nil
	}
	return nil, fmt.Errorf("%w: burst_pattern kind %q", ErrBurstPatternNotImplemented, b.Kind)
}

func (b *BurstPattern) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!Sustained":
		var s SustainedPattern
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("config: decode !Sustained burst pattern: %w", err)
		}
		b.Kind, b.Sustained = BurstSustained, &s
	case "!Bursts":
		var s BurstsPattern
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("config: decode !Bursts burst pattern: %w", err)
		}
		b.Kind, b.Bursts = BurstBursts, &s
	case "!Ramp":
		var s RampPattern
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("config: decode !Ramp burst pattern: %w", err)
		}
		b.Kind, b.Ramp = BurstRamp, &s
	default:
		return fmt.Errorf("config: unknown burst_pattern tag %q, expected !Sustained, !Bursts, or !Ramp", value.Tag)
	}
	return nil
}

func (b BurstPattern) MarshalYAML() (interface{}, error) {
	var inner any
	var tag string
	switch b.Kind {
	case BurstSustained:
		inner, tag = b.Sustained, "!Sustained"
	case BurstBursts:
		inner, tag = b.Bursts, "!Bursts"
	case BurstRamp:
		inner, tag = b.Ramp, "!Ramp"
	default:
		return nil, fmt.Errorf("config: cannot marshal burst pattern with unset kind")
	}

	node := &yaml.Node{}
	if err := node.Encode(inner); err != nil {
		return nil, fmt.Errorf("config: encode burst pattern: %w", err)
	}
	node.Tag = tag
	return node, nil
}
