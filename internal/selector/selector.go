// Package selector implements the Protocol Selector (spec.md §4.5): a
// length-100 schedule of packet kinds, built once from a weighted mix and
// then walked by a rotating index so the hot path costs one increment and
// one array lookup, with zero branching on the mix itself.
package selector

import (
	"sort"

	"github.com/packetgen/packetgen/internal/domain"
)

const scheduleLen = 100

// Selector hands out the next packet kind to send, cycling through a
// precomputed schedule. Not safe for concurrent use — each worker owns one.
type Selector struct {
	schedule []domain.PacketKind
	idx      int
}

// New builds a Selector's schedule from mix, pre-pruned to only the kinds
// valid for family/hasL2, shuffled once by shuffle (if non-nil) so runs of the same kind
// don't cluster, per spec.md §4.5.
func New(mix domain.ProtocolMix, family domain.Family, hasL2 bool, shuffle func([]domain.PacketKind)) *Selector {
	schedule := buildSchedule(mix, family, hasL2)
	if shuffle != nil {
		shuffle(schedule)
	}
	return &Selector{schedule: schedule}
}

// buildSchedule allocates scheduleLen slots proportionally to weight among
// the kinds compatible with family/hasL2, using the largest-remainder method
// so integer slot counts sum exactly to scheduleLen: leftover slots from
// rounding go to the kinds with the largest fractional remainder, and equal
// remainders go to the highest-weight kind first (spec.md §4.5
// "tie-break when rounding weights").
func buildSchedule(mix domain.ProtocolMix, family domain.Family, hasL2 bool) []domain.PacketKind {
	type entry struct {
		kind      domain.PacketKind
		weight    float64
		slots     int
		remainder float64
	}

	var entries []entry
	var total float64
	for _, k := range domain.AllKinds {
		w := mix.Weights[k]
		if w <= 0 {
			continue
		}
		if k == domain.KindARP {
			if !k.CompatibleWithL2(hasL2) {
				continue
			}
		} else if !k.CompatibleWith(family) {
			continue
		}
		entries = append(entries, entry{kind: k, weight: w})
		total += w
	}
	if len(entries) == 0 || total <= 0 {
		return nil
	}

	assigned := 0
	for i := range entries {
		exact := entries[i].weight / total * float64(scheduleLen)
		entries[i].slots = int(exact)
		entries[i].remainder = exact - float64(entries[i].slots)
		assigned += entries[i].slots
	}

	leftover := scheduleLen - assigned
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ea, eb := entries[order[a]], entries[order[b]]
		if ea.remainder != eb.remainder {
			return ea.remainder > eb.remainder
		}
		// tie-break to the highest-weight kind first, per spec.md §4.5.
		if ea.weight != eb.weight {
			return ea.weight > eb.weight
		}
		return ea.kind < eb.kind
	})
	for i := 0; i < leftover && i < len(order); i++ {
		entries[order[i]].slots++
	}

	schedule := make([]domain.PacketKind, 0, scheduleLen)
	for _, e := range entries {
		for i := 0; i < e.slots; i++ {
			schedule = append(schedule, e.kind)
		}
	}
	return schedule
}

// Next returns the next kind in the schedule and advances the rotating
// index. Panics only if the Selector was built from an empty schedule,
// which the Safety Gate's ProtocolMix.HasAnyValidFor check is meant to
// prevent before a Selector is ever constructed.
func (s *Selector) Next() domain.PacketKind {
	k := s.schedule[s.idx]
	s.idx++
	if s.idx >= len(s.schedule) {
		s.idx = 0
	}
	return k
}

// Len reports the number of slots in the schedule (normally scheduleLen,
// but may be less if rounding dropped the total below it — never the case
// in practice since leftover slots always cover the gap).
func (s *Selector) Len() int { return len(s.schedule) }

// Empty reports whether no kind survived pruning for this family/hasL2
// combination.
func (s *Selector) Empty() bool { return len(s.schedule) == 0 }
