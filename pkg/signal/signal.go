// Package signal implements per-engram and per-synapse signal dynamics:
// saturating reinforcement and per-strand multiplicative decay (spec §4.2).
// Grounded on the goblincore/geoffreyengram reference's ReinforceSalience/
// DecayScore idiom (reinforce-then-clamp, decay-with-floor) applied to the
// engine's own Strand-keyed rate table.
package signal

import "github.com/synaptic-mem/engram/pkg/core"

// Default boosts and decay parameters, read-only after initialization
// (spec §5).
const (
	DefaultEngramBoost  = 0.1
	DefaultSynapseBoost = 0.05
	MinSignal           = 0.01
)

// DefaultDecayRates returns the per-strand multiplicative decay rate table.
func DefaultDecayRates() map[core.Strand]float64 {
	return map[core.Strand]float64{
		core.StrandFactual:      0.95,
		core.StrandExperiential: 0.90,
		core.StrandProcedural:   0.97,
		core.StrandPreferential: 0.93,
		core.StrandRelational:   0.92,
		core.StrandGeneral:      0.88,
	}
}

// Reinforce raises signal by boost, clamped to 1.0.
func Reinforce(signal, boost float64) float64 {
	next := signal + boost
	if next > 1.0 {
		return 1.0
	}
	return next
}

// Decay applies one multiplicative decay step, floored at minSignal. Values
// already at or below minSignal are left unchanged (spec §4.2: decay only
// applies "to all engrams of the owner with signal > minSignal").
func Decay(signal, rate, minSignal float64) float64 {
	if signal <= minSignal {
		return signal
	}
	next := signal * rate
	if next < minSignal {
		return minSignal
	}
	return next
}
