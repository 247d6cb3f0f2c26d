package signal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/synaptic-mem/engram/pkg/signal"
)

func TestReinforceClampsAtOne(t *testing.T) {
	assert.InDelta(t, 1.0, signal.Reinforce(0.5, 0.6), 1e-9)
	assert.InDelta(t, 0.6, signal.Reinforce(0.5, 0.1), 1e-9)
}

func TestDecaySequence(t *testing.T) {
	s := 0.1
	s = signal.Decay(s, 0.9, 0.01)
	assert.InDelta(t, 0.09, s, 1e-9)
	s = signal.Decay(s, 0.9, 0.01)
	assert.InDelta(t, 0.081, s, 1e-9)
}

func TestDecayFloorsAtMinSignal(t *testing.T) {
	s := 0.02
	for i := 0; i < 50; i++ {
		s = signal.Decay(s, 0.5, 0.01)
	}
	assert.Equal(t, 0.01, s)
}

func TestDecayWithRateOneIsNoOp(t *testing.T) {
	assert.Equal(t, 0.42, signal.Decay(0.42, 1.0, 0.01))
}

func TestDecayBelowFloorUntouched(t *testing.T) {
	assert.Equal(t, 0.005, signal.Decay(0.005, 0.5, 0.01))
}
