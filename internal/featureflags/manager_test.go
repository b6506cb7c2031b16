package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	assert.True(t, m.Enabled("a", 1))
	assert.True(t, m.Enabled("c", 1))
	assert.True(t, m.Enabled("e", 1))
	assert.False(t, m.Enabled("b", 1))
	assert.False(t, m.Enabled("d", 1))
	assert.False(t, m.Enabled("f", 1))
	assert.False(t, m.Enabled("missing", 1))
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	assert.True(t, m.Enabled("always", 0))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("broken", 1))

	first := m.Enabled("canary", 42)
	for range 5 {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires a user")
}

func TestLiveCountersDefault(t *testing.T) {
	assert.True(t, NewManager("").Enabled(LiveCounters, 0))
	assert.False(t, NewManager("LIVE_COUNTERS = off").Enabled(LiveCounters, 7))
}

func TestSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 100% ,z=off ")

	snap := m.Snapshot(123)
	assert.Equal(t, map[string]bool{
		LiveCounters: true,
		"x":          true,
		"y":          true,
		"z":          false,
	}, snap)
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(LiveCounters, 1))
}

func TestParseRollout_Clamps(t *testing.T) {
	assert.Equal(t, 100, parseRollout("250%").percent)
	assert.Equal(t, 0, parseRollout("-5%").percent)
	assert.Equal(t, 0, parseRollout("40").percent)
	assert.Equal(t, 40, parseRollout("40%").percent)
}

func TestEnabled_PartialRolloutSplitsUsers(t *testing.T) {
	m := NewManager("half=50%")

	on := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("half", id) {
			on++
		}
	}
	assert.InDelta(t, 500, on, 100)
}
