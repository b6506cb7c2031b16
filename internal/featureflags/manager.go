// Package featureflags evaluates the FEATURE_FLAGS setting.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// LiveCounters gates the websocket feed that pushes like and comment counters.
const LiveCounters = "live_counters"

// rollout is a parsed flag value. percent is 0..100; 100 means on for everyone.
type rollout struct {
	percent int
}

var defaults = map[string]rollout{
	LiveCounters: {percent: 100},
}

// Manager evaluates flags from a comma-separated key=value list such as
// "live_counters=on,new_feed=25%". Values are on/true/1, off/false/0 or N%.
type Manager struct {
	flags map[string]rollout
}

// NewManager parses raw. Malformed pairs are skipped and unparseable values read as off.
func NewManager(raw string) *Manager {
	flags := make(map[string]rollout, len(defaults))
	for name, r := range defaults {
		flags[name] = r
	}

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		flags[key] = parseRollout(value)
	}

	return &Manager{flags: flags}
}

func parseRollout(value string) rollout {
	switch value {
	case "on", "true", "1":
		return rollout{percent: 100}
	case "off", "false", "0":
		return rollout{}
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") {
		return rollout{}
	}
	return rollout{percent: min(max(pct, 0), 100)}
}

// Enabled reports whether name is on for userID. Partial rollouts bucket users
// deterministically, so anonymous callers (userID 0) never fall inside one.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.flags[normalize(name)]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// Snapshot evaluates every known flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
