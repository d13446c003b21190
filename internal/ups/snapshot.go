// Package ups reads UPS state from Network UPS Tools.
package ups

import "strings"

// Well-known NUT variable names.
const (
	KeyStatus        = "ups.status"
	KeyBatteryCharge = "battery.charge"
	KeyBatteryRun    = "battery.runtime"
	KeyInputVoltage  = "input.voltage"
	KeyLoad          = "ups.load"
)

// Snapshot is one point-in-time set of variables reported by the daemon.
type Snapshot map[string]string

// Status returns the ups.status value, if present.
func (s Snapshot) Status() (string, bool) {
	v, ok := s[KeyStatus]
	return v, ok
}

// ParseSnapshot parses "key: value" lines as printed by upsc.
//
// Blank lines and lines starting with '#' are skipped, lines without a colon
// are ignored. A line is split on its first colon and both sides trimmed;
// a repeated key keeps its last value.
func ParseSnapshot(out string) Snapshot {
	snap := Snapshot{}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		snap[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return snap
}
