package monitor

import (
	"fmt"

	"github.com/samuelemusiani/ups-notifier/internal/ups"
)

// NUT status values with a dedicated message.
const (
	StatusOnline     = "OL"
	StatusOnBattery  = "OB"
	StatusLowBattery = "OB LB"
)

// Status is an observed ups.status value. A snapshot without the key yields
// the unknown status, which compares equal to itself like any other value.
type Status struct {
	value string
	known bool
}

// Unknown is the status of a snapshot that has no ups.status key.
var Unknown = Status{}

func Known(v string) Status { return Status{value: v, known: true} }

// StatusOf extracts the status from a snapshot.
func StatusOf(snap ups.Snapshot) Status {
	if v, ok := snap.Status(); ok {
		return Known(v)
	}
	return Unknown
}

func (s Status) Known() bool { return s.known }

func (s Status) String() string {
	if !s.known {
		return "unknown"
	}
	return s.value
}

// Message renders the alert text for a change to s.
func Message(device string, s Status) string {
	if s.known {
		switch s.value {
		case StatusOnline:
			return fmt.Sprintf("UPS %s is online.", device)
		case StatusOnBattery:
			return fmt.Sprintf("UPS %s is on battery.", device)
		case StatusLowBattery:
			return fmt.Sprintf("UPS %s is in low battery mode.", device)
		}
	}
	return fmt.Sprintf("UPS %s status changed to: %s", device, s)
}
