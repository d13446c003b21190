package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/samuelemusiani/ups-notifier/internal/ups"
)

// reportSchedule tracks the next due time of the periodic summary. It is
// evaluated from the poll loop, so no cron goroutine runs.
type reportSchedule struct {
	sched cron.Schedule
	loc   *time.Location
	next  time.Time
}

func newReportSchedule(spec string, loc *time.Location, now time.Time) (*reportSchedule, error) {
	sched, err := cron.ParseStandard(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("report schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	r := &reportSchedule{sched: sched, loc: loc}
	r.next = sched.Next(now.In(loc))
	return r, nil
}

// due reports whether a scheduled time has passed and advances to the next
// one. Missed slots (e.g. after a suspend) collapse into a single report.
func (r *reportSchedule) due(now time.Time) bool {
	if now.Before(r.next) {
		return false
	}
	r.next = r.sched.Next(now.In(r.loc))
	return true
}

var statusWords = map[string]string{
	"OL":      "online",
	"OB":      "on battery",
	"LB":      "low battery",
	"HB":      "high battery",
	"RB":      "replace battery",
	"CHRG":    "charging",
	"DISCHRG": "discharging",
	"BYPASS":  "bypass",
	"CAL":     "calibrating",
	"OFF":     "offline",
	"OVER":    "overloaded",
	"TRIM":    "trimming voltage",
	"BOOST":   "boosting voltage",
	"FSD":     "forced shutdown",
}

// describeStatus expands NUT status flags, e.g. "OL CHRG" -> "online, charging".
func describeStatus(s Status) string {
	if !s.Known() {
		return "unknown"
	}
	flags := strings.Fields(s.value)
	words := make([]string, 0, len(flags))
	for _, f := range flags {
		if w, ok := statusWords[f]; ok {
			words = append(words, w)
		} else {
			words = append(words, f)
		}
	}
	if len(words) == 0 {
		return s.value
	}
	return strings.Join(words, ", ")
}

// Summary renders the periodic report for the last snapshot (nil when no
// poll has succeeded yet).
func Summary(device string, snap ups.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "UPS %s report", device)
	if snap == nil {
		b.WriteString("\nNo successful reading yet.")
		return b.String()
	}
	st := StatusOf(snap)
	fmt.Fprintf(&b, "\nStatus: %s (%s)", describeStatus(st), st)

	if v, ok := snap[ups.KeyBatteryCharge]; ok {
		fmt.Fprintf(&b, "\nBattery: %s%%", v)
	}
	if v, ok := snap[ups.KeyBatteryRun]; ok {
		fmt.Fprintf(&b, "\nRuntime: %s", formatRuntime(v))
	}
	if v, ok := snap[ups.KeyInputVoltage]; ok {
		fmt.Fprintf(&b, "\nInput voltage: %s V", v)
	}
	if v, ok := snap[ups.KeyLoad]; ok {
		fmt.Fprintf(&b, "\nLoad: %s%%", v)
	}
	return b.String()
}

// formatRuntime turns NUT's battery.runtime (seconds) into a duration.
func formatRuntime(v string) string {
	var secs float64
	if _, err := fmt.Sscanf(v, "%g", &secs); err != nil || secs < 0 {
		return v
	}
	return (time.Duration(secs) * time.Second).String()
}
