package monitor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/samuelemusiani/ups-notifier/internal/ups"
)

func TestReportScheduleDue(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	r, err := newReportSchedule("0 9 * * *", time.UTC, start)
	if err != nil {
		t.Fatalf("newReportSchedule: %v", err)
	}
	if r.due(start.Add(59 * time.Minute)) {
		t.Fatal("report due before 09:00")
	}
	if !r.due(start.Add(time.Hour)) {
		t.Fatal("report not due at 09:00")
	}
	if r.due(start.Add(time.Hour + 4*time.Second)) {
		t.Fatal("report due twice in the same slot")
	}
	want := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	if !r.next.Equal(want) {
		t.Fatalf("next = %v, want %v", r.next, want)
	}
	// Several missed days collapse into one report.
	if !r.due(want.Add(72 * time.Hour)) {
		t.Fatal("report not due after missed slots")
	}
	if r.due(want.Add(72*time.Hour + time.Second)) {
		t.Fatal("missed slots were reported more than once")
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	snap := ups.Snapshot{
		ups.KeyStatus:        "OL CHRG",
		ups.KeyBatteryCharge: "87",
		ups.KeyBatteryRun:    "1800",
		ups.KeyInputVoltage:  "230.0",
		ups.KeyLoad:          "12",
	}
	got := Summary("eaton", snap)
	for _, want := range []string{
		"UPS eaton report",
		"Status: online, charging (OL CHRG)",
		"Battery: 87%",
		"Runtime: 30m0s",
		"Input voltage: 230.0 V",
		"Load: 12%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}

	if got := Summary("eaton", nil); !strings.Contains(got, "No successful reading yet.") {
		t.Fatalf("empty summary = %q", got)
	}
	if got := Summary("eaton", ups.Snapshot{}); !strings.Contains(got, "Status: unknown (unknown)") {
		t.Fatalf("summary without status = %q", got)
	}
}

func TestMonitorSendsReportWhenDue(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{steps: statuses("OL", "OL")}
	n := &fakeNotifier{}
	m := newTestMonitor(t, f, n)

	now := time.Date(2026, 10, 15, 8, 59, 58, 0, time.UTC)
	m.now = func() time.Time { return now }
	r, err := newReportSchedule("0 9 * * *", time.UTC, now)
	if err != nil {
		t.Fatalf("newReportSchedule: %v", err)
	}
	m.report = r

	_ = m.Cycle(context.Background())
	m.maybeReport(context.Background())
	if len(n.msgs) != 0 {
		t.Fatalf("report sent early: %q", n.msgs)
	}

	now = now.Add(4 * time.Second)
	_ = m.Cycle(context.Background())
	m.maybeReport(context.Background())
	if len(n.msgs) != 1 || !strings.HasPrefix(n.msgs[0], "UPS eaton report") {
		t.Fatalf("messages = %q", n.msgs)
	}
}
