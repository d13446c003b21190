// Package systemd reports daemon state to systemd (sd_notify). Every call is
// a no-op when the process was not started by systemd.
package systemd

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Ready tells systemd start-up has finished (Type=notify units).
func Ready() (bool, error) { return daemon.SdNotify(false, daemon.SdNotifyReady) }

// Stopping tells systemd the daemon is shutting down.
func Stopping() (bool, error) { return daemon.SdNotify(false, daemon.SdNotifyStopping) }

// Status sets the free-form status line shown by systemctl status.
func Status(msg string) (bool, error) { return daemon.SdNotify(false, "STATUS="+msg) }

// Watchdog pings the systemd watchdog when WatchdogSec is set on the unit.
type Watchdog struct {
	interval time.Duration
}

// NewWatchdog reads the watchdog interval from the environment. The
// returned Watchdog is inert when the watchdog is not enabled.
func NewWatchdog() *Watchdog {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil || d <= 0 {
		return &Watchdog{}
	}
	return &Watchdog{interval: d}
}

// Enabled reports whether systemd expects pings.
func (w *Watchdog) Enabled() bool { return w != nil && w.interval > 0 }

// Interval is the unit's WatchdogSec (0 when disabled).
func (w *Watchdog) Interval() time.Duration {
	if w == nil {
		return 0
	}
	return w.interval
}

// Ping sends WATCHDOG=1. The poll loop calls it once per cycle, so
// WatchdogSec must exceed the poll interval plus the command and send
// timeouts.
func (w *Watchdog) Ping() {
	if !w.Enabled() {
		return
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
}
