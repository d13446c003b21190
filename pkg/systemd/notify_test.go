package systemd

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func listenNotify(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Skipf("unixgram unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func readNotify(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read notify socket: %v", err)
	}
	return string(buf[:n])
}

func TestReadyWithoutSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	sent, err := Ready()
	if err != nil || sent {
		t.Fatalf("Ready() = %v, %v; want false, nil", sent, err)
	}
}

func TestReadyAndStatus(t *testing.T) {
	conn := listenNotify(t)

	if sent, err := Ready(); err != nil || !sent {
		t.Fatalf("Ready() = %v, %v", sent, err)
	}
	if got := readNotify(t, conn); got != "READY=1" {
		t.Fatalf("got %q", got)
	}

	if _, err := Status("UPS eaton: OL"); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got := readNotify(t, conn); got != "STATUS=UPS eaton: OL" {
		t.Fatalf("got %q", got)
	}
}

func TestWatchdogPing(t *testing.T) {
	conn := listenNotify(t)
	t.Setenv("WATCHDOG_USEC", "30000000")
	t.Setenv("WATCHDOG_PID", strconv.Itoa(os.Getpid()))

	w := NewWatchdog()
	if !w.Enabled() || w.Interval() != 30*time.Second {
		t.Fatalf("watchdog = %+v", w)
	}
	w.Ping()
	if got := readNotify(t, conn); got != "WATCHDOG=1" {
		t.Fatalf("got %q", got)
	}
}

func TestWatchdogDisabled(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	w := NewWatchdog()
	if w.Enabled() {
		t.Fatal("watchdog should be disabled without WATCHDOG_USEC")
	}
	w.Ping()
}
