package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	logx "github.com/samuelemusiani/ups-notifier/pkg/logx"
)

func TestEscapeMarkdownV2(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{in: "UPS eaton is online.", want: `UPS eaton is online\.`},
		{in: "ups-1 on battery!", want: `ups\-1 on battery\!`},
		{in: "a_b*c[d](e)~f`g>h#i+j=k|l{m}n", want: "a\\_b\\*c\\[d\\]\\(e\\)\\~f\\`g\\>h\\#i\\+j\\=k\\|l\\{m\\}n"},
		{in: `C:\path`, want: `C:\\path`},
		{in: "plain text", want: "plain text"},
	}
	for _, tt := range tests {
		if got := EscapeMarkdownV2(tt.in); got != tt.want {
			t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()
	got := Format("UPS eaton is on battery.")
	want := "\n⚠️ *UPS notification* ⚠️ \\\nUPS eaton is on battery\\.\n"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

// botAPI is a minimal stand-in for the Bot API sendMessage method.
type botAPI struct {
	mu       sync.Mutex
	requests []map[string]any
	fail     bool
}

func (b *botAPI) handler(t *testing.T, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot"+token+"/sendMessage" {
			http.Error(w, `{"ok":false,"error_code":404,"description":"Not Found"}`, http.StatusNotFound)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		b.mu.Lock()
		b.requests = append(b.requests, body)
		fail := b.fail
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1700000000,"chat":{"id":123,"type":"private"},"text":"ok"}}`))
	})
}

func newTestNotifier(t *testing.T, api *botAPI) *Notifier {
	t.Helper()
	const token = "42:test-token"
	srv := httptest.NewServer(api.handler(t, token))
	t.Cleanup(srv.Close)

	n, err := New(Config{
		Token:      token,
		ChatID:     "123",
		APIURL:     srv.URL,
		Timeout:    2 * time.Second,
		RatePerSec: 100,
		IPv4Only:   true,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

func TestNotifySendsMarkdownV2(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	n := newTestNotifier(t, api)

	if err := n.Notify(context.Background(), "UPS eaton is on battery."); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(api.requests))
	}
	req := api.requests[0]
	if req["chat_id"] != "123" {
		t.Fatalf("chat_id = %v", req["chat_id"])
	}
	if req["parse_mode"] != "MarkdownV2" {
		t.Fatalf("parse_mode = %v", req["parse_mode"])
	}
	if req["text"] != Format("UPS eaton is on battery.") {
		t.Fatalf("text = %q", req["text"])
	}
}

func TestNotifyAPIErrorIsNotifyError(t *testing.T) {
	t.Parallel()
	api := &botAPI{fail: true}
	n := newTestNotifier(t, api)

	err := n.Notify(context.Background(), "UPS eaton is online.")
	var ne *NotifyError
	if !errors.As(err, &ne) {
		t.Fatalf("expected *NotifyError, got %v", err)
	}
	if ne.ChatID != "123" || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotifyCancelledContext(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	n := newTestNotifier(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Notify(ctx, "UPS eaton is online.")
	var ne *NotifyError
	if !errors.As(err, &ne) {
		t.Fatalf("expected *NotifyError, got %v", err)
	}
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{ChatID: "1"}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := New(Config{Token: "t"}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty chat id")
	}
}

func TestIPv4OnlyClientRefusesIPv6(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp6", "[::1]:0")
	if err != nil {
		t.Skipf("ipv6 loopback unavailable: %v", err)
	}
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Listener = ln
	srv.Start()
	t.Cleanup(srv.Close)

	resp, err := newHTTPClient(time.Second, false).Get(srv.URL)
	if err != nil {
		t.Fatalf("dual-stack client: %v", err)
	}
	_ = resp.Body.Close()

	if resp, err := newHTTPClient(time.Second, true).Get(srv.URL); err == nil {
		_ = resp.Body.Close()
		t.Fatal("ipv4-only client reached an IPv6 address")
	}
}
