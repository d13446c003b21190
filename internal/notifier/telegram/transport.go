package telegram

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

// newHTTPClient builds the client handed to telebot. With ipv4Only the
// dialer only ever connects over IPv4; some networks resolve
// api.telegram.org to AAAA records they cannot route.
func newHTTPClient(timeout time.Duration, ipv4Only bool) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = dialer.DialContext
	if ipv4Only {
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if strings.HasPrefix(network, "tcp") {
				network = "tcp4"
			}
			return dialer.DialContext(ctx, network, addr)
		}
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}
