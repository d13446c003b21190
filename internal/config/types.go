package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCommand     = "upsc"
	DefaultInterval    = 4 * time.Second
	DefaultTimeout     = 10 * time.Second
	DefaultAPIURL      = "https://api.telegram.org"
	DefaultSendTimeout = 15 * time.Second
	DefaultRatePerSec  = 1
	DefaultHTTPAddr    = "127.0.0.1:9199"
)

// Config is the on-disk configuration. It is loaded once at startup and
// never mutated afterwards.
type Config struct {
	UPS      UPSConfig      `json:"ups"`
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Report   ReportConfig   `json:"report"`
	HTTP     HTTPConfig     `json:"http"`
}

type UPSConfig struct {
	Name string `json:"name"`
	// Command is the NUT client used to query the device (default "upsc").
	Command string `json:"command,omitempty"`
	// Interval and Timeout are Go duration strings (e.g. "4s", "1m").
	Interval string `json:"interval,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

func (u UPSConfig) PollInterval() time.Duration {
	d, _ := ParseDurationOrDefault("ups.interval", u.Interval, DefaultInterval)
	return d
}

func (u UPSConfig) CommandTimeout() time.Duration {
	d, _ := ParseDurationOrDefault("ups.timeout", u.Timeout, DefaultTimeout)
	return d
}

type TelegramConfig struct {
	ChatID ChatID `json:"chat_id"`
	Token  string `json:"token"`

	APIURL     string `json:"api_url,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	// ForceIPv4 is a pointer so an omitted key can default to true.
	ForceIPv4 *bool `json:"force_ipv4,omitempty"`
}

func (t TelegramConfig) SendTimeout() time.Duration {
	d, _ := ParseDurationOrDefault("telegram.timeout", t.Timeout, DefaultSendTimeout)
	return d
}

func (t TelegramConfig) IPv4Only() bool {
	return t.ForceIPv4 == nil || *t.ForceIPv4
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// ReportConfig enables a periodic summary message.
//
// Schedule is a standard 5-field cron expression (e.g. "0 9 * * *").
// Timezone is an IANA name; empty means local time.
type ReportConfig struct {
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// HTTPConfig controls the optional status endpoint.
//
// Prefer binding to localhost; the endpoint has no authentication.
type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

// ChatID is a Telegram chat identifier. Config files may spell it as a
// number (123456, -100123) or a string ("@channel", "123456").
type ChatID string

func (c ChatID) String() string { return string(c) }

func (c *ChatID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ChatID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("chat_id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("chat_id: not an integer: %s", n)
	}
	*c = ChatID(n.String())
	return nil
}
