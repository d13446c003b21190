package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPath is used when no path is given on the command line.
const DefaultPath = "config.toml"

// Load reads, decodes and checks the config file at path.
// Every failure is returned as a *ConfigError.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	cfg, err := Parse(path, b)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse decodes data; path only selects the format.
func Parse(path string, data []byte) (*Config, error) {
	jb, _, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid config: trailing data")
		}
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.UPS.Name = strings.TrimSpace(c.UPS.Name)
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	if strings.TrimSpace(c.UPS.Command) == "" {
		c.UPS.Command = DefaultCommand
	}
	if strings.TrimSpace(c.Telegram.APIURL) == "" {
		c.Telegram.APIURL = DefaultAPIURL
	}
	c.Telegram.APIURL = strings.TrimRight(c.Telegram.APIURL, "/")
	if c.Telegram.RatePerSec <= 0 {
		c.Telegram.RatePerSec = DefaultRatePerSec
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Console == nil {
		on := true
		c.Logging.Console = &on
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
}

// check covers required keys and values that would otherwise only fail
// later, inside the poll loop.
func (c *Config) check() error {
	var missing []string
	if c.UPS.Name == "" {
		missing = append(missing, "ups.name")
	}
	if c.Telegram.ChatID == "" {
		missing = append(missing, "telegram.chat_id")
	}
	if c.Telegram.Token == "" {
		missing = append(missing, "telegram.token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required key(s): %s", strings.Join(missing, ", "))
	}

	for path, raw := range map[string]string{
		"ups.interval":     c.UPS.Interval,
		"ups.timeout":      c.UPS.Timeout,
		"telegram.timeout": c.Telegram.Timeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			return err
		}
	}

	if s := strings.TrimSpace(c.Report.Schedule); s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			return fmt.Errorf("report.schedule: invalid cron expression %q: %w", s, err)
		}
	}
	if tz := strings.TrimSpace(c.Report.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("report.timezone: %w", err)
		}
	}
	return nil
}

// ReportLocation returns the location report schedules are evaluated in.
func (c *Config) ReportLocation() *time.Location {
	if tz := strings.TrimSpace(c.Report.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}
