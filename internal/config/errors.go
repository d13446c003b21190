package config

import "fmt"

// ConfigError reports a configuration file that could not be used.
// It is fatal: the notifier never starts polling with a bad config.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
