// Package logx configures ups-notifier's logging.
//
// It wraps zerolog behind a small value type (logx.Logger) so that:
//   - Console output stays readable (short timestamp + short caller)
//   - File output is JSON, one event per line
package logx
