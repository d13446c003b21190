// Package app wires config, logging, the poll loop and the optional status
// endpoint into one daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samuelemusiani/ups-notifier/internal/config"
	"github.com/samuelemusiani/ups-notifier/internal/httpapi"
	"github.com/samuelemusiani/ups-notifier/internal/metrics"
	"github.com/samuelemusiani/ups-notifier/internal/monitor"
	"github.com/samuelemusiani/ups-notifier/internal/notifier/telegram"
	"github.com/samuelemusiani/ups-notifier/internal/runtime/supervisor"
	"github.com/samuelemusiani/ups-notifier/internal/ups"
	logx "github.com/samuelemusiani/ups-notifier/pkg/logx"
	"github.com/samuelemusiani/ups-notifier/pkg/systemd"
)

const shutdownGrace = 5 * time.Second

type App struct {
	cfg *config.Config

	log  logx.Logger
	logs *logx.Service

	mon       *monitor.Monitor
	collector *metrics.Collector
	http      *httpapi.Server
	watchdog  *systemd.Watchdog

	sup *supervisor.Supervisor
}

type Option func(*options)

type options struct {
	fetcher  monitor.Fetcher
	notifier monitor.Notifier
}

// WithFetcher replaces the upsc-backed fetcher.
func WithFetcher(f monitor.Fetcher) Option { return func(o *options) { o.fetcher = f } }

// WithNotifier replaces the Telegram notifier.
func WithNotifier(n monitor.Notifier) Option { return func(o *options) { o.notifier = n } }

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	logs, log := logx.NewService(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console == nil || *cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if o.fetcher == nil {
		o.fetcher = ups.NewFetcher(cfg.UPS.Command, cfg.UPS.CommandTimeout())
	}
	if o.notifier == nil {
		n, err := telegram.New(telegram.Config{
			Token:      cfg.Telegram.Token,
			ChatID:     cfg.Telegram.ChatID.String(),
			APIURL:     cfg.Telegram.APIURL,
			Timeout:    cfg.Telegram.SendTimeout(),
			RatePerSec: cfg.Telegram.RatePerSec,
			IPv4Only:   cfg.Telegram.IPv4Only(),
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			_ = logs.Close()
			return nil, fmt.Errorf("telegram: %w", err)
		}
		o.notifier = n
	}

	a := &App{
		cfg:       cfg,
		log:       log.With(logx.String("comp", "app")),
		logs:      logs,
		collector: metrics.New(cfg.UPS.Name),
		watchdog:  systemd.NewWatchdog(),
	}

	mon, err := monitor.New(o.fetcher, o.notifier, monitor.Options{
		Device:         cfg.UPS.Name,
		Interval:       cfg.UPS.PollInterval(),
		ReportSchedule: cfg.Report.Schedule,
		ReportLocation: cfg.ReportLocation(),
		Recorder:       a.collector,
		AfterCycle:     a.afterCycle,
		Log:            log.With(logx.String("comp", "monitor")),
	})
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	a.mon = mon

	if cfg.HTTP.Enabled {
		hlog := log.With(logx.String("comp", "http"))
		a.http = httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(a.collector, hlog), hlog)
	}
	return a, nil
}

// Start launches the poll loop (and the status endpoint when enabled).
// It returns once everything is running.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	if a.http != nil {
		if err := a.http.Start(); err != nil {
			a.sup.Cancel()
			return fmt.Errorf("http listen %s: %w", a.cfg.HTTP.Addr, err)
		}
		a.sup.Go("http.serve", func(context.Context) error { return a.http.Serve() })
		a.sup.Go("http.shutdown", func(c context.Context) error {
			<-c.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return a.http.Shutdown(sctx)
		})
	}

	a.sup.Go("monitor", a.mon.Run)

	if _, err := systemd.Ready(); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	}
	if a.watchdog.Enabled() {
		a.log.Info("systemd watchdog enabled", logx.Duration("interval", a.watchdog.Interval()))
	}
	return nil
}

func (a *App) afterCycle() {
	a.watchdog.Ping()
	if st := a.collector.State(); st.Status != "" {
		_, _ = systemd.Status(fmt.Sprintf("UPS %s: %s", st.Device, st.Status))
	}
}

// Done is closed when the app stops (Stop or a fatal goroutine error).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// HTTPAddr is the bound status endpoint address ("" when disabled).
func (a *App) HTTPAddr() string {
	if a.http == nil {
		return ""
	}
	return a.http.Addr()
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = systemd.Stopping()
	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	_ = a.logs.Close()
	return err
}

func (a *App) Logger() logx.Logger { return a.log }
