// Package monitor implements the poll loop: fetch a snapshot, compare its
// status with the baseline and notify on change.
package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/samuelemusiani/ups-notifier/internal/ups"
	logx "github.com/samuelemusiani/ups-notifier/pkg/logx"
)

// DefaultInterval is the pause between two poll cycles.
const DefaultInterval = 4 * time.Second

type Fetcher interface {
	Fetch(ctx context.Context, device string) (ups.Snapshot, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// Recorder observes cycle outcomes (metrics, status endpoint). It is called
// from the poll loop only.
type Recorder interface {
	RecordPoll(snap ups.Snapshot, status Status, err error)
	RecordChange(from, to Status)
	RecordNotify(err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordPoll(ups.Snapshot, Status, error) {}
func (nopRecorder) RecordChange(Status, Status)            {}
func (nopRecorder) RecordNotify(error)                     {}

type Options struct {
	Device   string
	Interval time.Duration

	// ReportSchedule is an optional 5-field cron expression for a summary
	// message, evaluated in ReportLocation.
	ReportSchedule string
	ReportLocation *time.Location

	Recorder Recorder
	// AfterCycle runs after every cycle, success or not (watchdog pings).
	AfterCycle func()
	Log        logx.Logger
}

// Monitor is single-goroutine: Run and Cycle must not be called concurrently.
type Monitor struct {
	device   string
	interval time.Duration

	fetcher  Fetcher
	notifier Notifier
	rec      Recorder
	after    func()
	log      logx.Logger

	detector Detector
	last     ups.Snapshot
	report   *reportSchedule

	now func() time.Time
}

func New(f Fetcher, n Notifier, opt Options) (*Monitor, error) {
	if opt.Device == "" {
		return nil, fmt.Errorf("monitor: device name required")
	}
	if opt.Interval <= 0 {
		opt.Interval = DefaultInterval
	}
	if opt.Recorder == nil {
		opt.Recorder = nopRecorder{}
	}
	if opt.Log.IsZero() {
		opt.Log = logx.Nop()
	}
	m := &Monitor{
		device:   opt.Device,
		interval: opt.Interval,
		fetcher:  f,
		notifier: n,
		rec:      opt.Recorder,
		after:    opt.AfterCycle,
		log:      opt.Log.With(logx.String("ups", opt.Device)),
		now:      time.Now,
	}
	if opt.ReportSchedule != "" {
		r, err := newReportSchedule(opt.ReportSchedule, opt.ReportLocation, m.now())
		if err != nil {
			return nil, err
		}
		m.report = r
	}
	return m, nil
}

// Run polls until ctx is cancelled. Cycle errors are logged and never stop
// the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("ups notifier started", logx.Duration("interval", m.interval))
	if m.report != nil {
		m.log.Info("report scheduled", logx.Time("next", m.report.next))
	}

	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Info("ups notifier stopped")
			return nil
		case <-t.C:
		}

		if err := m.Cycle(ctx); err != nil && ctx.Err() == nil {
			m.log.Error("poll cycle failed", logx.Err(err))
		}
		m.maybeReport(ctx)
		if m.after != nil {
			m.after()
		}
		t.Reset(m.interval)
	}
}

// Cycle performs one fetch/compare/notify round. A failed fetch leaves the
// baseline untouched; a failed notify does not roll it back.
func (m *Monitor) Cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic in poll cycle", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			err = fmt.Errorf("panic in poll cycle: %v", r)
		}
	}()

	snap, err := m.fetcher.Fetch(ctx, m.device)
	if err != nil {
		m.rec.RecordPoll(nil, Unknown, err)
		return err
	}
	m.last = snap

	cur := StatusOf(snap)
	m.rec.RecordPoll(snap, cur, nil)

	prev, changed := m.detector.Observe(cur)
	if !changed {
		m.log.Debug("status unchanged", logx.String("status", cur.String()))
		return nil
	}

	msg := Message(m.device, cur)
	m.log.Info(msg, logx.String("from", prev.String()), logx.String("to", cur.String()))
	m.rec.RecordChange(prev, cur)

	err = m.notifier.Notify(ctx, msg)
	m.rec.RecordNotify(err)
	return err
}

// Baseline exposes the detector state.
func (m *Monitor) Baseline() (Status, bool) { return m.detector.Baseline() }

func (m *Monitor) maybeReport(ctx context.Context) {
	if m.report == nil || !m.report.due(m.now()) {
		return
	}
	err := m.notifier.Notify(ctx, Summary(m.device, m.last))
	m.rec.RecordNotify(err)
	if err != nil {
		m.log.Error("report failed", logx.Err(err))
		return
	}
	m.log.Info("report sent", logx.Time("next", m.report.next))
}
