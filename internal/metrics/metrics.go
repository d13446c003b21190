// Package metrics records poll loop outcomes as Prometheus metrics and keeps
// the last cycle's state for the status endpoint.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/samuelemusiani/ups-notifier/internal/monitor"
	"github.com/samuelemusiani/ups-notifier/internal/ups"
)

// State is a copy of the last observed cycle.
type State struct {
	Device        string            `json:"device"`
	Status        string            `json:"status,omitempty"`
	LastPoll      time.Time         `json:"last_poll,omitempty"`
	LastSuccess   time.Time         `json:"last_success,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
	LastChange    time.Time         `json:"last_change,omitempty"`
	Notifications uint64            `json:"notifications"`
	Snapshot      map[string]string `json:"snapshot,omitempty"`
}

// Collector implements monitor.Recorder. Record* calls come from the poll
// loop; State and the registry are read by HTTP handlers.
type Collector struct {
	reg *prometheus.Registry

	polls         *prometheus.CounterVec
	notifications *prometheus.CounterVec
	changes       prometheus.Counter
	status        *prometheus.GaugeVec
	charge        prometheus.Gauge

	mu         sync.Mutex
	state      State
	lastStatus string
	now        func() time.Time
}

var _ monitor.Recorder = (*Collector)(nil)

func New(device string) *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels{"ups": device}

	return &Collector{
		reg: reg,
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "ups_notifier_polls_total",
			Help:        "Status queries by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "ups_notifier_notifications_total",
			Help:        "Telegram messages by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		changes: f.NewCounter(prometheus.CounterOpts{
			Name:        "ups_notifier_status_changes_total",
			Help:        "Observed ups.status transitions.",
			ConstLabels: labels,
		}),
		status: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "ups_notifier_ups_status",
			Help:        "1 for the current ups.status value.",
			ConstLabels: labels,
		}, []string{"status"}),
		charge: f.NewGauge(prometheus.GaugeOpts{
			Name:        "ups_notifier_battery_charge_percent",
			Help:        "Last reported battery.charge.",
			ConstLabels: labels,
		}),
		state: State{Device: device},
		now:   time.Now,
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) RecordPoll(snap ups.Snapshot, status monitor.Status, err error) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.LastPoll = now
	if err != nil {
		c.polls.WithLabelValues("error").Inc()
		c.state.LastError = err.Error()
		return
	}
	c.polls.WithLabelValues("ok").Inc()
	c.state.LastSuccess = now
	c.state.LastError = ""
	c.state.Status = status.String()
	c.state.Snapshot = make(map[string]string, len(snap))
	for k, v := range snap {
		c.state.Snapshot[k] = v
	}

	if c.lastStatus != "" && c.lastStatus != c.state.Status {
		c.status.DeleteLabelValues(c.lastStatus)
	}
	c.status.WithLabelValues(c.state.Status).Set(1)
	c.lastStatus = c.state.Status

	if v, ok := snap[ups.KeyBatteryCharge]; ok {
		if f, perr := strconv.ParseFloat(v, 64); perr == nil {
			c.charge.Set(f)
		}
	}
}

func (c *Collector) RecordChange(from, to monitor.Status) {
	c.mu.Lock()
	c.state.LastChange = c.now()
	c.mu.Unlock()
	c.changes.Inc()
}

func (c *Collector) RecordNotify(err error) {
	if err != nil {
		c.notifications.WithLabelValues("failed").Inc()
		return
	}
	c.mu.Lock()
	c.state.Notifications++
	c.mu.Unlock()
	c.notifications.WithLabelValues("sent").Inc()
}

// State returns a copy of the last cycle's state.
func (c *Collector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	if st.Snapshot != nil {
		st.Snapshot = make(map[string]string, len(c.state.Snapshot))
		for k, v := range c.state.Snapshot {
			st.Snapshot[k] = v
		}
	}
	return st
}
