// Package metrics exports store activity to Prometheus and keeps a
// cron-refreshed gauge of the current week's load.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	appLog "smartcal/internal/log"
	"smartcal/internal/store"
)

// Collector implements store.Observer.
type Collector struct {
	mutations *prometheus.CounterVec
	events    *prometheus.GaugeVec
	thisWeek  prometheus.Gauge
}

// New registers the smartcal metrics on reg. Metrics that are already
// registered (e.g. a second Collector on the default registry) are reused.
func New(reg prometheus.Registerer) *Collector {
	return &Collector{
		mutations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartcal_mutations_total",
			Help: "Store mutations by operation and result",
		}, []string{"op", "result"})),
		events: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartcal_events",
			Help: "Stored events by kind",
		}, []string{"kind"})),
		thisWeek: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartcal_events_this_week",
			Help: "Filtered events starting in the current week",
		})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		appLog.Warn("can't register metric", "error", err)
	}
	return c
}

// Mutation counts one store mutation attempt.
func (c *Collector) Mutation(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		result = "not_found"
	case errors.Is(err, store.ErrInvalidRange):
		result = "invalid_range"
	default:
		result = "error"
	}
	c.mutations.WithLabelValues(op, result).Inc()
}

// Size records the current event counts.
func (c *Collector) Size(regular, leave int) {
	c.events.WithLabelValues("regular").Set(float64(regular))
	c.events.WithLabelValues("leave").Set(float64(leave))
}

// StatsSource is what the this-week refresher reads.
type StatsSource interface {
	Stats(now time.Time) store.Stats
}

// RefreshThisWeek sets the this-week gauge from src.
func (c *Collector) RefreshThisWeek(src StatsSource, now time.Time) {
	st := src.Stats(now)
	c.thisWeek.Set(float64(st.ThisWeek))
	appLog.Debug("this-week gauge refreshed", "this_week", st.ThisWeek, "total", st.Total)
}

// Schedule starts a cron job refreshing the this-week gauge on spec. The
// gauge is refreshed once immediately. Callers stop the returned cron.
func (c *Collector) Schedule(spec string, src StatsSource, clock func() time.Time) (*cron.Cron, error) {
	if clock == nil {
		clock = time.Now
	}
	cr := cron.New()
	if _, err := cr.AddFunc(spec, func() { c.RefreshThisWeek(src, clock()) }); err != nil {
		return nil, err
	}
	c.RefreshThisWeek(src, clock())
	cr.Start()
	appLog.Info("stats refresh scheduled", "cron", spec)
	return cr, nil
}

// Default is a Collector on the default Prometheus registry, served by
// promhttp.Handler().
func Default() *Collector {
	return New(prometheus.DefaultRegisterer)
}

var _ store.Observer = (*Collector)(nil)
