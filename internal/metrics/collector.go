// Package metrics records resolution passes and bean construction as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/Station-Manager/wireplan"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

const namespace = "wireplan"

// Collector implements wireplan.Observer and provides a stable.InitHook for containers.
type Collector struct {
	resolutions      *prometheus.CounterVec
	resolutionErrors *prometheus.CounterVec
	duration         prometheus.Histogram
	planBeans        prometheus.Gauge
	cellInits        *prometheus.CounterVec
	cellInitDuration prometheus.Histogram
}

var _ wireplan.Observer = (*Collector)(nil)

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of resolution passes",
			},
			[]string{"result"},
		),
		resolutionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolution_errors_total",
				Help:      "Total number of errors reported by failed resolution passes",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Duration of resolution passes",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		planBeans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_beans",
			Help:      "Number of entries in the last resolved plan",
		}),
		cellInits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bean_initializations_total",
				Help:      "Total number of bean construction attempts",
			},
			[]string{"result"},
		),
		cellInitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bean_initialization_duration_seconds",
			Help:      "Duration of bean construction, including dependencies built on the way",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	var err error
	if c.resolutions, err = register(reg, c.resolutions); err != nil {
		return nil, err
	}
	if c.resolutionErrors, err = register(reg, c.resolutionErrors); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	if c.planBeans, err = register(reg, c.planBeans); err != nil {
		return nil, err
	}
	if c.cellInits, err = register(reg, c.cellInits); err != nil {
		return nil, err
	}
	if c.cellInitDuration, err = register(reg, c.cellInitDuration); err != nil {
		return nil, err
	}

	// Zero the result series so they show up before the first pass.
	c.resolutions.WithLabelValues("success").Add(0)
	c.resolutions.WithLabelValues("failure").Add(0)
	return c, nil
}

func (c *Collector) ResolutionSucceeded(plan *wireplan.WiringPlan, elapsed time.Duration) {
	c.resolutions.WithLabelValues("success").Inc()
	c.duration.Observe(elapsed.Seconds())
	c.planBeans.Set(float64(plan.Len()))
}

// ResolutionFailed counts the pass once and every combined error by kind.
func (c *Collector) ResolutionFailed(err error, elapsed time.Duration) {
	c.resolutions.WithLabelValues("failure").Inc()
	c.duration.Observe(elapsed.Seconds())
	for _, e := range multierr.Errors(err) {
		c.resolutionErrors.WithLabelValues(wireplan.ErrorKind(e)).Inc()
	}
}

// InitHook records one bean construction; pass it to wireplan.WithInitHook.
func (c *Collector) InitHook(_ int, _ string, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.cellInits.WithLabelValues(result).Inc()
	c.cellInitDuration.Observe(elapsed.Seconds())
}

// register adds col to reg, or returns the equivalent collector already registered there.
func register[C prometheus.Collector](reg prometheus.Registerer, col C) (C, error) {
	err := reg.Register(col)
	if err == nil {
		return col, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return col, err
}
