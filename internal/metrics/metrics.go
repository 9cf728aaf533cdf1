package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	spawns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "process",
			Subsystem: "lifecycle",
			Name:      "spawns_total",
			Help:      "Number of successfully spawned child processes.",
		},
	)
	spawnFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "process",
			Subsystem: "lifecycle",
			Name:      "spawn_failures_total",
			Help:      "Number of failed spawn attempts by failure class.",
		}, []string{"reason"},
	)
	reaps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "process",
			Subsystem: "lifecycle",
			Name:      "reaps_total",
			Help:      "Number of reaped child processes by outcome.",
		}, []string{"outcome"},
	)
	delegatedInterrupts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "process",
			Subsystem: "lifecycle",
			Name:      "delegated_interrupts_total",
			Help:      "Number of interactive interrupts forwarded to delegation-enabled children.",
		},
	)
	waitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "process",
			Subsystem: "lifecycle",
			Name:      "wait_duration_seconds",
			Help:      "Time from spawn to reap per child process.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)
	running = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "process",
			Subsystem: "lifecycle",
			Name:      "running_children",
			Help:      "Children currently spawned and not yet reaped.",
		},
	)
)

// Register registers all metrics with the provided registerer. It is safe
// to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{spawns, spawnFailures, reaps, delegatedInterrupts, waitDuration, running}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called, so the core library
// imposes no metrics cost on embedders that never opt in.

func IncSpawn() {
	if regOK.Load() {
		spawns.Inc()
	}
}

func IncSpawnFailure(reason string) {
	if regOK.Load() {
		spawnFailures.WithLabelValues(reason).Inc()
	}
}

func IncReap(outcome string) {
	if regOK.Load() {
		reaps.WithLabelValues(outcome).Inc()
	}
}

func IncDelegatedInterrupt() {
	if regOK.Load() {
		delegatedInterrupts.Inc()
	}
}

func ObserveWaitDuration(seconds float64) {
	if regOK.Load() {
		waitDuration.Observe(seconds)
	}
}

func IncRunning() {
	if regOK.Load() {
		running.Inc()
	}
}

func DecRunning() {
	if regOK.Load() {
		running.Dec()
	}
}
