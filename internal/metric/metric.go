// Package metric holds the Prometheus instrumentation for the import
// pipeline. Exposed via promhttp on /metrics.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Imports counts import attempts by outcome ("ok", "empty", "error").
	Imports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unicorn_imports_total",
		Help: "Number of calendar imports by outcome",
	}, []string{"outcome"})

	// ParsedEvents counts events accepted by the ICS parser.
	ParsedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unicorn_parsed_events_total",
		Help: "Number of VEVENTs successfully parsed",
	})

	// DroppedEvents counts VEVENT blocks dropped for missing or
	// undecodable required fields. Drops are silent per event; this is
	// the diagnostic trail.
	DroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unicorn_dropped_events_total",
		Help: "Number of VEVENTs dropped during parsing",
	})

	// FetchFailures counts feed fetches that produced no body.
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unicorn_fetch_failures_total",
		Help: "Number of ICS feed fetches that failed",
	})

	// StoredEvents is the size of the current imported event set.
	StoredEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unicorn_stored_events",
		Help: "Number of events in the current imported set",
	})
)
