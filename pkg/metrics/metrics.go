package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "api_fetch_total",
			Subsystem: "pytide",
			Help:      "Upstream API requests issued, by endpoint.",
		},
		[]string{"endpoint"},
	)
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "cache_lookup_total",
			Subsystem: "pytide",
			Help:      "Cache lookups, by table and outcome.",
		},
		[]string{"table", "outcome"},
	)
	emailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:      "emails_sent_total",
			Subsystem: "pytide",
			Help:      "Messages handed off to the SMTP server.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		apiFetches,
		cacheLookups,
		emailsSent,
	)
}

func CountFetch(endpoint string) {
	apiFetches.With(prometheus.Labels{"endpoint": endpoint}).Inc()
}

func CountCacheHit(table string) {
	cacheLookups.With(prometheus.Labels{"table": table, "outcome": "hit"}).Inc()
}

func CountCacheMiss(table string) {
	cacheLookups.With(prometheus.Labels{"table": table, "outcome": "miss"}).Inc()
}

func CountEmailSent() {
	emailsSent.Inc()
}

// Snapshot returns the current counter values keyed by metric name plus label
// values. The entry point logs it at the end of a run.
func Snapshot() map[string]float64 {
	out := make(map[string]float64)
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return out
	}
	for _, mf := range mfs {
		name := mf.GetName()
		if !strings.HasPrefix(name, "pytide_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := name
			for _, label := range m.GetLabel() {
				key += "_" + label.GetValue()
			}
			if c := m.GetCounter(); c != nil {
				out[key] = c.GetValue()
			}
		}
	}
	return out
}
