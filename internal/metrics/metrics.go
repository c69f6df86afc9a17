// Package metrics exposes the Prometheus counters and gauges a running memo
// database maintains about its own cache effectiveness: how many calls hit
// versus missed, how long the serializer spends on each op, and how big the
// in-memory tables have grown.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CallsTotal counts every Call, partitioned by whether it was served
	// from cache ("hit"), recomputed ("miss"), or failed in the action body
	// ("error").
	CallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memo",
		Name:      "calls_total",
		Help:      "Total number of memoized calls, partitioned by outcome.",
	}, []string{"function", "outcome"})

	// OpDuration tracks how long each serializer op took to run, from the
	// caller's point of view (queue wait included).
	OpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memo",
		Name:      "op_duration_seconds",
		Help:      "Latency of a single backend op as observed by its caller.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	// FilesTracked is the current size of the File Registry.
	FilesTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "memo",
		Name:      "files_tracked",
		Help:      "Number of distinct files currently tracked by the file registry.",
	})

	// FunctionsTracked is the current size of the Function Registry.
	FunctionsTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "memo",
		Name:      "functions_tracked",
		Help:      "Number of distinct functions currently tracked by the function registry.",
	})

	// ClearsTotal counts explicit clear operations, partitioned by kind
	// ("function" or "file").
	ClearsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memo",
		Name:      "clears_total",
		Help:      "Total number of explicit clear operations.",
	}, []string{"kind"})
)

// Register registers all memo collectors against reg, tolerating the case
// where a previous DB opened against the same registry already did so:
// opening a second database against prometheus.DefaultRegisterer in the
// same process is a config choice, not a bug, and shouldn't panic the way
// MustRegister would.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{CallsTotal, OpDuration, FilesTracked, FunctionsTracked, ClearsTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
