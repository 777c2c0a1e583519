// Package metrics records store operations as Prometheus series.
package metrics

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"smokecheck/internal/core"
)

const namespace = "smokecheck"

// Recorder implements core.MetricsRecorder on a Prometheus registry.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ core.MetricsRecorder = (*Recorder)(nil)

// NewRecorder registers the store collectors on reg, creating a fresh
// registry when reg is nil.
func NewRecorder(reg *prometheus.Registry) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		// Labels: operation, status (success, error)
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Duration of store operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	for _, c := range []prometheus.Collector{r.operations, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe implements core.MetricsRecorder.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, d time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// Registry returns the registry the collectors live on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteText writes every gathered family in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
