// Package metrics counts what a conversion run produced and writes the
// counters in the Prometheus text format, for node_exporter's textfile
// collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
)

// Recorder collects run metrics on its own registry. It implements
// pipeline.Observer.
type Recorder struct {
	registry  *prometheus.Registry
	notes     prometheus.Counter
	resources *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	duration  prometheus.Gauge
}

// NewRecorder creates a Recorder whose counters are all zero. Every metric
// is labeled with the translation being converted.
func NewRecorder(translation string) *Recorder {
	labels := prometheus.Labels{"translation": translation}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		notes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "scml_notes_total",
			Help:        "Study notes extracted.",
			ConstLabels: labels,
		}),
		resources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "scml_resources_total",
			Help:        "Resources extracted, by type.",
			ConstLabels: labels,
		}, []string{"type"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "scml_skipped_total",
			Help:        "Elements that produced no record, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "scml_run_duration_seconds",
			Help:        "Wall time of the last conversion run.",
			ConstLabels: labels,
		}),
	}
	r.registry.MustRegister(r.notes, r.resources, r.skipped, r.duration)
	return r
}

// NoteAdded counts one note.
func (r *Recorder) NoteAdded() { r.notes.Inc() }

// ResourceAdded counts one resource of the given type.
func (r *Recorder) ResourceAdded(typ string) { r.resources.WithLabelValues(typ).Inc() }

// RecordSkipped counts one dropped element.
func (r *Recorder) RecordSkipped(reason string) { r.skipped.WithLabelValues(reason).Inc() }

// ObserveDuration records the run's wall time.
func (r *Recorder) ObserveDuration(d time.Duration) { r.duration.Set(d.Seconds()) }

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes the current values to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return scmlerrors.NewIO("write metrics", path, err)
	}
	return nil
}
