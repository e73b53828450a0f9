// Package metrics implements an optional Prometheus Pushgateway backend for
// migration runs. A nil *Recorder is a valid no-op, so callers never guard
// their instrumentation sites.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder collects migration counters and pushes them to a Pushgateway at
// the end of a run. One Recorder per run.
type Recorder struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	constructCounter *prometheus.CounterVec // schemaport_constructs_total{kind,status}
	docCounter       prometheus.Counter     // schemaport_exported_docs_total
	pageCounter      prometheus.Counter     // schemaport_export_pages_total
}

// NewRecorder constructs a Pushgateway recorder. jobName becomes the
// Pushgateway "job" grouping key.
func NewRecorder(jobName, gatewayURL string) (*Recorder, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("metrics: gateway URL is required")
	}
	if jobName == "" {
		jobName = "schemaport"
	}

	reg := prometheus.NewRegistry()

	constructCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemaport_constructs_total",
			Help: "Mapped schema constructs, partitioned by kind and status.",
		},
		[]string{"kind", "status"},
	)
	docCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schemaport_exported_docs_total",
			Help: "Total documents exported to object storage.",
		},
	)
	pageCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schemaport_export_pages_total",
			Help: "Total export pages uploaded.",
		},
	)

	for _, c := range []prometheus.Collector{constructCounter, docCounter, pageCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}

	return &Recorder{
		gatewayURL:       gatewayURL,
		jobName:          jobName,
		reg:              reg,
		constructCounter: constructCounter,
		docCounter:       docCounter,
		pageCounter:      pageCounter,
	}, nil
}

// ObserveConstruct counts one construct mapping outcome. kind is the schema
// element kind (field_type, field, tokenizer, ...), status is success or
// failed.
func (r *Recorder) ObserveConstruct(kind, status string) {
	if r == nil {
		return
	}
	r.constructCounter.WithLabelValues(kind, status).Inc()
}

// AddDocuments counts exported documents.
func (r *Recorder) AddDocuments(n int) {
	if r == nil {
		return
	}
	r.docCounter.Add(float64(n))
}

// IncPage counts one uploaded export page.
func (r *Recorder) IncPage() {
	if r == nil {
		return
	}
	r.pageCounter.Inc()
}

// Flush pushes the registry to the Pushgateway. No-op on a nil recorder.
func (r *Recorder) Flush() error {
	if r == nil {
		return nil
	}
	return push.New(r.gatewayURL, r.jobName).
		Gatherer(r.reg).
		Push()
}
