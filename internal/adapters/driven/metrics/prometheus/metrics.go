// Package prometheus records run counters with the Prometheus client.
// A CLI run has no scrape endpoint, so the registry is written out as a
// node-exporter textfile when the run ends.
package prometheus

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "annomigrate"

// Recorder holds all run metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	// Fetch metrics
	PagesFetched  prometheus.Counter
	RowsFetched   prometheus.Counter
	PageRows      prometheus.Histogram
	DuplicateRows prometheus.Counter

	// Conversion metrics
	RecordsNormalised *prometheus.CounterVec

	// Destination metrics
	RecordsImported *prometheus.CounterVec

	// Comparison metrics
	RecordsCompared *prometheus.CounterVec
}

// NewRecorder creates and registers all metrics. Constant labels are added to
// every series, typically the context id and run id.
func NewRecorder(constLabels prometheus.Labels) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	r := &Recorder{registry: reg}

	r.PagesFetched = factory.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "pages_fetched_total",
		Help:        "Total number of search pages fetched",
		ConstLabels: constLabels,
	})

	r.RowsFetched = factory.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "rows_fetched_total",
		Help:        "Total number of rows returned by the search service",
		ConstLabels: constLabels,
	})

	r.PageRows = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Name:        "page_rows",
		Help:        "Rows per fetched page",
		Buckets:     prometheus.LinearBuckets(0, 100, 11),
		ConstLabels: constLabels,
	})

	r.DuplicateRows = factory.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "duplicate_rows_total",
		Help:        "Rows dropped because their id was already seen",
		ConstLabels: constLabels,
	})

	r.RecordsNormalised = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "records_normalised_total",
		Help:        "Records passed through the normaliser by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	r.RecordsImported = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "records_imported_total",
		Help:        "Records sent to the destination store by status",
		ConstLabels: constLabels,
	}, []string{"status"})

	r.RecordsCompared = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "records_compared_total",
		Help:        "Records classified by the equivalence check",
		ConstLabels: constLabels,
	}, []string{"result"})

	return r
}

// Registry returns the registry holding the run metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// PageFetched records one fetched page.
func (r *Recorder) PageFetched(rows int) {
	r.PagesFetched.Inc()
	r.RowsFetched.Add(float64(rows))
	r.PageRows.Observe(float64(rows))
}

// DuplicatesObserved records rows dropped as duplicates.
func (r *Recorder) DuplicatesObserved(n int) {
	r.DuplicateRows.Add(float64(n))
}

// BatchNormalised records the outcome of one normalisation batch.
func (r *Recorder) BatchNormalised(converted, errored, rejected, repaired int) {
	r.RecordsNormalised.WithLabelValues("converted").Add(float64(converted))
	r.RecordsNormalised.WithLabelValues("error").Add(float64(errored))
	r.RecordsNormalised.WithLabelValues("rejected").Add(float64(rejected))
	r.RecordsNormalised.WithLabelValues("repaired").Add(float64(repaired))
}

// Imported records an import call.
func (r *Recorder) Imported(ok, failed int) {
	r.RecordsImported.WithLabelValues("ok").Add(float64(ok))
	r.RecordsImported.WithLabelValues("failed").Add(float64(failed))
}

// Compared records an equivalence check.
func (r *Recorder) Compared(matched, mismatched, missing int) {
	r.RecordsCompared.WithLabelValues("matched").Add(float64(matched))
	r.RecordsCompared.WithLabelValues("mismatched").Add(float64(mismatched))
	r.RecordsCompared.WithLabelValues("missing").Add(float64(missing))
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// RunLabels builds the constant labels for a run.
func RunLabels(contextID, runID string, workers int) prometheus.Labels {
	return prometheus.Labels{
		"context_id": contextID,
		"run_id":     runID,
		"workers":    strconv.Itoa(workers),
	}
}
