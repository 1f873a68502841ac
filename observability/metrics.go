package observability

import (
	"net/http"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SolutionParseTotal counts solution parses by result
	SolutionParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_solution_parse_total",
			Help: "Total number of solution files parsed by result",
		},
		[]string{"result"}, // success, failure
	)

	// ProjectLoadTotal counts project file loads by result
	ProjectLoadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_project_load_total",
			Help: "Total number of project files loaded by result",
		},
		[]string{"result"}, // success, failure, created
	)

	// ProjectLoadDuration tracks project file load duration in seconds
	ProjectLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gosln_project_load_duration_seconds",
			Help:    "Project file load duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
		},
	)

	// ArtifactScanDirsTotal counts output directories scanned by result
	ArtifactScanDirsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_artifact_scan_dirs_total",
			Help: "Total number of output directories scanned by result",
		},
		[]string{"result"}, // success, failure
	)

	// ArtifactFilesConsidered counts binaries that passed the name filters
	ArtifactFilesConsidered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gosln_artifact_files_considered_total",
			Help: "Total number of binaries that passed include/exclude filters",
		},
	)

	// ArtifactLinkTotal counts artifact link operations by mode and result
	ArtifactLinkTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_artifact_link_total",
			Help: "Total number of artifact link operations by mode and result",
		},
		[]string{"mode", "result"},
	)
)

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ResultLabel maps an error to the "result" label value
func ResultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// GetCounterValue retrieves the current value of a counter metric with the given labels
// This is primarily intended for testing
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}

	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}

	return 0, nil
}
