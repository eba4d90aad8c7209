package metrics

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verdict outcome label values.
const (
	OutcomePass      = "pass"
	OutcomeFail      = "fail"
	OutcomeNoVerdict = "no_verdict"
)

var (
	VectorsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vfadd_vectors_built_total",
		Help: "Test vectors constructed, by operating mode",
	}, []string{"mode"})

	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vfadd_verdicts_total",
		Help: "Comparison outcomes, by mode and outcome",
	}, []string{"mode", "outcome"})

	ULPDistance = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vfadd_ulp_distance",
		Help:    "Raw-bit distance between DUT and expected results",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 64, 256, 4096, 1 << 20},
	}, []string{"mode"})

	RelativeError = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vfadd_relative_error",
		Help:    "Relative error of DUT results against the larger operand",
		Buckets: prometheus.ExponentialBuckets(1e-9, 10, 10),
	}, []string{"mode"})

	ConfigErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vfadd_config_errors_total",
		Help: "Comparisons aborted by a configuration error",
	}, []string{"kind"})

	RunDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "vfadd_run_duration_seconds",
		Help: "Wall time of a full suite run",
	})

	FlightRecordsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vfadd_flight_records_sent_total",
		Help: "Arrow record batches streamed over Flight, by ticket",
	}, []string{"ticket"})
)

func RecordVectorsBuilt(mode string, n int) {
	VectorsBuilt.WithLabelValues(mode).Add(float64(n))
}

func RecordVerdict(mode, outcome string) {
	Verdicts.WithLabelValues(mode, outcome).Inc()
}

// RecordDistance observes the diagnostic distances of one compared result.
// Non-finite relative errors are skipped.
func RecordDistance(mode string, ulp int64, relErr float64) {
	ULPDistance.WithLabelValues(mode).Observe(float64(ulp))
	if !math.IsNaN(relErr) && !math.IsInf(relErr, 0) {
		RelativeError.WithLabelValues(mode).Observe(relErr)
	}
}

func RecordConfigError(kind string) {
	ConfigErrors.WithLabelValues(kind).Inc()
}

func RecordRun(duration time.Duration) {
	RunDuration.Observe(duration.Seconds())
}

func RecordFlightRecord(ticket string) {
	FlightRecordsSent.WithLabelValues(ticket).Inc()
}
