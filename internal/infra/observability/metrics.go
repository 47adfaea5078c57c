package observability

import (
	"time"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Call outcomes recorded by IncrSOAPCall.
const (
	OutcomeOK        = "ok"
	OutcomeFault     = "fault"
	OutcomeTransport = "transport"
	OutcomeEncode    = "encode"
)

var outcomes = []string{OutcomeOK, OutcomeFault, OutcomeTransport, OutcomeEncode}

// Metrics holds all Prometheus metrics for the account client and gateway.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	callDuration   *prometheus.HistogramVec
	callsTotal     *prometheus.CounterVec
	parseFailures  *prometheus.CounterVec
	externalErrors *prometheus.CounterVec
	listSize       prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// metrics in it. Using a private registry avoids "duplicate collector"
// panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "comptes_soap_call_duration_seconds",
				Help:    "Duration of SOAP calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comptes_soap_calls_total",
				Help: "Total SOAP calls by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		parseFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comptes_parse_failures_total",
				Help: "Response elements or fields that could not be parsed.",
			},
			[]string{"field"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comptes_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		listSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "comptes_list_size",
				Help: "Number of accounts currently held by the list adapter.",
			},
		),
	}
}

// RecordCallDuration records the duration of a SOAP operation.
func (m *Metrics) RecordCallDuration(operation string, d time.Duration) {
	m.callDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrSOAPCall counts one SOAP call with its outcome.
func (m *Metrics) IncrSOAPCall(operation, outcome string) {
	m.callsTotal.WithLabelValues(operation, outcome).Inc()
	if outcome != OutcomeOK {
		m.externalErrors.WithLabelValues("soap").Inc()
	}
}

// IncrParseFailure counts a field that fell back to its default.
func (m *Metrics) IncrParseFailure(field string) {
	m.parseFailures.WithLabelValues(field).Inc()
}

// SetListSize records the adapter's current length.
func (m *Metrics) SetListSize(n int) {
	m.listSize.Set(float64(n))
}

// GetSOAPSnapshot returns the cumulative SOAP counters for GET /v1/metrics/soap.
func (m *Metrics) GetSOAPSnapshot() *domain.SOAPMetrics {
	byOutcome := make(map[string]float64, len(outcomes))
	var total, failed float64
	for _, o := range outcomes {
		v := sumCounter(m.callsTotal, "outcome", o)
		byOutcome[o] = v
		total += v
		if o != OutcomeOK {
			failed += v
		}
	}

	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}

	return &domain.SOAPMetrics{
		TotalCalls:    int64(total),
		Outcomes:      byOutcome,
		ErrorRate:     errorRate,
		ParseFailures: sumCounter(m.parseFailures, "", ""),
		Period:        "all_time",
	}
}

// sumCounter adds up every series of cv whose label matches value.
// An empty label sums all series.
func sumCounter(cv *prometheus.CounterVec, label, value string) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var sum float64
	for metric := range ch {
		pb := &dto.Metric{}
		if err := metric.Write(pb); err != nil || pb.Counter == nil {
			continue
		}
		if label != "" && !hasLabel(pb, label, value) {
			continue
		}
		sum += pb.Counter.GetValue()
	}
	return sum
}

func hasLabel(pb *dto.Metric, label, value string) bool {
	for _, lp := range pb.GetLabel() {
		if lp.GetName() == label && lp.GetValue() == value {
			return true
		}
	}
	return false
}
