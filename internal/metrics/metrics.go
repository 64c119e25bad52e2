// Package metrics records connector exchanges as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/adamwoolhether/checkout/connector"
)

var _ connector.Recorder = (*Recorder)(nil)

// Recorder implements connector.Recorder on its own registry.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	exchanges *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// NewRecorder registers the exchange metrics on reg, or on a fresh
// registry when reg is nil.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	exchanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "connector",
		Name:      "exchanges_total",
		Help:      "HTTP exchanges made by the connector, redirects included.",
	}, []string{"method", "status_code", "class"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "checkout",
		Subsystem: "connector",
		Name:      "exchange_duration_seconds",
		Help:      "Latency of single connector exchanges.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "class"})

	reg.MustRegister(exchanges, latency)

	return &Recorder{
		gatherer:  reg,
		handler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		exchanges: exchanges,
		latency:   latency,
	}
}

// ObserveExchange records one exchange. A zero status marks a transport
// failure.
func (r *Recorder) ObserveExchange(method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}

	code, class := "none", "transport_error"
	if status > 0 {
		code = strconv.Itoa(status)
		class = strconv.Itoa(status/100) + "xx"
	}

	r.exchanges.WithLabelValues(method, code, class).Inc()
	r.latency.WithLabelValues(method, class).Observe(elapsed.Seconds())
}

// Handler exposes the recorder's registry over HTTP.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// WriteText writes every gathered family to w in the text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.Gatherer().Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: write %s: %w", mf.GetName(), err)
		}
	}

	return nil
}
