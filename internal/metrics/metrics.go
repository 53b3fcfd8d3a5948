// Package metrics defines the Prometheus collectors used across the bot.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	UpdatesTotal    *prometheus.CounterVec
	AnalyzeRequests *prometheus.CounterVec
	AnalyzeLatency  *prometheus.HistogramVec
	OffersGenerated prometheus.Counter
	ExportsTotal    *prometheus.CounterVec
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			UpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_total",
				Help:      "Total inbound Telegram updates processed by type.",
			}, []string{"type"}),
			AnalyzeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyze_requests_total",
				Help:      "Total region analysis requests by outcome.",
			}, []string{"status"}),
			AnalyzeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analyze_request_duration_seconds",
				Help:      "Latency distribution for region analysis calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			OffersGenerated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "offers_generated_total",
				Help:      "Total commercial offers generated and sent.",
			}),
			ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total analytics exports by kind and outcome.",
			}, []string{"kind", "status"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.UpdatesTotal,
			metricsInstance.AnalyzeRequests,
			metricsInstance.AnalyzeLatency,
			metricsInstance.OffersGenerated,
			metricsInstance.ExportsTotal,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
