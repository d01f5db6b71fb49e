// Package metrics provides the prometheus-backed metrics collector and the
// /metrics endpoint.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements wallet.MetricsCollector.
type PrometheusCollector struct {
	opDuration *prometheus.HistogramVec
	txnTotal   *prometheus.CounterVec
	txnAmount  *prometheus.CounterVec
	errTotal   *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		opDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kobo_operation_duration_seconds",
			Help:    "Duration of ledger and orchestration operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		txnTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kobo_transactions_total",
			Help: "Count of processed transactions by type.",
		}, []string{"type"}),
		txnAmount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kobo_transaction_amount_minor_units_total",
			Help: "Total transacted amount in minor currency units by type.",
		}, []string{"type"}),
		errTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kobo_operation_errors_total",
			Help: "Count of operation errors by operation and error type.",
		}, []string{"operation", "error_type"}),
	}
}

func (c *PrometheusCollector) RecordOperationDuration(operation string, duration time.Duration) {
	c.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordTransaction(txType string, amount int64) {
	c.txnTotal.WithLabelValues(txType).Inc()
	c.txnAmount.WithLabelValues(txType).Add(float64(amount))
}

func (c *PrometheusCollector) RecordError(operation, errType string) {
	c.errTotal.WithLabelValues(operation, errType).Inc()
}

// HealthFunc reports dependency health for /healthz.
type HealthFunc func(ctx context.Context) error

// StartServer serves /metrics and /healthz on its own port, detached from
// the API server.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
