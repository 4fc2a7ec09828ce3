package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is a valid no-op.
type Metrics struct {
	// Sales metrics
	SalesRecorded prometheus.Counter
	SaleAmount    prometheus.Histogram
	SummaryCache  *prometheus.CounterVec

	// Database metrics
	DBQueries      *prometheus.CounterVec
	DBDuration     *prometheus.HistogramVec
	DBErrors       *prometheus.CounterVec
	DBBackpressure prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SalesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "salesledger_sales_recorded_total",
			Help: "Total number of sales recorded",
		}),
		SaleAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "salesledger_sale_amount",
			Help:    "Recorded sale amounts",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		SummaryCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesledger_summary_cache_total",
				Help: "Summary cache lookups by result",
			},
			[]string{"result"},
		),

		DBQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation"},
		),
		DBDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salesledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
		DBBackpressure: factory.NewCounter(prometheus.CounterOpts{
			Name: "salesledger_db_backpressure_total",
			Help: "Operations rejected because no connection became available in time",
		}),
	}
}

// SaleRecorded counts a sale and observes its amount.
func (m *Metrics) SaleRecorded(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.SalesRecorded.Inc()
	m.SaleAmount.Observe(amount.InexactFloat64())
}

// SummaryCacheResult counts a summary cache lookup.
func (m *Metrics) SummaryCacheResult(result string) {
	if m == nil {
		return
	}
	m.SummaryCache.WithLabelValues(result).Inc()
}

// ObserveQuery records one store operation.
func (m *Metrics) ObserveQuery(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.DBQueries.WithLabelValues(operation).Inc()
	m.DBDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.DBErrors.WithLabelValues(operation).Inc()
	}
}

// Backpressure counts an operation rejected for lack of a free connection.
func (m *Metrics) Backpressure() {
	if m == nil {
		return
	}
	m.DBBackpressure.Inc()
}
