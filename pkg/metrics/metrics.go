package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций с ledger
const (
	ResultReserved = "reserved"
	ResultFull     = "full"
	ResultReleased = "released"
	ResultError    = "error"
	ResultOK       = "ok"
)

// Metrics набор метрик сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	DBConnections   *prometheus.GaugeVec

	LedgerOperations     *prometheus.CounterVec
	ReconcileAdjustments *prometheus.CounterVec
	CacheInvalidations   *prometheus.CounterVec
}

// New создает метрики и регистрирует их в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики в указанном реестре (используется в тестах)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),

		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: constLabels,
		}, []string{"operation"}),

		DBConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections",
			Help:        "Database connection pool state",
			ConstLabels: constLabels,
		}, []string{"state"}),

		LedgerOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "capacity_ledger_operations_total",
			Help:        "Capacity ledger operations by result",
			ConstLabels: constLabels,
		}, []string{"service_id", "operation", "result"}),

		ReconcileAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "capacity_reconcile_adjustments_total",
			Help:        "Slot capacity entries corrected by the reconciliation sweep",
			ConstLabels: constLabels,
		}, []string{"service_id"}),

		CacheInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "availability_cache_invalidations_total",
			Help:        "Availability cache invalidations by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBConnections,
		m.LedgerOperations,
		m.ReconcileAdjustments,
		m.CacheInvalidations,
	)

	return m
}

// RecordHTTPRequest фиксирует HTTP запрос
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDBQuery фиксирует запрос к БД
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordLedger фиксирует операцию с ledger (reserve / release / reconcile)
func (m *Metrics) RecordLedger(serviceID, operation, result string) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(serviceID, operation, result).Inc()
}

// RecordReconcileAdjustment фиксирует исправление записи ledger
func (m *Metrics) RecordReconcileAdjustment(serviceID string) {
	if m == nil {
		return
	}
	m.ReconcileAdjustments.WithLabelValues(serviceID).Inc()
}

// RecordCacheInvalidation фиксирует инвалидацию кэша доступности
func (m *Metrics) RecordCacheInvalidation(result string) {
	if m == nil {
		return
	}
	m.CacheInvalidations.WithLabelValues(result).Inc()
}
