package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/shelfd/pkg/metrics"
)

// repositoryMetrics is the Prometheus implementation of
// metrics.RepositoryMetrics.
type repositoryMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	permissionDenials *prometheus.CounterVec
	catalogSize       prometheus.Gauge
	folderCount       prometheus.Gauge
}

// NewRepositoryMetrics creates a Prometheus-backed RepositoryMetrics.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewRepositoryMetrics() metrics.RepositoryMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopRepositoryMetrics()
	}

	reg := metrics.GetRegistry()

	return &repositoryMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfd_repository_operations_total",
				Help: "Total number of repository operations by name and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfd_repository_operation_duration_seconds",
				Help:    "Repository operation latency by name",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		permissionDenials: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfd_repository_permission_denials_total",
				Help: "Actions rejected by the permission policy",
			},
			[]string{"action"},
		),
		catalogSize: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfd_catalog_records",
				Help: "Current number of file records in the catalog",
			},
		),
		folderCount: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfd_folder_count",
				Help: "Current number of folders in the tree",
			},
		),
	}
}

func (m *repositoryMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *repositoryMetrics) RecordPermissionDenial(action string) {
	m.permissionDenials.WithLabelValues(action).Inc()
}

func (m *repositoryMetrics) SetCatalogSize(count int64) {
	m.catalogSize.Set(float64(count))
}

func (m *repositoryMetrics) SetFolderCount(count int64) {
	m.folderCount.Set(float64(count))
}
