package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameSpace             = "nexa_versions"
	HttpStatusHistogram   = "http_status_histogram"
	VersionsTotal         = "versions_total"
	DownloadsTotal        = "downloads_total"
	StoredBytes           = "stored_bytes"
	UploadedBinaries      = "uploaded_binaries"
	ServedDownloads       = "served_downloads"
	UploadSessionsActive  = "upload_sessions_active"
	KafkaMessageStatus    = "kafka_message_status"
)

type Metrics struct {
	HttpStatusHistogram prometheus.HistogramVec

	// Custom metrics
	VersionsTotal        prometheus.Gauge
	DownloadsTotal       prometheus.Gauge
	StoredBytes          prometheus.GaugeVec
	UploadedBinaries     prometheus.CounterVec
	ServedDownloads      prometheus.CounterVec
	UploadSessionsActive prometheus.Gauge
	KafkaMessageStatus   prometheus.CounterVec

	reg *prometheus.Registry
}

// See: https://prometheus.io/docs/tutorials/understanding_metric_types/#types-of-metrics
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		panic("reg cannot be nil")
	}
	metrics := &Metrics{
		reg: reg,
		HttpStatusHistogram: *promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: NameSpace,
			Name:      HttpStatusHistogram,
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status", "method", "path"}),

		VersionsTotal: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: NameSpace,
			Name:      VersionsTotal,
			Help:      "Number of stored versions",
		}),
		DownloadsTotal: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: NameSpace,
			Name:      DownloadsTotal,
			Help:      "Sum of all download counters",
		}),
		StoredBytes: *promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: NameSpace,
			Name:      StoredBytes,
			Help:      "Bytes of stored binaries per storage kind",
		}, []string{"storage_kind"}),
		UploadedBinaries: *promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      UploadedBinaries,
			Help:      "Binaries accepted since process start",
		}, []string{"storage_kind"}),
		ServedDownloads: *promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      ServedDownloads,
			Help:      "Download requests served since process start",
		}, []string{"platform"}),
		UploadSessionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: NameSpace,
			Name:      UploadSessionsActive,
			Help:      "In-flight chunked upload sessions",
		}),
		KafkaMessageStatus: *promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace:   NameSpace,
			Name:        KafkaMessageStatus,
			Help:        "Result of kafka messages",
			ConstLabels: nil,
		}, []string{"state"}),
	}

	reg.MustRegister(collectors.NewBuildInfoCollector())

	return metrics
}

func (m *Metrics) RecordUpload(storageKind string) {
	if m != nil {
		m.UploadedBinaries.With(prometheus.Labels{"storage_kind": storageKind}).Inc()
	}
}

func (m *Metrics) RecordDownload(platform string) {
	if m != nil {
		m.ServedDownloads.With(prometheus.Labels{"platform": platform}).Inc()
	}
}

func (m *Metrics) RecordKafkaMessageStatus(success bool) {
	status := "failed"
	if success {
		status = "success"
	}
	if m != nil {
		m.KafkaMessageStatus.With(prometheus.Labels{"state": status}).Inc()
	}
}

func (m Metrics) Registry() *prometheus.Registry {
	return m.reg
}
