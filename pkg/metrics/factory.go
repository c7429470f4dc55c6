package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "outage"

// MetricFactory 指标工厂，用于统一创建指标（counter/gauge/histogram）
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// NewFetchTotal 每个数据源每次抓取的结果计数
// outcome: success | decode_error | fetch_error
func (f *MetricFactory) NewFetchTotal() *prometheus.CounterVec {
	return promauto.With(f.reg).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Fetch attempts per source by outcome",
		},
		[]string{"source", "outcome"},
	)
}

func (f *MetricFactory) NewFetchDurationSeconds() *prometheus.HistogramVec {
	return promauto.With(f.reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of fetch and persist per source",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 0.05s ~ 25.6s
		},
		[]string{"source"},
	)
}

func (f *MetricFactory) NewSnapshotBytesTotal() *prometheus.CounterVec {
	return promauto.With(f.reg).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes_total",
			Help:      "Bytes of snapshot payload written per source",
		},
		[]string{"source"},
	)
}

func (f *MetricFactory) NewLastSuccessTimestamp() *prometheus.GaugeVec {
	return promauto.With(f.reg).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last snapshot written per source",
		},
		[]string{"source"},
	)
}

func (f *MetricFactory) NewPassDurationSeconds() prometheus.Histogram {
	return promauto.With(f.reg).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of a full pass over all sources",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
}

// NewAlertsTotal result: sent | failed
func (f *MetricFactory) NewAlertsTotal() *prometheus.CounterVec {
	return promauto.With(f.reg).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert notifications by delivery result",
		},
		[]string{"result"},
	)
}

func (f *MetricFactory) NewStoreFreeBytes() prometheus.Gauge {
	return promauto.With(f.reg).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_free_bytes",
		Help:      "Free bytes on the filesystem holding the snapshot root",
	})
}

func (f *MetricFactory) NewStoreUsedRatio() prometheus.Gauge {
	return promauto.With(f.reg).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_used_ratio",
		Help:      "Used ratio (0-1) of the filesystem holding the snapshot root",
	})
}
