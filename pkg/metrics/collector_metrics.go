package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/disk"
)

// Fetch outcomes used as label values.
const (
	OutcomeSuccess     = "success"
	OutcomeDecodeError = "decode_error"
	OutcomeFetchError  = "fetch_error"
)

// CollectorMetrics 采集器指标集合
type CollectorMetrics struct {
	FetchTotal     *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	SnapshotBytes  *prometheus.CounterVec
	LastSuccess    *prometheus.GaugeVec
	PassDuration   prometheus.Histogram
	AlertsTotal    *prometheus.CounterVec
	StoreFreeBytes prometheus.Gauge
	StoreUsedRatio prometheus.Gauge
}

// NewCollectorMetrics registers every collector metric on reg.
func NewCollectorMetrics(reg prometheus.Registerer) *CollectorMetrics {
	f := NewMetricFactory(reg)
	return &CollectorMetrics{
		FetchTotal:     f.NewFetchTotal(),
		FetchDuration:  f.NewFetchDurationSeconds(),
		SnapshotBytes:  f.NewSnapshotBytesTotal(),
		LastSuccess:    f.NewLastSuccessTimestamp(),
		PassDuration:   f.NewPassDurationSeconds(),
		AlertsTotal:    f.NewAlertsTotal(),
		StoreFreeBytes: f.NewStoreFreeBytes(),
		StoreUsedRatio: f.NewStoreUsedRatio(),
	}
}

// ObserveFetch records one source outcome.
func (m *CollectorMetrics) ObserveFetch(source, outcome string, took time.Duration, written int, at time.Time) {
	m.FetchTotal.WithLabelValues(source, outcome).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(took.Seconds())
	if outcome == OutcomeSuccess {
		m.SnapshotBytes.WithLabelValues(source).Add(float64(written))
		m.LastSuccess.WithLabelValues(source).Set(float64(at.Unix()))
	}
}

// UpdateStoreUsage 读取快照根目录所在文件系统的使用情况
func (m *CollectorMetrics) UpdateStoreUsage(ctx context.Context, root string) error {
	usage, err := disk.UsageWithContext(ctx, root)
	if err != nil {
		return fmt.Errorf("disk usage of %s: %w", root, err)
	}
	m.StoreFreeBytes.Set(float64(usage.Free))
	m.StoreUsedRatio.Set(usage.UsedPercent / 100)
	return nil
}
