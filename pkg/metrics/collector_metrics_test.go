package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	reg := NewRegistry(false)
	m := NewCollectorMetrics(NewPromRegistry(reg))

	at := time.Date(2021, 8, 29, 12, 0, 0, 0, time.UTC)
	m.ObserveFetch("NOLAzip", OutcomeSuccess, 200*time.Millisecond, 128, at)
	m.ObserveFetch("NOLAzip", OutcomeDecodeError, 10*time.Millisecond, 0, at)
	m.ObserveFetch("LOISzip", OutcomeFetchError, time.Second, 0, at)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("NOLAzip", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("NOLAzip", OutcomeDecodeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("LOISzip", OutcomeFetchError)))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.SnapshotBytes.WithLabelValues("NOLAzip")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastSuccess.WithLabelValues("NOLAzip")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LastSuccess, "outage_last_success_timestamp_seconds"))
	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchDuration))
}

func TestUpdateStoreUsage(t *testing.T) {
	reg := NewRegistry(false)
	m := NewCollectorMetrics(NewPromRegistry(reg))

	require.NoError(t, m.UpdateStoreUsage(context.Background(), t.TempDir()))
	ratio := testutil.ToFloat64(m.StoreUsedRatio)
	assert.GreaterOrEqual(t, ratio, 0.0)
	assert.LessOrEqual(t, ratio, 1.0)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := NewPromRegistry(NewRegistry(false))
	NewCollectorMetrics(reg)
	assert.Panics(t, func() { NewCollectorMetrics(reg) })
}
