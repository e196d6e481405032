package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ivfstore"
	"github.com/hupe1980/ivfstore/kv"
)

func TestCollector_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoad(64, time.Millisecond, nil)
	c.RecordLoad(0, time.Millisecond, errors.New("boom"))
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordFlush(32, time.Millisecond, nil)
	c.RecordEviction()
	c.RecordMerge(2, 10, time.Second, nil)

	assert.InDelta(t, 1, testutil.ToFloat64(c.LoadsTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.LoadsTotal.WithLabelValues("error")), 0)
	assert.InDelta(t, 64, testutil.ToFloat64(c.LoadBytesTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.CacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.CacheLookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 32, testutil.ToFloat64(c.FlushBytesTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.EvictionsTotal), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(c.MergedEntries), 0)

	n, err := testutil.GatherAndCount(reg, "ivfstore_load_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}

func TestCollector_WithStore(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	st, err := ivfstore.New(kv.NewMemoryBackend(), 4, 2, ivfstore.WithMetricsCollector(c))
	require.NoError(t, err)
	defer st.Close()

	_, err = st.AddEntries(ctx, 1, 2, []int64{1, 2}, []byte{1, 1, 2, 2})
	require.NoError(t, err)
	_, err = st.ListSize(ctx, 1)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(c.FlushesTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 20, testutil.ToFloat64(c.FlushBytesTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.CacheLookups.WithLabelValues("hit")), 0)
}
