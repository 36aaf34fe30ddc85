package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("purge").End(nil))
	boom := errors.New("boom")
	assert.Equal(t, boom, m.Track("purge").End(boom))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("purge", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("purge", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("purge")))
}

func TestAddPurged(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddPurged(3)
	m.AddPurged(0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.purged))

	var nilMetrics *Metrics
	nilMetrics.AddPurged(1)
	assert.NoError(t, nilMetrics.Track("purge").End(nil))
}
