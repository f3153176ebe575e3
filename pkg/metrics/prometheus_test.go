package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordStage("normalize", 10, 8)
	r.RecordStage("normalize", 5, 5)
	r.RecordSkipped("normalize", 2)
	r.RecordSkipped("normalize", 0)
	r.RecordError("no_overlap")
	r.RecordLatency("pipeline", 0.25)
	r.RecordPrediction("GDPC1", 17500)

	assert.Equal(t, 15.0, testutil.ToFloat64(r.rowsIn.WithLabelValues("normalize")))
	assert.Equal(t, 13.0, testutil.ToFloat64(r.rowsOut.WithLabelValues("normalize")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.skipped.WithLabelValues("normalize")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues("no_overlap")))
	assert.Equal(t, 17500.0, testutil.ToFloat64(r.prediction.WithLabelValues("GDPC1")))

	n, err := testutil.GatherAndCount(reg, "macropull_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
