package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {

	p := Observer.prometheus

	before := testutil.ToFloat64(p.Epochs.WithLabelValues("test-kind"))
	Observer.Epoch("test-kind", 0.6, 0.7)
	Observer.Epoch("test-kind", 0.5, 0.65)
	assert.Equal(t, before+2, testutil.ToFloat64(p.Epochs.WithLabelValues("test-kind")))
	assert.Equal(t, 0.5, testutil.ToFloat64(p.Loss.WithLabelValues("test-kind", TrainSet)))
	assert.Equal(t, 0.65, testutil.ToFloat64(p.Loss.WithLabelValues("test-kind", ValidationSet)))

	Observer.Score("test-kind", "f1", 0.8)
	assert.Equal(t, 0.8, testutil.ToFloat64(p.Scores.WithLabelValues("test-kind", "f1")))

	Observer.Checkpoint("test-kind", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Checkpoints.WithLabelValues("test-kind", "failed")))

}
