package buffer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Push(t *testing.T) {

	type test struct {
		size     int
		values   []float64
		ready    bool
		avg      float64
		sum      float64
		variance float64
		sample   float64
	}

	tests := map[string]test{
		"not-full": {
			size:     5,
			values:   []float64{1, 2, 3},
			ready:    false,
			avg:      2,
			sum:      6,
			variance: 2.0 / 3.0,
			sample:   1,
		},
		"full": {
			size:     3,
			values:   []float64{1, 2, 3},
			ready:    true,
			avg:      2,
			sum:      6,
			variance: 2.0 / 3.0,
			sample:   1,
		},
		"rolling": {
			size:     3,
			values:   []float64{100, -50, 1, 2, 3},
			ready:    true,
			avg:      2,
			sum:      6,
			variance: 2.0 / 3.0,
			sample:   1,
		},
		"flat": {
			size:     4,
			values:   []float64{1.1, 1.1, 1.1, 1.1, 1.1, 1.1},
			ready:    true,
			avg:      1.1,
			sum:      4.4,
			variance: 0,
			sample:   0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stats := NewStats(tt.size)
			for _, v := range tt.values {
				stats.Push(v)
			}
			assert.Equal(t, tt.ready, stats.Ready())
			assert.InDelta(t, tt.avg, stats.Avg(), 1e-9)
			assert.InDelta(t, tt.sum, stats.Sum(), 1e-9)
			assert.InDelta(t, tt.variance, stats.Variance(), 1e-9)
			assert.InDelta(t, tt.sample, stats.SampleVariance(), 1e-9)
			assert.InDelta(t, math.Sqrt(tt.sample), stats.SampleStDev(), 1e-6)
			assert.False(t, math.IsNaN(stats.StDev()))
		})
	}

}

func TestEMA_Push(t *testing.T) {

	ema := NewEMA(3)
	// alpha = 0.5
	assert.Equal(t, 1.0, ema.Push(1))
	assert.False(t, ema.Ready())
	assert.Equal(t, 2.0, ema.Push(3))
	assert.False(t, ema.Ready())
	assert.Equal(t, 4.0, ema.Push(6))
	assert.True(t, ema.Ready())
	assert.Equal(t, 3, ema.Count())
	assert.Equal(t, 4.0, ema.Value())

}

func TestExtremum_Push(t *testing.T) {

	values := []float64{5, 3, 4, 1, 2, 8, 7, 6, 0}
	size := 3

	max := NewMax(size)
	min := NewMin(size)

	for i, v := range values {
		max.Push(v)
		min.Push(v)

		from := i - size + 1
		if from < 0 {
			from = 0
		}
		expectedMax := math.Inf(-1)
		expectedMin := math.Inf(1)
		for _, w := range values[from : i+1] {
			expectedMax = math.Max(expectedMax, w)
			expectedMin = math.Min(expectedMin, w)
		}

		assert.Equal(t, expectedMax, max.Value(), "max at %d", i)
		assert.Equal(t, expectedMin, min.Value(), "min at %d", i)
		assert.Equal(t, i >= size-1, max.Ready())
	}

}

func TestStats_ZeroWindow(t *testing.T) {

	stats := NewStats(3)
	for _, v := range []float64{0.1, 0.2, 0.3, 0, 0, 0} {
		stats.Push(v)
	}
	assert.Equal(t, 0.0, stats.Sum())
	assert.Equal(t, 0.0, stats.Avg())
	assert.Equal(t, 0.0, stats.Variance())

}
