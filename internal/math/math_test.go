package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {

	type test struct {
		input  float64
		output string
	}

	tests := map[string]test{
		"0": {
			input:  0,
			output: "0.0000",
		},
		"-1": {
			input:  -1,
			output: "-1.0000",
		},
		"5": {
			input:  1.55555,
			output: "1.5556",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.output, Format(tt.input))
		})
	}
}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 0.3, Sigmoid(Logit(0.3)), 1e-12)
	assert.Equal(t, 1.0, Clip(3, 0, 1))
	assert.Equal(t, 0.0, Clip(-3, 0, 1))
}

func TestWalk(t *testing.T) {

	bars := Walk(42, 200, 1.085, 0.0001, 0.002, 0.0005)
	again := Walk(42, 200, 1.085, 0.0001, 0.002, 0.0005)

	assert.Equal(t, bars, again)
	for i, bar := range bars {
		assert.True(t, bar.High >= bar.Close, "high at %d", i)
		assert.True(t, bar.High >= bar.Open, "high at %d", i)
		assert.True(t, bar.Low <= bar.Close, "low at %d", i)
		assert.True(t, bar.Low <= bar.Open, "low at %d", i)
		if i > 0 {
			assert.True(t, bar.Time.After(bars[i-1].Time))
		}
	}

}

func TestBars(t *testing.T) {
	bars := Bars(1, 2, 1.5)
	assert.Equal(t, 3, len(bars))
	assert.Equal(t, 1.0, bars[1].Open)
	assert.Equal(t, 2.0, bars[1].High)
	assert.Equal(t, 1.5, bars[2].Low)
	assert.Equal(t, 2.0, bars[2].Open)
}
