package buffer

import (
	"math"
)

// Stats keeps running aggregates over the last `size` pushed values.
// Sums are updated incrementally, so every push is O(1) regardless of the window size.
type Stats struct {
	window  *Buffer
	sum     float64
	sumSq   float64
	nonZero int
}

// NewStats creates a new rolling Stats for the given window size.
func NewStats(size int) *Stats {
	return &Stats{
		window: NewBuffer(size),
	}
}

// Push adds another element to the window, evicting the oldest one if needed.
func (s *Stats) Push(v float64) {
	s.sum += v
	s.sumSq += v * v
	if v != 0 {
		s.nonZero++
	}
	if old, ok := s.window.Push(v); ok {
		s.sum -= old
		s.sumSq -= old * old
		if old != 0 {
			s.nonZero--
		}
	}
	// an all-zero window must report exactly zero
	if s.nonZero == 0 {
		s.sum = 0
		s.sumSq = 0
	}
}

// Ready returns true when the window is full.
func (s Stats) Ready() bool {
	return s.window.Full()
}

// Count returns the number of elements in the window.
func (s Stats) Count() int {
	return s.window.Len()
}

// Sum returns the sum of the window elements.
func (s Stats) Sum() float64 {
	return s.sum
}

// Avg returns the average value of the window.
func (s Stats) Avg() float64 {
	if s.window.Len() == 0 {
		return 0
	}
	return s.sum / float64(s.window.Len())
}

// Variance is the population variance of the window.
func (s Stats) Variance() float64 {
	n := float64(s.window.Len())
	if n == 0 {
		return 0
	}
	return clampZero((s.sumSq - s.sum*s.sum/n) / n)
}

// StDev is the population standard deviation of the window.
func (s Stats) StDev() float64 {
	return math.Sqrt(s.Variance())
}

// SampleVariance is the sample variance of the window.
func (s Stats) SampleVariance() float64 {
	n := float64(s.window.Len())
	if n < 2 {
		return 0
	}
	return clampZero((s.sumSq - s.sum*s.sum/n) / (n - 1))
}

// SampleStDev is the sample standard deviation of the window.
func (s Stats) SampleStDev() float64 {
	return math.Sqrt(s.SampleVariance())
}

// incremental sums can drift just below zero for flat windows
func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
