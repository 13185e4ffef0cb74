package dataset

import (
	"fmt"
	"math"

	"github.com/drakos74/market-predictor/internal/model"
	"gonum.org/v1/gonum/stat"
)

// minScale is the standard deviation below which a feature is considered constant.
const minScale = 10 * 2.220446049250313e-16

// Scaler standardizes every feature to zero mean and unit variance,
// with the statistics of the data it was fit on.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit computes the per-feature mean and population standard deviation.
// A constant feature gets a scale of 1, so it maps to 0 instead of dividing by zero.
func Fit(x [][]float64) (*Scaler, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on empty data: %w", model.ConfigErr)
	}
	width := len(x[0])
	n := float64(len(x))
	s := &Scaler{
		Mean:  make([]float64, width),
		Scale: make([]float64, width),
	}
	col := make([]float64, len(x))
	for j := 0; j < width; j++ {
		for i, row := range x {
			if len(row) != width {
				return nil, fmt.Errorf("row %d has %d features instead of %d: %w", i, len(row), width, model.ConfigErr)
			}
			col[i] = row[j]
		}
		mean, variance := stat.MeanVariance(col, nil)
		if len(col) > 1 {
			// population variance
			variance = variance * (n - 1) / n
		} else {
			variance = 0
		}
		scale := math.Sqrt(variance)
		if scale < minScale {
			scale = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = scale
	}
	return s, nil
}

// Width returns the number of features the scaler expects.
func (s *Scaler) Width() int {
	return len(s.Mean)
}

// Transform applies the standard score to the given rows.
// The input is left untouched.
func (s *Scaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("row %d has %d features instead of %d: %w", i, len(row), len(s.Mean), model.ConfigErr)
		}
		z := make([]float64, len(row))
		for j, v := range row {
			z[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = z
	}
	return out, nil
}
