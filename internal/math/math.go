package math

import (
	"math"
	"strconv"
)

// Format formats a float with 4 decimals, enough for probabilities and scores.
func Format(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// Sigmoid squashes the value into (0,1).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Logit is the inverse of the sigmoid.
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Clip restricts the value to [min,max].
func Clip(x, min, max float64) float64 {
	return math.Max(min, math.Min(max, x))
}
