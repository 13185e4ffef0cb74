package math

import (
	"math"
	"math/rand"
	"time"

	"github.com/drakos74/market-predictor/internal/model"
)

// Walk generates a reproducible random walk of daily bars.
// drift and volatility are absolute per-bar price moves, spread is the scale of the intra-bar range.
func Walk(seed int64, n int, base, drift, volatility, spread float64) []model.Bar {
	rnd := rand.New(rand.NewSource(seed))
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	price := base
	for i := 0; i < n; i++ {
		open := price
		price = math.Max(base/2, price+drift+rnd.NormFloat64()*volatility)
		c := price
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, c) + math.Abs(rnd.NormFloat64()*spread),
			Low:    math.Min(open, c) - math.Abs(rnd.NormFloat64()*spread),
			Close:  c,
			Volume: math.Max(0, math.Round(1000000+rnd.NormFloat64()*200000)),
		}
	}
	return bars
}

// Bars creates daily bars with the given closes, opening at the previous close.
func Bars(closes ...float64) []model.Bar {
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, c),
			Low:    math.Min(open, c),
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

// Series creates a linear series with the given step.
func Series(factor float64, limit int) []float64 {
	xx := make([]float64, 0)
	for i := 0; i < limit; i++ {
		xx = append(xx, factor*float64(i))
	}
	return xx
}

// Sine creates a sinusoidal series around the offset.
func Sine(offset, amplitude float64, limit int, p float64) []float64 {
	xx := make([]float64, 0)
	for i := 0; i < limit; i++ {
		xx = append(xx, offset+amplitude*math.Sin(float64(i)*p))
	}
	return xx
}
