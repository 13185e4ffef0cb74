package buffer

// EMA is an exponential moving average with smoothing factor 2/(span+1),
// seeded with the first value it receives.
type EMA struct {
	span  int
	alpha float64
	count int
	value float64
}

// NewEMA creates a new EMA for the given span.
func NewEMA(span int) *EMA {
	return &EMA{
		span:  span,
		alpha: 2 / (float64(span) + 1),
	}
}

// Push adds a value and returns the updated average.
func (e *EMA) Push(v float64) float64 {
	if e.count == 0 {
		e.value = v
	} else {
		e.value = e.alpha*v + (1-e.alpha)*e.value
	}
	e.count++
	return e.value
}

// Value returns the current average.
func (e EMA) Value() float64 {
	return e.value
}

// Count returns the number of values seen.
func (e EMA) Count() int {
	return e.count
}

// Ready returns true once at least span values have been seen.
func (e EMA) Ready() bool {
	return e.count >= e.span
}
