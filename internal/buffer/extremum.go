package buffer

type point struct {
	index int
	value float64
}

// Extremum tracks the rolling max (or min) of the last `size` values
// with a monotonic queue, so that each value enters and leaves it only once.
type Extremum struct {
	size   int
	index  int
	queue  []point
	better func(a, b float64) bool
}

// NewMax creates a rolling maximum over the given window size.
func NewMax(size int) *Extremum {
	return &Extremum{
		size: size,
		better: func(a, b float64) bool {
			return a > b
		},
	}
}

// NewMin creates a rolling minimum over the given window size.
func NewMin(size int) *Extremum {
	return &Extremum{
		size: size,
		better: func(a, b float64) bool {
			return a < b
		},
	}
}

// Push adds a value to the window.
func (e *Extremum) Push(v float64) {
	for len(e.queue) > 0 && !e.better(e.queue[len(e.queue)-1].value, v) {
		e.queue = e.queue[:len(e.queue)-1]
	}
	e.queue = append(e.queue, point{index: e.index, value: v})
	for e.queue[0].index <= e.index-e.size {
		e.queue = e.queue[1:]
	}
	e.index++
}

// Value returns the extremum of the current window.
func (e Extremum) Value() float64 {
	if len(e.queue) == 0 {
		return 0
	}
	return e.queue[0].value
}

// Ready returns true when the window is full.
func (e Extremum) Ready() bool {
	return e.index >= e.size
}
