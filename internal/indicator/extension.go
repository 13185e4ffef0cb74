package indicator

import "github.com/drakos74/market-predictor/internal/model"

// Reducer consumes bars in order and returns the indicator value for the last one,
// or false while its window is not yet full.
type Reducer func(bar model.Bar) (float64, bool)

// Extension is a custom indicator added on top of the core set.
// Every extension is versioned separately, the version ends up in the feature schema,
// so that a model is never fed a feature computed with a different formula.
type Extension interface {
	Name() string
	Version() string
	// Reducer creates a fresh reducer for one pass over a bar sequence.
	Reducer() Reducer
}
