package dataset

import (
	"fmt"
	"math"
	"time"

	"github.com/drakos74/market-predictor/internal/indicator"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/rs/zerolog/log"
)

// DefaultTestFraction is the share of the most recent rows kept out for testing.
const DefaultTestFraction = 0.2

// DefaultSchema is the schema of the raw fields followed by every indicator of the config.
func DefaultSchema(cfg indicator.Config) model.Schema {
	return model.NewSchema(append(append([]string{}, model.RawFields...), cfg.Names()...)...)
}

// Matrix is the normalized feature matrix of a labeled sequence, split chronologically.
// Every training row precedes every test row.
type Matrix struct {
	Schema  model.Schema
	Horizon int
	Scaler  *Scaler
	XTrain  [][]float64
	YTrain  []int
	XTest   [][]float64
	YTest   []int
	// TestTime holds the timestamp of every test row.
	TestTime []time.Time
}

// Split returns the number of train and test rows for n rows.
func Split(n int, testFraction float64) (train, test int) {
	test = int(math.Ceil(testFraction * float64(n)))
	if test > n {
		test = n
	}
	return n - test, test
}

// Vectors extracts the feature vectors of the bars in schema order.
func Vectors(bars []model.IndicatorizedBar, schema model.Schema) ([][]float64, error) {
	x := make([][]float64, len(bars))
	for i, bar := range bars {
		v, err := schema.Vector(bar)
		if err != nil {
			return nil, err
		}
		x[i] = v
	}
	return x, nil
}

// Build creates the feature matrix for the given horizon.
// The scaler is fit on the training rows only and applied to both segments.
func Build(bars []model.LabeledBar, schema model.Schema, horizon int, testFraction float64) (*Matrix, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("test fraction must be in (0,1) '%v': %w", testFraction, model.ConfigErr)
	}

	nTrain, nTest := Split(len(bars), testFraction)
	if nTrain == 0 || nTest == 0 {
		return nil, fmt.Errorf("cannot split %d rows into train and test with fraction %v: %w",
			len(bars), testFraction, model.ConfigErr)
	}

	x := make([][]float64, len(bars))
	y := make([]int, len(bars))
	for i, bar := range bars {
		label, ok := bar.Labels[horizon]
		if !ok {
			return nil, fmt.Errorf("horizon '%d' not labeled for bar at %v: %w", horizon, bar.Time, model.ConfigErr)
		}
		v, err := schema.Vector(bar.IndicatorizedBar)
		if err != nil {
			return nil, err
		}
		x[i] = v
		y[i] = label
	}

	scaler, err := Fit(x[:nTrain])
	if err != nil {
		return nil, fmt.Errorf("could not fit scaler: %w", err)
	}
	xTrain, err := scaler.Transform(x[:nTrain])
	if err != nil {
		return nil, err
	}
	xTest, err := scaler.Transform(x[nTrain:])
	if err != nil {
		return nil, err
	}

	testTime := make([]time.Time, nTest)
	for i := range testTime {
		testTime[i] = bars[nTrain+i].Time
	}

	log.Info().
		Int("horizon", horizon).
		Int("features", schema.Len()).
		Int("train", nTrain).
		Int("test", nTest).
		Time("from", bars[0].Time).
		Time("split", bars[nTrain].Time).
		Msg("built feature matrix")

	return &Matrix{
		Schema:   schema,
		Horizon:  horizon,
		Scaler:   scaler,
		XTrain:   xTrain,
		YTrain:   y[:nTrain],
		XTest:    xTest,
		YTest:    y[nTrain:],
		TestTime: testTime,
	}, nil
}
