package eval

import (
	"fmt"

	"github.com/drakos74/market-predictor/internal/metrics"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/rs/zerolog/log"
)

// DefaultThreshold is the probability above which a bar is predicted as up.
const DefaultThreshold = 0.5

// Score holds the binary classification metrics.
// Confusion is laid out as [true class][predicted class].
type Score struct {
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1"`
	Confusion [2][2]int `json:"confusion"`
}

// Report is the evaluation of a classifier on the test segment.
type Report struct {
	Kind      model.Kind `json:"kind"`
	Threshold float64    `json:"threshold"`
	Score
	Predictions   []int     `json:"predictions"`
	Probabilities []float64 `json:"probabilities"`
}

// Evaluate scores the classifier predictions against the true labels.
func Evaluate(m model.Classifier, threshold float64, x [][]float64, y []int) (*Report, error) {
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0,1) '%v': %w", threshold, model.ConfigErr)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("rows and labels differ '%d' vs '%d': %w", len(x), len(y), model.ConfigErr)
	}
	for i, row := range x {
		if len(row) != m.Features() {
			return nil, fmt.Errorf("row %d has %d features but the classifier expects %d: %w", i, len(row), m.Features(), model.ConfigErr)
		}
	}

	p := m.Probability(x)
	predictions := Predict(p, threshold)
	score, err := Compute(y, predictions)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Kind:          m.Kind(),
		Threshold:     threshold,
		Score:         score,
		Predictions:   predictions,
		Probabilities: p,
	}

	kind := string(m.Kind())
	metrics.Observer.Score(kind, "accuracy", score.Accuracy)
	metrics.Observer.Score(kind, "precision", score.Precision)
	metrics.Observer.Score(kind, "recall", score.Recall)
	metrics.Observer.Score(kind, "f1", score.F1)

	log.Info().
		Str("kind", kind).
		Int("rows", len(y)).
		Float64("accuracy", score.Accuracy).
		Float64("precision", score.Precision).
		Float64("recall", score.Recall).
		Float64("f1", score.F1).
		Str("confusion", fmt.Sprintf("%v", score.Confusion)).
		Msg("evaluated classifier")

	return report, nil
}

// Predict maps the probabilities to classes, strictly above the threshold is up.
func Predict(p []float64, threshold float64) []int {
	predictions := make([]int, len(p))
	for i, pp := range p {
		if pp > threshold {
			predictions[i] = 1
		}
	}
	return predictions
}

// Compute calculates the metrics for the given true and predicted labels.
// Precision, recall and f1 are 0 when there is nothing to divide by.
func Compute(yTrue, yPred []int) (Score, error) {
	var score Score
	if len(yTrue) != len(yPred) {
		return score, fmt.Errorf("true and predicted labels differ '%d' vs '%d': %w", len(yTrue), len(yPred), model.ConfigErr)
	}
	for i, t := range yTrue {
		p := yPred[i]
		if (t != 0 && t != 1) || (p != 0 && p != 1) {
			return score, fmt.Errorf("labels must be 0 or 1 but were '%d' and '%d': %w", t, p, model.ConfigErr)
		}
		score.Confusion[t][p]++
	}
	tn, fp := score.Confusion[0][0], score.Confusion[0][1]
	fn, tp := score.Confusion[1][0], score.Confusion[1][1]

	score.Accuracy = ratio(tp+tn, len(yTrue))
	score.Precision = ratio(tp, tp+fp)
	score.Recall = ratio(tp, tp+fn)
	if score.Precision+score.Recall > 0 {
		score.F1 = 2 * score.Precision * score.Recall / (score.Precision + score.Recall)
	}
	return score, nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
