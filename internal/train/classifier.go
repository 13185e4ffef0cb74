package train

import (
	"fmt"

	"github.com/drakos74/market-predictor/internal/math/ml"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/rs/zerolog/log"
)

// ClassifierTrainer fits the tree ensembles.
type ClassifierTrainer struct {
	cfg Config
}

// Classifier creates a new tree ensemble trainer.
func Classifier(cfg Config) *ClassifierTrainer {
	return &ClassifierTrainer{cfg: cfg}
}

// Train fits a classifier of the given kind.
// The network kind is trained through the SequenceTrainer and is rejected here.
func (t *ClassifierTrainer) Train(kind model.Kind, x [][]float64, y []int) (model.Classifier, error) {
	var c model.Classifier
	var err error
	switch kind {
	case model.ForestKind:
		c, err = ml.TrainForest(t.cfg.Forest, x, y)
	case model.BoostKind:
		c, err = ml.TrainBoost(t.cfg.Boost, x, y)
	default:
		return nil, fmt.Errorf("cannot train '%s' as a tree ensemble: %w", kind, model.ConfigErr)
	}
	if err != nil {
		return nil, fmt.Errorf("could not train '%s': %w", kind, err)
	}
	log.Info().
		Str("kind", string(kind)).
		Int("rows", len(x)).
		Int("features", c.Features()).
		Msg("trained classifier")
	return c, nil
}

// Importance returns the split gain share of every feature, if the classifier tracks it.
func Importance(c model.Classifier) ([]float64, bool) {
	switch m := c.(type) {
	case *ml.Forest:
		return m.Importance, true
	case *ml.Boost:
		return m.Importance, true
	}
	return nil, false
}
