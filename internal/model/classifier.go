package model

import "fmt"

// Kind is the closed set of classifier variants.
type Kind string

const (
	// ForestKind is a bagged ensemble of classification trees.
	ForestKind Kind = "tree-ensemble-bagged"
	// BoostKind is a gradient boosted ensemble of regression trees.
	BoostKind Kind = "tree-ensemble-boosted"
	// NetworkKind is a feed-forward neural network.
	NetworkKind Kind = "feed-forward-network"
)

// Kinds lists all known classifier kinds.
var Kinds = []Kind{ForestKind, BoostKind, NetworkKind}

// ParseKind validates the given kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown model kind '%s': %w", s, ConfigErr)
}

// Classifier is a trained model able to produce the probability of an up move
// for each normalized feature row.
type Classifier interface {
	Kind() Kind
	// Features is the width of the input rows the model was trained on.
	Features() int
	Probability(x [][]float64) []float64
}
