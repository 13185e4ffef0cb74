package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/drakos74/market-predictor/internal/model"
	randomforest "github.com/malaschitz/randomForest"
	"gonum.org/v1/gonum/floats"
)

// ForestConfig defines the bagged tree ensemble.
type ForestConfig struct {
	Trees    int   `yaml:"trees" json:"trees" default:"100" validate:"gt=0"`
	MaxDepth int   `yaml:"max_depth" json:"max_depth" default:"10" validate:"gt=0"`
	MinLeaf  int   `yaml:"min_leaf" json:"min_leaf" default:"1" validate:"gt=0"`
	Seed     int64 `yaml:"seed" json:"seed" default:"42"`
}

// the forest library draws from the global random source,
// trainings are serialized so that a seed always gives the same trees.
var forestMutex sync.Mutex

// Forest is an ensemble of gini trees, each fit on a bootstrap sample of the rows.
// The probability is the average of the tree leaf class shares.
type Forest struct {
	Width      int                 `json:"width"`
	Trees      []randomforest.Tree `json:"trees"`
	Importance []float64           `json:"importance"`
}

// TrainForest fits a forest on the given rows and 0/1 labels.
func TrainForest(cfg ForestConfig, x [][]float64, y []int) (*Forest, error) {
	if _, err := targets(x, y); err != nil {
		return nil, err
	}
	width := len(x[0])

	forest := &randomforest.Forest{
		Data: randomforest.ForestData{X: x, Class: y},
		// the library counts the root as the first level
		MaxDepth:  cfg.MaxDepth + 1,
		MFeatures: sqrtFeatures(width),
		LeafSize:  cfg.MinLeaf,
	}

	forestMutex.Lock()
	workers := randomforest.NumWorkers
	randomforest.NumWorkers = 1
	rand.Seed(cfg.Seed)
	forest.Train(cfg.Trees)
	randomforest.NumWorkers = workers
	forestMutex.Unlock()

	for i := range forest.Trees {
		repair(&forest.Trees[i])
	}
	return &Forest{
		Width:      width,
		Trees:      forest.Trees,
		Importance: normalize(forest.FeatureImportance),
	}, nil
}

// Kind returns the classifier kind.
func (f *Forest) Kind() model.Kind {
	return model.ForestKind
}

// Features returns the input width.
func (f *Forest) Features() int {
	return f.Width
}

// Probability returns the probability of the positive class for every row.
func (f *Forest) Probability(x [][]float64) []float64 {
	forest := randomforest.Forest{
		Trees:  f.Trees,
		NTrees: len(f.Trees),
		// a forest trained only on 0 labels has single class leaves
		Classes: 2,
	}
	p := make([]float64, len(x))
	for i, row := range x {
		p[i] = forest.Vote(row)[1]
	}
	return p
}

// Check makes sure every tree can be walked for rows of the forest width.
func (f *Forest) Check() error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i := range f.Trees {
		if err := checkBranch(&f.Trees[i].Root, f.Width); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func checkBranch(b *randomforest.Branch, width int) error {
	if b.IsLeaf {
		if len(b.LeafValue) == 0 || len(b.LeafValue) > 2 {
			return fmt.Errorf("leaf with %d class shares", len(b.LeafValue))
		}
		for _, v := range b.LeafValue {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return fmt.Errorf("leaf class share %v", v)
			}
		}
		return nil
	}
	if b.Branch0 == nil || b.Branch1 == nil {
		return fmt.Errorf("split without both branches")
	}
	if b.Attribute < 0 || b.Attribute >= width {
		return fmt.Errorf("split on feature %d of %d", b.Attribute, width)
	}
	if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) {
		return fmt.Errorf("split value %v", b.Value)
	}
	if err := checkBranch(b.Branch0, width); err != nil {
		return err
	}
	return checkBranch(b.Branch1, width)
}

// repair fills what the library leaves undefined: a split that found no threshold
// can send all rows to one side, the empty leaf then gets the class shares of its sibling.
func repair(tree *randomforest.Tree) {
	if math.IsNaN(tree.Validation) {
		tree.Validation = 0
	}
	shares(&tree.Root)
}

func shares(b *randomforest.Branch) []float64 {
	if b.IsLeaf {
		return b.LeafValue
	}
	s0 := shares(b.Branch0)
	s1 := shares(b.Branch1)
	if empty(b.Branch0) {
		fill(b.Branch0, s1)
		return s1
	}
	if empty(b.Branch1) {
		fill(b.Branch1, s0)
		return s0
	}
	n0 := float64(b.Branch0.Size)
	n1 := float64(b.Branch1.Size)
	s := make([]float64, 2)
	for k := range s {
		s[k] = (share(s0, k)*n0 + share(s1, k)*n1) / (n0 + n1)
	}
	return s
}

func empty(b *randomforest.Branch) bool {
	return b.IsLeaf && b.Size == 0
}

func fill(b *randomforest.Branch, s []float64) {
	b.LeafValue = append([]float64{}, s...)
	b.Gini = 0
}

func share(s []float64, k int) float64 {
	if k < len(s) {
		return s[k]
	}
	return 0
}

// targets checks the training data and converts the labels to float targets.
func targets(x [][]float64, y []int) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("no training rows: %w", model.ConfigErr)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("rows and labels differ '%d' vs '%d': %w", len(x), len(y), model.ConfigErr)
	}
	width := len(x[0])
	if width == 0 {
		return nil, fmt.Errorf("no features: %w", model.ConfigErr)
	}
	target := make([]float64, len(y))
	for i, l := range y {
		if len(x[i]) != width {
			return nil, fmt.Errorf("row %d has %d features instead of %d: %w", i, len(x[i]), width, model.ConfigErr)
		}
		if l != 0 && l != 1 {
			return nil, fmt.Errorf("label must be 0 or 1 but was '%d': %w", l, model.ConfigErr)
		}
		target[i] = float64(l)
	}
	return target, nil
}

// normalize scales the importance to sum up to 1.
func normalize(importance []float64) []float64 {
	out := make([]float64, len(importance))
	copy(out, importance)
	if s := floats.Sum(out); s > 0 {
		floats.Scale(1/s, out)
	}
	return out
}
