package ml

import (
	"fmt"
	"math/rand"

	coinmath "github.com/drakos74/market-predictor/internal/math"
	"github.com/drakos74/market-predictor/internal/model"
	"gonum.org/v1/gonum/stat"
)

// BoostConfig defines the boosted tree ensemble.
type BoostConfig struct {
	Stages       int     `yaml:"stages" json:"stages" default:"100" validate:"gt=0"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate" default:"0.1" validate:"gt=0,lte=1"`
	MaxDepth     int     `yaml:"max_depth" json:"max_depth" default:"5" validate:"gt=0"`
	MinLeaf      int     `yaml:"min_leaf" json:"min_leaf" default:"1" validate:"gt=0"`
	Seed         int64   `yaml:"seed" json:"seed" default:"42"`
}

// Boost is an additive ensemble of trees on the log-odds, fit stage by stage
// to the gradient of the log loss.
type Boost struct {
	Width        int       `json:"width"`
	Prior        float64   `json:"prior"`
	LearningRate float64   `json:"learning_rate"`
	Trees        []*Node   `json:"trees"`
	Importance   []float64 `json:"importance"`
}

// TrainBoost fits the boosted ensemble on the given rows and 0/1 labels.
func TrainBoost(cfg BoostConfig, x [][]float64, y []int) (*Boost, error) {
	target, err := targets(x, y)
	if err != nil {
		return nil, err
	}
	width := len(x[0])
	rnd := rand.New(rand.NewSource(cfg.Seed))
	importance := make([]float64, width)

	prior := logOdds(stat.Mean(target, nil))
	f := make([]float64, len(x))
	for i := range f {
		f[i] = prior
	}

	rows := make([]int, len(x))
	for i := range rows {
		rows[i] = i
	}
	p := make([]float64, len(x))
	residual := make([]float64, len(x))
	tree := TreeConfig{
		MaxDepth: cfg.MaxDepth,
		MinLeaf:  cfg.MinLeaf,
	}

	boost := &Boost{
		Width:        width,
		Prior:        prior,
		LearningRate: cfg.LearningRate,
		Trees:        make([]*Node, cfg.Stages),
	}
	for s := 0; s < cfg.Stages; s++ {
		for i := range f {
			p[i] = coinmath.Sigmoid(f[i])
			residual[i] = target[i] - p[i]
		}
		g := newGrower(tree, x, residual, newtonLeaf(residual, p), rnd, importance)
		root := g.grow(rows, 0)
		for i, row := range x {
			f[i] += cfg.LearningRate * root.Predict(row)
		}
		boost.Trees[s] = root
	}
	boost.Importance = normalize(importance)
	return boost, nil
}

// Kind returns the classifier kind.
func (b *Boost) Kind() model.Kind {
	return model.BoostKind
}

// Features returns the input width.
func (b *Boost) Features() int {
	return b.Width
}

// Probability returns the probability of the positive class for every row.
func (b *Boost) Probability(x [][]float64) []float64 {
	p := make([]float64, len(x))
	for i, row := range x {
		f := b.Prior
		for _, t := range b.Trees {
			f += b.LearningRate * t.Predict(row)
		}
		p[i] = coinmath.Sigmoid(f)
	}
	return p
}

// Check makes sure every stage can be walked for rows of the ensemble width.
func (b *Boost) Check() error {
	if len(b.Trees) == 0 {
		return fmt.Errorf("ensemble has no stages")
	}
	for i, t := range b.Trees {
		if err := t.check(b.Width); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return nil
}

// newtonLeaf takes a single newton step on the log loss for the leaf rows.
func newtonLeaf(residual, p []float64) LeafFunc {
	return func(rows []int) float64 {
		var num, den float64
		for _, r := range rows {
			num += residual[r]
			den += p[r] * (1 - p[r])
		}
		if den < 1e-150 {
			return 0
		}
		return num / den
	}
}

func logOdds(p float64) float64 {
	return coinmath.Logit(coinmath.Clip(p, 1e-15, 1-1e-15))
}
