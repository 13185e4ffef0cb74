package ml

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/drakos74/market-predictor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable creates rows where the label depends only on the sign of the first feature.
func separable(seed int64, n, width int) ([][]float64, []int) {
	rnd := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		row := make([]float64, width)
		for j := range row {
			row[j] = rnd.NormFloat64()
		}
		x[i] = row
		if row[0] > 0 {
			y[i] = 1
		}
	}
	return x, y
}

// regression leaves averaging the target
func meanLeaf(target []float64) LeafFunc {
	return func(rows []int) float64 {
		if len(rows) == 0 {
			return 0
		}
		s := 0.0
		for _, r := range rows {
			s += target[r]
		}
		return s / float64(len(rows))
	}
}

func rowsOf(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func TestTree_Grow(t *testing.T) {

	x := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	target := []float64{0, 0, 1, 1}

	g := newGrower(TreeConfig{MaxDepth: 3}, x, target, meanLeaf(target), rand.New(rand.NewSource(1)), make([]float64, 2))
	root := g.grow(rowsOf(len(x)), 0)

	require.False(t, root.Leaf())
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 2.5, root.Threshold)
	assert.True(t, root.Left.Leaf())
	assert.True(t, root.Right.Leaf())
	assert.Equal(t, 0.0, root.Left.Value)
	assert.Equal(t, 1.0, root.Right.Value)
	assert.Equal(t, 1, root.Depth())

	// the constant feature never splits
	assert.Equal(t, 0.0, g.importance[1])
	assert.Equal(t, 1.0, g.importance[0])

	assert.Equal(t, 0.0, root.Predict([]float64{0, 0}))
	assert.Equal(t, 1.0, root.Predict([]float64{10, 0}))

}

func TestTree_Limits(t *testing.T) {

	x, y := separable(1, 200, 3)
	target := make([]float64, len(y))
	for i, l := range y {
		target[i] = float64(l)
	}

	type test struct {
		cfg   TreeConfig
		depth int
	}

	tests := map[string]test{
		"stump": {
			cfg:   TreeConfig{MaxDepth: 1},
			depth: 1,
		},
		"no-split": {
			cfg:   TreeConfig{MaxDepth: 0},
			depth: 0,
		},
		"large-leaves": {
			cfg:   TreeConfig{MaxDepth: 10, MinLeaf: 150},
			depth: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			g := newGrower(tt.cfg, x, target, meanLeaf(target), rand.New(rand.NewSource(1)), nil)
			root := g.grow(rowsOf(len(x)), 0)
			assert.Equal(t, tt.depth, root.Depth())
		})
	}

}

func TestTree_PureNode(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	target := []float64{1, 1, 1}
	g := newGrower(TreeConfig{MaxDepth: 5}, x, target, meanLeaf(target), rand.New(rand.NewSource(1)), nil)
	root := g.grow(rowsOf(len(x)), 0)
	assert.True(t, root.Leaf())
	assert.Equal(t, 1.0, root.Value)
}

func TestTargets(t *testing.T) {

	type test struct {
		x [][]float64
		y []int
	}

	tests := map[string]test{
		"empty":          {x: [][]float64{}, y: []int{}},
		"length":         {x: [][]float64{{1}, {2}}, y: []int{1}},
		"no-features":    {x: [][]float64{{}}, y: []int{1}},
		"ragged":         {x: [][]float64{{1, 2}, {1}}, y: []int{1, 0}},
		"not-binary":     {x: [][]float64{{1}, {2}}, y: []int{1, 2}},
		"negative-label": {x: [][]float64{{1}, {2}}, y: []int{-1, 0}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := targets(tt.x, tt.y)
			assert.True(t, errors.Is(err, model.ConfigErr))
		})
	}

}
