package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// minGain is the least impurity decrease that justifies a split.
const minGain = 1e-12

// Node is a node of a binary regression tree.
// Leaves carry the Value, inner nodes send x[Feature] <= Threshold to the Left.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Value     float64 `json:"value"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
}

// Leaf returns true if the node has no children.
func (n *Node) Leaf() bool {
	return n.Left == nil || n.Right == nil
}

// Predict walks the tree down to the leaf for the given input.
func (n *Node) Predict(x []float64) float64 {
	node := n
	for !node.Leaf() {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// Depth returns the depth of the tree below this node.
func (n *Node) Depth() int {
	if n.Leaf() {
		return 0
	}
	l := n.Left.Depth()
	r := n.Right.Depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// check makes sure the tree can be walked for rows of the given width.
func (n *Node) check(width int) error {
	if n == nil {
		return fmt.Errorf("missing node")
	}
	if n.Left == nil && n.Right == nil {
		if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
			return fmt.Errorf("leaf value %v", n.Value)
		}
		return nil
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("split without both children")
	}
	if n.Feature < 0 || n.Feature >= width {
		return fmt.Errorf("split on feature %d of %d", n.Feature, width)
	}
	if math.IsNaN(n.Threshold) || math.IsInf(n.Threshold, 0) {
		return fmt.Errorf("split threshold %v", n.Threshold)
	}
	if err := n.Left.check(width); err != nil {
		return err
	}
	return n.Right.check(width)
}

// TreeConfig defines the growth limits of a tree.
type TreeConfig struct {
	MaxDepth int
	MinLeaf  int
	// Features is the number of randomly picked candidate features at each split, 0 means all of them.
	Features int
}

// LeafFunc computes the value of a leaf from the rows that end up in it.
type LeafFunc func(rows []int) float64

// grower fits a regression tree on the target, splitting on the sum of squared errors.
// For 0/1 targets this is the gini criterion.
type grower struct {
	cfg        TreeConfig
	x          [][]float64
	target     []float64
	leaf       LeafFunc
	rnd        *rand.Rand
	importance []float64
}

func newGrower(cfg TreeConfig, x [][]float64, target []float64, leaf LeafFunc, rnd *rand.Rand, importance []float64) *grower {
	if cfg.MinLeaf < 1 {
		cfg.MinLeaf = 1
	}
	width := len(x[0])
	if cfg.Features <= 0 || cfg.Features > width {
		cfg.Features = width
	}
	return &grower{
		cfg:        cfg,
		x:          x,
		target:     target,
		leaf:       leaf,
		rnd:        rnd,
		importance: importance,
	}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	at        int
}

func (g *grower) grow(rows []int, depth int) *Node {
	node := &Node{Value: g.leaf(rows)}
	if depth >= g.cfg.MaxDepth || len(rows) < 2*g.cfg.MinLeaf {
		return node
	}
	sum, sumSq := g.sums(rows)
	sse := sumSq - sum*sum/float64(len(rows))
	if sse <= minGain {
		return node
	}

	best := split{gain: minGain}
	var bestRows []int
	for _, f := range g.rnd.Perm(len(g.x[0]))[:g.cfg.Features] {
		sorted := make([]int, len(rows))
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			return g.x[sorted[i]][f] < g.x[sorted[j]][f]
		})
		if s, ok := g.best(f, sorted, sum, sumSq, sse); ok && s.gain > best.gain {
			best = s
			bestRows = sorted
		}
	}
	if bestRows == nil {
		return node
	}

	if g.importance != nil {
		g.importance[best.feature] += best.gain
	}
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = g.grow(bestRows[:best.at], depth+1)
	node.Right = g.grow(bestRows[best.at:], depth+1)
	return node
}

// best scans the rows sorted on the feature for the split with the largest error reduction.
func (g *grower) best(f int, sorted []int, sum, sumSq, sse float64) (split, bool) {
	n := len(sorted)
	var leftSum, leftSq float64
	s := split{feature: f}
	found := false
	for i := 0; i < n-1; i++ {
		t := g.target[sorted[i]]
		leftSum += t
		leftSq += t * t
		nl := i + 1
		nr := n - nl
		if nl < g.cfg.MinLeaf || nr < g.cfg.MinLeaf {
			continue
		}
		v, next := g.x[sorted[i]][f], g.x[sorted[i+1]][f]
		if v == next {
			continue
		}
		rightSum := sum - leftSum
		rightSq := sumSq - leftSq
		gain := sse - (leftSq - leftSum*leftSum/float64(nl)) - (rightSq - rightSum*rightSum/float64(nr))
		if gain > s.gain {
			s.gain = gain
			s.at = nl
			s.threshold = v + (next-v)/2
			if s.threshold >= next {
				s.threshold = v
			}
			found = true
		}
	}
	return s, found
}

func (g *grower) sums(rows []int) (sum, sumSq float64) {
	for _, r := range rows {
		t := g.target[r]
		sum += t
		sumSq += t * t
	}
	return sum, sumSq
}

// sqrtFeatures is the number of candidate features for a forest split.
func sqrtFeatures(width int) int {
	k := int(math.Sqrt(float64(width)))
	if k < 1 {
		return 1
	}
	return k
}
