package ml

import (
	"fmt"
	"math"
	"math/rand"

	xml "github.com/drakos74/go-ex-machina/xmachina/ml"
	"github.com/drakos74/go-ex-machina/xmath"
	"github.com/drakos74/market-predictor/internal/model"
)

const (
	// RectifierActivation is the name of the rectified linear activation.
	RectifierActivation = "relu"
	// SigmoidActivation is the name of the logistic activation.
	SigmoidActivation = "sigmoid"
)

// epsilon keeps the log loss finite.
const epsilon = 1e-7

// Rectifier is the rectified linear activation.
// As for the other activations, D is expressed on the activation output.
var Rectifier xml.Activation = rectifier{}

type rectifier struct {
}

// F applies the activation function.
func (r rectifier) F(x float64) float64 {
	return math.Max(0, x)
}

// D returns the derivative of the activation function.
func (r rectifier) D(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

func activation(name string) (xml.Activation, error) {
	switch name {
	case RectifierActivation:
		return Rectifier, nil
	case SigmoidActivation:
		return xml.Sigmoid, nil
	}
	return nil, fmt.Errorf("unknown activation '%s': %w", name, model.ConfigErr)
}

// NetworkConfig defines the feed-forward network and its optimizer.
type NetworkConfig struct {
	Hidden       []int     `yaml:"hidden" json:"hidden" default:"[128,256,128,64,32]" validate:"min=1,dive,gt=0"`
	Dropout      []float64 `yaml:"dropout" json:"dropout" default:"[0.3,0.3,0.3,0.2,0]" validate:"dive,gte=0,lt=1"`
	LearningRate float64   `yaml:"learning_rate" json:"learning_rate" default:"0.0005" validate:"gt=0"`
	Batch        int       `yaml:"batch" json:"batch" default:"32" validate:"gt=0"`
	Seed         int64     `yaml:"seed" json:"seed" default:"42"`
}

// Layer is a fully connected layer, weights are laid out as output x input.
// Dropout applies to the layer output during training only.
type Layer struct {
	Weights    xmath.Matrix `json:"weights"`
	Bias       xmath.Vector `json:"bias"`
	Activation string       `json:"activation"`
	Dropout    float64      `json:"dropout"`
}

func (l Layer) copy() Layer {
	return Layer{
		Weights:    l.Weights.Copy(),
		Bias:       l.Bias.Copy(),
		Activation: l.Activation,
		Dropout:    l.Dropout,
	}
}

// Network is a feed-forward network with a single sigmoid output.
type Network struct {
	Width  int     `json:"width"`
	Layers []Layer `json:"layers"`

	activations []xml.Activation
}

// NewNetwork creates a network with glorot uniform weights and zero biases.
func NewNetwork(cfg NetworkConfig, width int, rnd *rand.Rand) (*Network, error) {
	if width <= 0 {
		return nil, fmt.Errorf("no input features: %w", model.ConfigErr)
	}
	if len(cfg.Dropout) > len(cfg.Hidden) {
		return nil, fmt.Errorf("more dropout rates than hidden layers '%d' vs '%d': %w",
			len(cfg.Dropout), len(cfg.Hidden), model.ConfigErr)
	}
	net := &Network{
		Width:  width,
		Layers: make([]Layer, 0, len(cfg.Hidden)+1),
	}
	in := width
	for i, out := range append(append([]int{}, cfg.Hidden...), 1) {
		layer := Layer{
			Weights:    glorot(rnd, in, out),
			Bias:       xmath.Vec(out),
			Activation: RectifierActivation,
		}
		if i < len(cfg.Dropout) {
			layer.Dropout = cfg.Dropout[i]
		}
		if i == len(cfg.Hidden) {
			layer.Activation = SigmoidActivation
		}
		net.Layers = append(net.Layers, layer)
		in = out
	}
	if err := net.Init(); err != nil {
		return nil, err
	}
	return net, nil
}

// Init resolves the layer activations and checks the layer shapes.
// It must be called after decoding a network.
func (net *Network) Init() error {
	net.activations = make([]xml.Activation, len(net.Layers))
	in := net.Width
	for i, l := range net.Layers {
		a, err := activation(l.Activation)
		if err != nil {
			return err
		}
		net.activations[i] = a
		if len(l.Weights) != len(l.Bias) {
			return fmt.Errorf("layer %d has %d weight rows and %d biases: %w", i, len(l.Weights), len(l.Bias), model.ConfigErr)
		}
		for _, row := range l.Weights {
			if len(row) != in {
				return fmt.Errorf("layer %d expects %d inputs but gets %d: %w", i, len(row), in, model.ConfigErr)
			}
		}
		in = len(l.Bias)
	}
	if in != 1 {
		return fmt.Errorf("network output must be a single unit but was %d: %w", in, model.ConfigErr)
	}
	return nil
}

// Kind returns the classifier kind.
func (net *Network) Kind() model.Kind {
	return model.NetworkKind
}

// Features returns the input width.
func (net *Network) Features() int {
	return net.Width
}

// Probability returns the probability of the positive class for every row.
func (net *Network) Probability(x [][]float64) []float64 {
	p := make([]float64, len(x))
	for i, row := range x {
		outputs := net.forward(row, nil)
		p[i] = outputs[len(outputs)-1][0]
	}
	return p
}

// Copy creates a deep copy of the network.
func (net *Network) Copy() *Network {
	n := &Network{
		Width:       net.Width,
		Layers:      make([]Layer, len(net.Layers)),
		activations: net.activations,
	}
	for i, l := range net.Layers {
		n.Layers[i] = l.copy()
	}
	return n
}

// forward returns the output of every layer. masks hold the dropout scaling per layer,
// with nil masks there is no dropout.
func (net *Network) forward(x []float64, masks []xmath.Vector) []xmath.Vector {
	outputs := make([]xmath.Vector, len(net.Layers))
	a := xmath.Vector(x)
	for i, l := range net.Layers {
		a = l.Weights.Prod(a).Add(l.Bias).Op(net.activations[i].F)
		if masks != nil && masks[i] != nil {
			a = a.X(masks[i])
		}
		outputs[i] = a
	}
	return outputs
}

// Learner trains a network with mini-batch adam on the log loss.
type Learner struct {
	cfg  NetworkConfig
	net  *Network
	rate *xml.Learning
	rnd  *rand.Rand

	mw, vw []xmath.Matrix
	mb, vb []xmath.Vector
	step   int
}

// NewLearner creates a learner for a freshly initialised network.
func NewLearner(cfg NetworkConfig, width int) (*Learner, error) {
	rnd := rand.New(rand.NewSource(cfg.Seed))
	net, err := NewNetwork(cfg, width, rnd)
	if err != nil {
		return nil, err
	}
	l := &Learner{
		cfg:  cfg,
		net:  net,
		rate: xml.Rate(cfg.LearningRate),
		rnd:  rnd,
	}
	for _, layer := range net.Layers {
		rows, cols := len(layer.Weights), len(layer.Weights[0])
		l.mw = append(l.mw, xmath.Mat(rows).Of(cols))
		l.vw = append(l.vw, xmath.Mat(rows).Of(cols))
		l.mb = append(l.mb, xmath.Vec(rows))
		l.vb = append(l.vb, xmath.Vec(rows))
	}
	return l, nil
}

// Epoch runs one pass over the shuffled training rows.
// It returns the average loss and accuracy as observed while training, e.g. with dropout.
func (l *Learner) Epoch(x [][]float64, y []int) (loss, accuracy float64) {
	n := len(x)
	if n == 0 {
		return 0, 0
	}
	order := l.rnd.Perm(n)
	var correct int
	for start := 0; start < n; start += l.cfg.Batch {
		end := start + l.cfg.Batch
		if end > n {
			end = n
		}
		gw, gb := l.zeroGradients()
		for _, i := range order[start:end] {
			p := l.backward(x[i], float64(y[i]), gw, gb)
			loss += logLoss(p, float64(y[i]))
			if predict(p) == y[i] {
				correct++
			}
		}
		l.update(gw, gb, float64(end-start))
	}
	return loss / float64(n), float64(correct) / float64(n)
}

// Validate returns the loss and accuracy on the given rows without dropout.
func (l *Learner) Validate(x [][]float64, y []int) (loss, accuracy float64) {
	if len(x) == 0 {
		return 0, 0
	}
	var correct int
	for i, p := range l.net.Probability(x) {
		loss += logLoss(p, float64(y[i]))
		if predict(p) == y[i] {
			correct++
		}
	}
	return loss / float64(len(x)), float64(correct) / float64(len(x))
}

// Snapshot returns a copy of the network as trained so far.
func (l *Learner) Snapshot() model.Classifier {
	return l.net.Copy()
}

func (l *Learner) zeroGradients() ([]xmath.Matrix, []xmath.Vector) {
	gw := make([]xmath.Matrix, len(l.net.Layers))
	gb := make([]xmath.Vector, len(l.net.Layers))
	for i, layer := range l.net.Layers {
		gw[i] = xmath.Mat(len(layer.Weights)).Of(len(layer.Weights[0]))
		gb[i] = xmath.Vec(len(layer.Bias))
	}
	return gw, gb
}

// backward accumulates the gradients of the log loss for one row and returns the output probability.
func (l *Learner) backward(x []float64, y float64, gw []xmath.Matrix, gb []xmath.Vector) float64 {
	masks := l.masks()
	outputs := l.net.forward(x, masks)
	last := len(outputs) - 1
	p := outputs[last][0]

	// sigmoid output with log loss
	delta := xmath.Vec(1).With(p - y)
	for i := last; i >= 0; i-- {
		input := xmath.Vector(x)
		if i > 0 {
			input = outputs[i-1]
		}
		accumulate(gw[i], delta, input)
		for j, d := range delta {
			gb[i][j] += d
		}
		if i == 0 {
			break
		}
		// back through the weights, the dropout mask and the activation of the layer below
		prev := transposeProd(l.net.Layers[i].Weights, delta)
		act := l.net.activations[i-1]
		mask := masks[i-1]
		for j := range prev {
			if mask != nil {
				if mask[j] == 0 {
					prev[j] = 0
					continue
				}
				// recover the activation output before the dropout scaling
				prev[j] *= mask[j] * act.D(outputs[i-1][j]/mask[j])
			} else {
				prev[j] *= act.D(outputs[i-1][j])
			}
		}
		delta = prev
	}
	return p
}

// masks draws the inverted dropout masks for a training pass.
func (l *Learner) masks() []xmath.Vector {
	masks := make([]xmath.Vector, len(l.net.Layers))
	for i, layer := range l.net.Layers {
		if layer.Dropout <= 0 {
			continue
		}
		keep := 1 - layer.Dropout
		m := xmath.Vec(len(layer.Bias))
		for j := range m {
			if l.rnd.Float64() < keep {
				m[j] = 1 / keep
			}
		}
		masks[i] = m
	}
	return masks
}

// update applies one adam step with the batch average gradients.
func (l *Learner) update(gw []xmath.Matrix, gb []xmath.Vector, batch float64) {
	const (
		beta1 = 0.9
		beta2 = 0.999
	)
	l.step++
	c1 := 1 - math.Pow(beta1, float64(l.step))
	c2 := 1 - math.Pow(beta2, float64(l.step))
	adam := func(w, g, m, v *float64, rate float64) {
		grad := *g / batch
		*m = beta1**m + (1-beta1)*grad
		*v = beta2**v + (1-beta2)*grad*grad
		*w -= rate * (*m / c1) / (math.Sqrt(*v/c2) + epsilon)
	}
	for i, layer := range l.net.Layers {
		for r := range layer.Weights {
			for c := range layer.Weights[r] {
				adam(&layer.Weights[r][c], &gw[i][r][c], &l.mw[i][r][c], &l.vw[i][r][c], l.rate.WRate())
			}
			adam(&layer.Bias[r], &gb[i][r], &l.mb[i][r], &l.vb[i][r], l.rate.BRate())
		}
	}
}

// accumulate adds the outer product of delta and input to the gradient.
func accumulate(g xmath.Matrix, delta, input xmath.Vector) {
	for r, d := range delta {
		if d == 0 {
			continue
		}
		row := g[r]
		for c, v := range input {
			row[c] += d * v
		}
	}
}

// transposeProd multiplies the transposed weights with the vector, without building the transpose.
func transposeProd(w xmath.Matrix, v xmath.Vector) xmath.Vector {
	out := xmath.Vec(len(w[0]))
	for r, d := range v {
		if d == 0 {
			continue
		}
		for c, x := range w[r] {
			out[c] += x * d
		}
	}
	return out
}

// glorot draws uniform weights in the range that keeps the activation variance stable.
func glorot(rnd *rand.Rand, in, out int) xmath.Matrix {
	limit := math.Sqrt(6 / float64(in+out))
	w := xmath.Mat(out).Of(in)
	for i := range w {
		for j := range w[i] {
			w[i][j] = (rnd.Float64()*2 - 1) * limit
		}
	}
	return w
}

func logLoss(p, y float64) float64 {
	p = xmath.Clip(epsilon, 1-epsilon)(p)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

func predict(p float64) int {
	if p > 0.5 {
		return 1
	}
	return 0
}
