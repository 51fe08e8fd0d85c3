// Package dqn implements the learning stack: a small dense policy
// network over gonum matrices, an experience replay buffer, a DQN
// trainer with target network and epsilon-greedy exploration, and a PPO
// variant whose actor and critic are two separate networks of the same
// dense layout (they share no parameters).
package dqn

import (
	"math"
	rand "math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Network is a three-layer dense MLP with ReLU activations and an
// identity output. Weight matrices are stored (rows = output units) so a
// batch forward is X·Wᵀ + b.
type Network struct {
	InputSize  int
	HiddenSize int
	OutputSize int

	W1, W2, W3 *mat.Dense
	B1, B2, B3 *mat.VecDense
}

// NewNetwork initializes a network with uniform weights in
// ±sqrt(2/fan-in) drawn from the given generator. A nil generator leaves the parameters
// zeroed, for callers about to overwrite them from a checkpoint.
func NewNetwork(inputSize, hiddenSize, outputSize int, rng *rand.Rand) *Network {
	n := &Network{
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
		OutputSize: outputSize,
		W1:         mat.NewDense(hiddenSize, inputSize, nil),
		W2:         mat.NewDense(hiddenSize, hiddenSize, nil),
		W3:         mat.NewDense(outputSize, hiddenSize, nil),
		B1:         mat.NewVecDense(hiddenSize, nil),
		B2:         mat.NewVecDense(hiddenSize, nil),
		B3:         mat.NewVecDense(outputSize, nil),
	}
	initUniform(n.W1, inputSize, rng)
	initUniform(n.W2, hiddenSize, rng)
	initUniform(n.W3, hiddenSize, rng)
	return n
}

func initUniform(w *mat.Dense, fanIn int, rng *rand.Rand) {
	if rng == nil {
		return
	}
	scale := math.Sqrt(2.0 / float64(fanIn))
	data := w.RawMatrix().Data
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * scale
	}
}

// Clone returns an independent copy with identical parameters.
func (n *Network) Clone() *Network {
	c := &Network{
		InputSize:  n.InputSize,
		HiddenSize: n.HiddenSize,
		OutputSize: n.OutputSize,
		W1:         mat.DenseCopyOf(n.W1),
		W2:         mat.DenseCopyOf(n.W2),
		W3:         mat.DenseCopyOf(n.W3),
		B1:         mat.VecDenseCopyOf(n.B1),
		B2:         mat.VecDenseCopyOf(n.B2),
		B3:         mat.VecDenseCopyOf(n.B3),
	}
	return c
}

// params returns the raw parameter slices in a fixed order shared with
// Gradients, so the optimizer and soft update can walk them together.
func (n *Network) params() [][]float64 {
	return [][]float64{
		n.W1.RawMatrix().Data,
		n.W2.RawMatrix().Data,
		n.W3.RawMatrix().Data,
		n.B1.RawVector().Data,
		n.B2.RawVector().Data,
		n.B3.RawVector().Data,
	}
}

// Infer runs a single state through the network.
func (n *Network) Infer(input []float64) []float64 {
	x := mat.NewDense(1, n.InputSize, input)
	cache := n.forwardBatch(x)
	out := make([]float64, n.OutputSize)
	copy(out, cache.Out.RawRowView(0))
	return out
}

// forwardCache keeps the activations needed by the backward pass.
type forwardCache struct {
	X        *mat.Dense
	Z1, A1   *mat.Dense
	Z2, A2   *mat.Dense
	Out      *mat.Dense
	batchLen int
}

func (n *Network) forwardBatch(x *mat.Dense) *forwardCache {
	batch, _ := x.Dims()
	cache := &forwardCache{X: x, batchLen: batch}

	cache.Z1 = mat.NewDense(batch, n.HiddenSize, nil)
	cache.Z1.Mul(x, n.W1.T())
	addBias(cache.Z1, n.B1)
	cache.A1 = reluOf(cache.Z1)

	cache.Z2 = mat.NewDense(batch, n.HiddenSize, nil)
	cache.Z2.Mul(cache.A1, n.W2.T())
	addBias(cache.Z2, n.B2)
	cache.A2 = reluOf(cache.Z2)

	cache.Out = mat.NewDense(batch, n.OutputSize, nil)
	cache.Out.Mul(cache.A2, n.W3.T())
	addBias(cache.Out, n.B3)
	return cache
}

// Gradients mirrors the network's parameter shapes.
type Gradients struct {
	W1, W2, W3 *mat.Dense
	B1, B2, B3 *mat.VecDense
}

func newGradients(n *Network) *Gradients {
	return &Gradients{
		W1: mat.NewDense(n.HiddenSize, n.InputSize, nil),
		W2: mat.NewDense(n.HiddenSize, n.HiddenSize, nil),
		W3: mat.NewDense(n.OutputSize, n.HiddenSize, nil),
		B1: mat.NewVecDense(n.HiddenSize, nil),
		B2: mat.NewVecDense(n.HiddenSize, nil),
		B3: mat.NewVecDense(n.OutputSize, nil),
	}
}

func (g *Gradients) slices() [][]float64 {
	return [][]float64{
		g.W1.RawMatrix().Data,
		g.W2.RawMatrix().Data,
		g.W3.RawMatrix().Data,
		g.B1.RawVector().Data,
		g.B2.RawVector().Data,
		g.B3.RawVector().Data,
	}
}

// backward propagates the output gradient dOut (batch x out) through the
// cached activations and returns the parameter gradients.
func (n *Network) backward(cache *forwardCache, dOut *mat.Dense) *Gradients {
	g := newGradients(n)

	g.W3.Mul(dOut.T(), cache.A2)
	columnSums(dOut, g.B3)

	dA2 := mat.NewDense(cache.batchLen, n.HiddenSize, nil)
	dA2.Mul(dOut, n.W3)
	dZ2 := reluBackward(dA2, cache.Z2)

	g.W2.Mul(dZ2.T(), cache.A1)
	columnSums(dZ2, g.B2)

	dA1 := mat.NewDense(cache.batchLen, n.HiddenSize, nil)
	dA1.Mul(dZ2, n.W2)
	dZ1 := reluBackward(dA1, cache.Z1)

	g.W1.Mul(dZ1.T(), cache.X)
	columnSums(dZ1, g.B1)
	return g
}

// SoftUpdate mixes source parameters into the receiver:
// target <- (1-tau)*target + tau*source.
func (n *Network) SoftUpdate(source *Network, tau float64) {
	src := source.params()
	for i, dst := range n.params() {
		for j := range dst {
			dst[j] = (1-tau)*dst[j] + tau*src[i][j]
		}
	}
}

func addBias(m *mat.Dense, b *mat.VecDense) {
	rows, cols := m.Dims()
	bias := b.RawVector().Data
	for r := 0; r < rows; r++ {
		row := m.RawRowView(r)
		for c := 0; c < cols; c++ {
			row[c] += bias[c]
		}
	}
}

func reluOf(m *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(m)
	data := out.RawMatrix().Data
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return out
}

// reluBackward zeroes the incoming gradient wherever the pre-activation
// was negative.
func reluBackward(dA, z *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(dA)
	dst := out.RawMatrix().Data
	pre := z.RawMatrix().Data
	for i := range dst {
		if pre[i] <= 0 {
			dst[i] = 0
		}
	}
	return out
}

func columnSums(m *mat.Dense, out *mat.VecDense) {
	rows, cols := m.Dims()
	sums := out.RawVector().Data
	for c := 0; c < cols; c++ {
		sums[c] = 0
	}
	for r := 0; r < rows; r++ {
		row := m.RawRowView(r)
		for c := 0; c < cols; c++ {
			sums[c] += row[c]
		}
	}
}

// Adam is the optimizer used for both trainers, with global-norm gradient
// clipping applied before the update.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	t int
	m [][]float64
	v [][]float64
}

// NewAdam returns an optimizer with the usual moment defaults.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Step applies one clipped Adam update to the network.
func (o *Adam) Step(n *Network, g *Gradients, clip float64) {
	grads := g.slices()
	if clip > 0 {
		clipGlobalNorm(grads, clip)
	}

	params := n.params()
	if o.m == nil {
		o.m = make([][]float64, len(params))
		o.v = make([][]float64, len(params))
		for i, p := range params {
			o.m[i] = make([]float64, len(p))
			o.v[i] = make([]float64, len(p))
		}
	}
	o.t++
	correction1 := 1 - math.Pow(o.Beta1, float64(o.t))
	correction2 := 1 - math.Pow(o.Beta2, float64(o.t))

	for i, p := range params {
		grad := grads[i]
		m, v := o.m[i], o.v[i]
		for j := range p {
			m[j] = o.Beta1*m[j] + (1-o.Beta1)*grad[j]
			v[j] = o.Beta2*v[j] + (1-o.Beta2)*grad[j]*grad[j]
			mHat := m[j] / correction1
			vHat := v[j] / correction2
			p[j] -= o.LearningRate * mHat / (math.Sqrt(vHat) + o.Epsilon)
		}
	}
}

func clipGlobalNorm(grads [][]float64, limit float64) {
	total := 0.0
	for _, g := range grads {
		for _, v := range g {
			total += v * v
		}
	}
	norm := math.Sqrt(total)
	if norm <= limit {
		return
	}
	scale := limit / norm
	for _, g := range grads {
		for j := range g {
			g[j] *= scale
		}
	}
}
