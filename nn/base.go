package nn

import (
	"errors"
	"fmt"
	"time"

	"github.com/LukasMasuch/deeplearning4j/gradient"
	"github.com/LukasMasuch/deeplearning4j/linalg"
	"github.com/LukasMasuch/deeplearning4j/optimize"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Errors reported by layer operations.
var (
	ErrNoInput     = errors.New("nn: layer has no input")
	ErrNilInput    = errors.New("nn: nil input")
	ErrNoDuplicate = errors.New("nn: layer kind does not support duplication")
	ErrNoGradient  = errors.New("nn: layer kind does not compute gradients")
)

// BaseLayer carries the state and behavior shared by every layer kind:
// the config, the parameter table, the most recent input, and the dropout
// mask drawn for it. Concrete kinds plug in duplication and gradient
// computation through the Duplicator and GradientScorer hooks.
//
// A BaseLayer is not safe for concurrent mutation. Parallel mini-batch
// workers should each hold a Clone and be combined with Merge.
type BaseLayer struct {
	conf        *Config
	input       *mat.Dense
	params      *ParamTable
	dropoutMask *mat.Dense

	init   ParamInitializer
	dup    Duplicator
	scorer GradientScorer
	src    rand.Source
}

// NewBaseLayer returns a layer with an empty parameter table and the
// default initializer. input may be nil.
func NewBaseLayer(conf *Config, input *mat.Dense) *BaseLayer {
	seed := conf.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &BaseLayer{
		conf:   conf,
		input:  input,
		params: NewParamTable(),
		init:   DefaultInitializer{},
		src:    rand.NewSource(seed),
	}
}

// Conf returns the layer configuration.
func (l *BaseLayer) Conf() *Config {
	return l.conf
}

// SetConf replaces the layer configuration.
func (l *BaseLayer) SetConf(c *Config) {
	l.conf = c
}

// Input returns the most recently stored input, or nil.
func (l *BaseLayer) Input() *mat.Dense {
	return l.input
}

// SetInput stores x as the layer input. x is retained, not copied.
func (l *BaseLayer) SetInput(x *mat.Dense) {
	l.input = x
}

// SetParam inserts or overwrites the named parameter. Shapes are not
// validated here; the first forward pass that uses the parameter checks
// them.
func (l *BaseLayer) SetParam(name string, v *mat.Dense) {
	l.params.Set(name, v)
}

// GetParam returns the named parameter array, or nil.
func (l *BaseLayer) GetParam(name string) *mat.Dense {
	return l.params.Get(name)
}

// ParamTable returns the layer's parameter table.
func (l *BaseLayer) ParamTable() *ParamTable {
	return l.params
}

// SetParamTable replaces the entire parameter table. Ownership transfers
// to the layer: the caller must not mutate t afterward while the layer is
// in use.
func (l *BaseLayer) SetParamTable(t *ParamTable) {
	l.params = t
}

// Params returns a fresh copy of all parameters flattened into one vector,
// in registration order. The ordering is stable across calls, which is the
// contract the solver's updates rely on.
func (l *BaseLayer) Params() []float64 {
	return l.params.Flatten()
}

// SetParams scatters a flattened vector back into the parameter arrays, in
// registration order. Fails on length mismatch without touching any array.
func (l *BaseLayer) SetParams(v []float64) error {
	return linalg.Unflatten(l.params.Values(), v)
}

// NumParams returns the total element count across all parameters.
func (l *BaseLayer) NumParams() int {
	return l.params.NumParams()
}

// InitParams populates the parameter table through the layer's
// initializer.
func (l *BaseLayer) InitParams() error {
	return l.init.Init(l.params, l.conf, l.src)
}

// SetInitializer replaces the parameter initializer.
func (l *BaseLayer) SetInitializer(init ParamInitializer) {
	l.init = init
}

// BatchSize returns the number of rows in the current input.
func (l *BaseLayer) BatchSize() (int, error) {
	if l.input == nil {
		return 0, ErrNoInput
	}
	r, _ := l.input.Dims()
	return r, nil
}

// requireParams fetches the weight and bias, failing when either is
// missing from the table.
func (l *BaseLayer) requireParams() (w, b *mat.Dense, err error) {
	w = l.params.Get(WeightKey)
	b = l.params.Get(BiasKey)
	if w == nil || b == nil {
		return nil, nil, fmt.Errorf("nn: parameter table is missing %q or %q", WeightKey, BiasKey)
	}
	if br, bc := b.Dims(); br != 1 {
		return nil, nil, fmt.Errorf("nn: bias must be a single row, got %dx%d", br, bc)
	}
	return w, b, nil
}

// PreOutput computes the affine transform x * W and incorporates the bias,
// by horizontal concatenation when ConcatBiases is set and by row-broadcast
// addition otherwise. x is stored as the layer input (retained, not
// copied). All shapes are validated before any state changes, so a failed
// call leaves the layer untouched.
func (l *BaseLayer) PreOutput(x *mat.Dense) (*mat.Dense, error) {
	if x == nil {
		return nil, ErrNilInput
	}
	xr, xc := x.Dims()
	if xr == 0 || xc == 0 {
		return nil, fmt.Errorf("nn: empty %dx%d input", xr, xc)
	}
	w, b, err := l.requireParams()
	if err != nil {
		return nil, err
	}
	wr, wc := w.Dims()
	if xc != wr {
		return nil, fmt.Errorf("nn: input columns %d do not match weight rows %d", xc, wr)
	}
	_, bc := b.Dims()
	if wc != bc {
		return nil, fmt.Errorf("nn: bias columns %d do not match output columns %d", bc, wc)
	}

	l.input = x
	var ret mat.Dense
	ret.Mul(x, w)
	if l.conf.ConcatBiases {
		return linalg.HStack(&ret, b), nil
	}
	linalg.AddRowVector(&ret, b)
	return &ret, nil
}

// affine recomputes input * W with row-broadcast bias addition from the
// stored input and current parameters. The stored input is not mutated.
func (l *BaseLayer) affine() (*mat.Dense, error) {
	if l.input == nil {
		return nil, ErrNoInput
	}
	w, b, err := l.requireParams()
	if err != nil {
		return nil, err
	}
	_, xc := l.input.Dims()
	wr, wc := w.Dims()
	if xc != wr {
		return nil, fmt.Errorf("nn: input columns %d do not match weight rows %d", xc, wr)
	}
	_, bc := b.Dims()
	if wc != bc {
		return nil, fmt.Errorf("nn: bias columns %d do not match output columns %d", bc, wc)
	}
	var z mat.Dense
	z.Mul(l.input, w)
	linalg.AddRowVector(&z, b)
	return &z, nil
}

// Activate recomputes the pre-activation from the stored input and applies
// the configured activation elementwise. Nothing is cached, so a call after
// a parameter update always reflects the latest parameters.
func (l *BaseLayer) Activate() (*mat.Dense, error) {
	z, err := l.affine()
	if err != nil {
		return nil, err
	}
	return l.conf.Activation.Apply(z), nil
}

// ActivateInput stabilizes x against exponential overflow, stores it as
// the layer input, and activates. A nil x reuses the existing input.
func (l *BaseLayer) ActivateInput(x *mat.Dense) (*mat.Dense, error) {
	if x != nil {
		l.input = linalg.Stabilize(x, 1)
	}
	return l.Activate()
}

// ActivationMean returns the raw pre-activation mean: the same affine
// computation as Activate, without the activation function.
func (l *BaseLayer) ActivationMean() (*mat.Dense, error) {
	return l.affine()
}

// ApplyDropout draws a fresh dropout mask matching x's shape and applies
// it to x in place; the caller must treat x as consumed. With a zero
// dropout probability the mask is all ones and x is unchanged. Each call
// draws an independent mask.
func (l *BaseLayer) ApplyDropout(x *mat.Dense) error {
	if x == nil {
		return ErrNilInput
	}
	r, c := x.Dims()
	if l.conf.Dropout > 0 {
		l.dropoutMask = linalg.BernoulliMask(r, c, l.conf.Dropout, l.src)
	} else {
		l.dropoutMask = linalg.Ones(r, c)
	}
	x.MulElem(x, l.dropoutMask)
	return nil
}

// DropoutMask returns the mask drawn by the most recent ApplyDropout call,
// or nil.
func (l *BaseLayer) DropoutMask() *mat.Dense {
	return l.dropoutMask
}

// Merge accumulates another layer's parameters into this one, scaled by
// 1/batchSize: params += other.params / batchSize. This averages parameters
// across parallel mini-batch replicas. Both layers must flatten to the same
// length.
func (l *BaseLayer) Merge(other Layer, batchSize int) error {
	if batchSize == 0 {
		return errors.New("nn: cannot merge with batch size 0")
	}
	mine := l.Params()
	theirs := other.Params()
	if len(mine) != len(theirs) {
		return fmt.Errorf("nn: cannot merge %d parameters into %d", len(theirs), len(mine))
	}
	for i := range mine {
		mine[i] += theirs[i] / float64(batchSize)
	}
	return l.SetParams(mine)
}

// Clone returns a new, independent layer of the same concrete kind with
// deep-copied weight, bias and input arrays and the same config reference.
// Fails when the concrete kind provides no duplication constructor.
func (l *BaseLayer) Clone() (Layer, error) {
	if l.dup == nil {
		return nil, ErrNoDuplicate
	}
	w, b, err := l.requireParams()
	if err != nil {
		return nil, err
	}
	var in *mat.Dense
	if l.input != nil {
		in = linalg.Dup(l.input)
	}
	return l.dup.DuplicateWith(l.conf, linalg.Dup(w), linalg.Dup(b), in)
}

// Transpose returns a new layer that is the structural transpose of this
// one, for tied-weight architectures: the weight, bias and input arrays
// are transposed copies, and the config's input/output widths are swapped.
// Fails when the concrete kind provides no duplication constructor.
func (l *BaseLayer) Transpose() (Layer, error) {
	if l.dup == nil {
		return nil, ErrNoDuplicate
	}
	w, b, err := l.requireParams()
	if err != nil {
		return nil, err
	}
	conf := l.conf.Clone()
	conf.NIn, conf.NOut = l.conf.NOut, l.conf.NIn
	var in *mat.Dense
	if l.input != nil {
		in = linalg.TransposeDup(l.input)
	}
	return l.dup.DuplicateWith(conf, linalg.TransposeDup(w), linalg.TransposeDup(b), in)
}

// Fit optionally replaces the layer input, then builds and runs a solver
// with this layer as the model.
func (l *BaseLayer) Fit(input *mat.Dense) error {
	if input != nil {
		l.input = input
	}
	solver, err := optimize.NewSolver().
		WithModel(l).
		WithConf(optimize.Config{
			LearningRate:  l.conf.LearningRate,
			NumIterations: l.conf.NumIterations,
		}).
		WithListeners(l.conf.Listeners...).
		Build()
	if err != nil {
		return err
	}
	_, err = solver.Optimize()
	return err
}

// GradientAndScore returns the gradient/score pair for the current state.
// The computation itself belongs to the concrete layer kind; a layer
// without one cannot be trained.
func (l *BaseLayer) GradientAndScore() (*gradient.Gradient, float64, error) {
	if l.scorer == nil {
		return nil, 0, ErrNoGradient
	}
	return l.scorer.ComputeGradientAndScore()
}

var _ Layer = (*BaseLayer)(nil)
var _ optimize.Model = (*BaseLayer)(nil)
