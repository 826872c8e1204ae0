package nn

import (
	"errors"

	"github.com/LukasMasuch/deeplearning4j/gradient"
	"github.com/LukasMasuch/deeplearning4j/linalg"
	"gonum.org/v1/gonum/mat"
)

// DenseLayer is a fully connected layer trained against labeled targets
// with a squared-error objective. It supplies the gradient/score pair and
// the duplication constructor the shared core leaves to concrete kinds.
type DenseLayer struct {
	*BaseLayer
	labels *mat.Dense
}

// NewDenseLayer returns a dense layer with an empty parameter table.
func NewDenseLayer(conf *Config) *DenseLayer {
	d := &DenseLayer{BaseLayer: NewBaseLayer(conf, nil)}
	d.dup = d
	d.scorer = d
	return d
}

// NewDenseLayerWith returns a dense layer built from existing arrays. The
// layer retains w, b and input directly; callers wanting independence must
// pass copies. input may be nil.
func NewDenseLayerWith(conf *Config, w, b, input *mat.Dense) (*DenseLayer, error) {
	if w == nil || b == nil {
		return nil, errors.New("nn: dense layer requires weight and bias arrays")
	}
	d := NewDenseLayer(conf)
	d.SetParam(WeightKey, w)
	d.SetParam(BiasKey, b)
	d.SetInput(input)
	return d, nil
}

// DuplicateWith builds a new dense layer from a config and duplicated
// arrays. It is the construction hook Clone and Transpose go through.
func (d *DenseLayer) DuplicateWith(conf *Config, w, b, input *mat.Dense) (Layer, error) {
	return NewDenseLayerWith(conf, w, b, input)
}

// SetLabels stores the training targets, one row per input example.
func (d *DenseLayer) SetLabels(y *mat.Dense) {
	d.labels = y
}

// Labels returns the training targets, or nil.
func (d *DenseLayer) Labels() *mat.Dense {
	return d.labels
}

// ComputeGradientAndScore evaluates the squared-error objective
//
//	score = sum((act(x*W + b) - labels)^2) / (2*rows)
//
// and its gradient with respect to the weight and bias. When dropout is
// configured a fresh mask is applied to a copy of the stored input, so the
// stored input survives repeated solver iterations intact.
func (d *DenseLayer) ComputeGradientAndScore() (*gradient.Gradient, float64, error) {
	if d.input == nil {
		return nil, 0, ErrNoInput
	}
	if d.labels == nil {
		return nil, 0, errors.New("nn: no labels to score against")
	}
	w, b, err := d.requireParams()
	if err != nil {
		return nil, 0, err
	}

	x := d.input
	if d.conf.Dropout > 0 {
		x = linalg.Dup(d.input)
		if err := d.ApplyDropout(x); err != nil {
			return nil, 0, err
		}
	}

	rows, _ := x.Dims()
	lr, lc := d.labels.Dims()
	_, wc := w.Dims()
	if lr != rows || lc != wc {
		return nil, 0, errors.New("nn: labels do not match output shape")
	}

	var z mat.Dense
	z.Mul(x, w)
	linalg.AddRowVector(&z, b)

	out := d.conf.Activation.Apply(&z)

	var diff mat.Dense
	diff.Sub(out, d.labels)

	score := 0.0
	dr, dc := diff.Dims()
	for i := 0; i < dr; i++ {
		for j := 0; j < dc; j++ {
			v := diff.At(i, j)
			score += v * v
		}
	}
	score /= 2 * float64(rows)

	// delta = (out - labels) .* act'(z) / rows
	var delta mat.Dense
	delta.MulElem(&diff, d.conf.Activation.ApplyDeriv(&z))
	delta.Scale(1/float64(rows), &delta)

	var gw mat.Dense
	gw.Mul(x.T(), &delta)

	gb := mat.NewDense(1, dc, nil)
	for j := 0; j < dc; j++ {
		sum := 0.0
		for i := 0; i < dr; i++ {
			sum += delta.At(i, j)
		}
		gb.Set(0, j, sum)
	}

	// Assemble in parameter registration order so the flattened gradient
	// lines up with Params()/SetParams.
	g := gradient.New()
	for _, k := range d.params.Keys() {
		switch k {
		case WeightKey:
			g.Set(WeightKey, &gw)
		case BiasKey:
			g.Set(BiasKey, gb)
		}
	}
	return g, score, nil
}

var _ Layer = (*DenseLayer)(nil)
var _ Duplicator = (*DenseLayer)(nil)
var _ GradientScorer = (*DenseLayer)(nil)
