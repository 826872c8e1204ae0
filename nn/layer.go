package nn

import (
	"github.com/LukasMasuch/deeplearning4j/gradient"
	"gonum.org/v1/gonum/mat"
)

// Standard parameter table keys.
const (
	WeightKey = "W"
	BiasKey   = "b"
)

// Layer is a single transformation stage in a feed-forward network. It
// owns its parameters and input, computes forward activations, and exposes
// the flattened-parameter and gradient/score contract the solver drives.
type Layer interface {
	// Parameter management.
	SetParam(name string, v *mat.Dense)
	GetParam(name string) *mat.Dense
	ParamTable() *ParamTable
	SetParamTable(t *ParamTable)
	Params() []float64
	SetParams(v []float64) error
	NumParams() int
	InitParams() error

	// Forward computation.
	PreOutput(x *mat.Dense) (*mat.Dense, error)
	Activate() (*mat.Dense, error)
	ActivateInput(x *mat.Dense) (*mat.Dense, error)
	ActivationMean() (*mat.Dense, error)
	BatchSize() (int, error)
	ApplyDropout(x *mat.Dense) error

	// Structural operations.
	Merge(other Layer, batchSize int) error
	Clone() (Layer, error)
	Transpose() (Layer, error)

	// Training integration.
	Fit(input *mat.Dense) error
	GradientAndScore() (*gradient.Gradient, float64, error)

	// Accessors.
	Conf() *Config
	SetConf(c *Config)
	Input() *mat.Dense
	SetInput(x *mat.Dense)
}

// Duplicator is the construction capability clone and transpose require: a
// concrete layer kind builds a new instance of itself from a config and
// freshly duplicated arrays. Layer kinds that cannot satisfy it are not
// cloneable, which surfaces as an error rather than a crash.
type Duplicator interface {
	DuplicateWith(conf *Config, w, b, input *mat.Dense) (Layer, error)
}

// GradientScorer computes the gradient/score pair for a concrete layer
// kind. The core defines only the pairing contract; the formula belongs to
// the concrete kind.
type GradientScorer interface {
	ComputeGradientAndScore() (*gradient.Gradient, float64, error)
}
