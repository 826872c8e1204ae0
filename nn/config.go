// Package nn implements the trainable feed-forward layer core: parameter
// ownership, forward activation, dropout, mini-batch merging, cloning and
// weight transposition, and the contract exposed to the solver.
package nn

import (
	"github.com/LukasMasuch/deeplearning4j/activation"
	"github.com/LukasMasuch/deeplearning4j/optimize"
)

// Config describes a layer's shape and training hyperparameters. It is not
// mutated during a forward pass; clone and transpose operate on copies.
type Config struct {
	NIn          int           // input width (columns of the input)
	NOut         int           // output width (columns of the weight)
	Activation   activation.Fn // activation applied by Activate
	Dropout      float64       // dropout probability, 0 disables
	ConcatBiases bool          // concatenate the bias instead of adding it
	WeightScale  float64       // half-width of the uniform weight init, 0 picks 1/sqrt(NIn)

	LearningRate  float64
	NumIterations int
	Seed          uint64 // RNG seed for init and dropout, 0 seeds from the clock

	Listeners []optimize.IterationListener
}

// DefaultConfig returns a config for a layer of the given widths with
// sigmoid activation and no dropout.
func DefaultConfig(nIn, nOut int) *Config {
	return &Config{
		NIn:           nIn,
		NOut:          nOut,
		Activation:    activation.Sigmoid,
		LearningRate:  1e-1,
		NumIterations: 100,
	}
}

// Clone returns a copy of the config with its own listeners slice. The
// activation function value is shared.
func (c *Config) Clone() *Config {
	out := *c
	out.Listeners = make([]optimize.IterationListener, len(c.Listeners))
	copy(out.Listeners, c.Listeners)
	return &out
}
