// Package optimize provides the gradient-descent solver that drives
// parameter updates for any model exposing a flattened-parameter and
// gradient/score contract.
package optimize

import (
	"errors"
	"fmt"

	"github.com/LukasMasuch/deeplearning4j/gradient"
	"gonum.org/v1/gonum/floats"
)

// Model is what the solver optimizes: anything that can report its
// flattened parameters, accept updated ones, and produce a gradient/score
// pair for its current state.
type Model interface {
	// Params returns a fresh copy of the flattened parameters. The
	// ordering is stable across calls for a given model instance.
	Params() []float64
	// SetParams scatters a flattened vector back into the parameters.
	SetParams(v []float64) error
	// GradientAndScore returns the gradient and scalar score for the
	// current parameters and input.
	GradientAndScore() (*gradient.Gradient, float64, error)
	// NumParams returns the total element count across all parameters.
	NumParams() int
}

// Config holds the solver hyperparameters.
type Config struct {
	LearningRate  float64
	NumIterations int
}

// DefaultConfig returns the default solver configuration.
func DefaultConfig() Config {
	return Config{
		LearningRate:  1e-1,
		NumIterations: 100,
	}
}

// Solver runs plain gradient descent against a Model.
type Solver struct {
	model     Model
	conf      Config
	listeners []IterationListener
}

// Builder assembles a Solver. Construction fails without a model or with a
// non-positive iteration count.
type Builder struct {
	model     Model
	conf      Config
	listeners []IterationListener
}

// NewSolver returns a solver builder with the default configuration.
func NewSolver() *Builder {
	return &Builder{conf: DefaultConfig()}
}

// WithModel sets the model to optimize.
func (b *Builder) WithModel(m Model) *Builder {
	b.model = m
	return b
}

// WithConf sets the solver configuration.
func (b *Builder) WithConf(c Config) *Builder {
	b.conf = c
	return b
}

// WithListeners appends iteration listeners notified after every update.
func (b *Builder) WithListeners(ls ...IterationListener) *Builder {
	b.listeners = append(b.listeners, ls...)
	return b
}

// Build validates the builder and returns the solver.
func (b *Builder) Build() (*Solver, error) {
	if b.model == nil {
		return nil, errors.New("optimize: no model to optimize")
	}
	if b.conf.NumIterations <= 0 {
		return nil, fmt.Errorf("optimize: iteration count must be positive, got %d", b.conf.NumIterations)
	}
	if b.conf.LearningRate <= 0 {
		return nil, fmt.Errorf("optimize: learning rate must be positive, got %v", b.conf.LearningRate)
	}
	return &Solver{
		model:     b.model,
		conf:      b.conf,
		listeners: b.listeners,
	}, nil
}

// Optimize runs the descent loop: read the gradient and score, step the
// flattened parameters against the gradient, write them back, notify
// listeners. Returns the final score. Any model error aborts the loop.
func (s *Solver) Optimize() (float64, error) {
	var score float64
	for i := 0; i < s.conf.NumIterations; i++ {
		grad, sc, err := s.model.GradientAndScore()
		if err != nil {
			return score, fmt.Errorf("optimize: iteration %d: %w", i, err)
		}
		score = sc

		params := s.model.Params()
		flat := grad.Flatten()
		if len(flat) != len(params) {
			return score, fmt.Errorf("optimize: gradient length %d does not match parameter length %d", len(flat), len(params))
		}
		floats.AddScaled(params, -s.conf.LearningRate, flat)
		if err := s.model.SetParams(params); err != nil {
			return score, fmt.Errorf("optimize: iteration %d: %w", i, err)
		}

		for _, l := range s.listeners {
			l.IterationDone(s.model, i, score)
		}
	}
	return score, nil
}
