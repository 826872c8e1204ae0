// Package activation provides elementwise activation functions and their
// derivatives for use in layer forward and backward passes.
package activation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Fn is an activation function paired with its derivative.
type Fn struct {
	Name  string
	F     func(x float64) float64
	Deriv func(x float64) float64
}

// Sigmoid is the standard logistic activation (1 / (1 + e^-x)).
var Sigmoid = Fn{
	Name: "sigmoid",
	F: func(x float64) float64 {
		return 1 / (1 + math.Exp(-x))
	},
	Deriv: func(x float64) float64 {
		s := 1 / (1 + math.Exp(-x))
		return s * (1 - s)
	},
}

// Tanh is the hyperbolic tangent activation.
var Tanh = Fn{
	Name: "tanh",
	F:    math.Tanh,
	Deriv: func(x float64) float64 {
		t := math.Tanh(x)
		return 1 - t*t
	},
}

// ReLU is the rectifier activation that returns x if x > 0 and 0 otherwise.
var ReLU = Fn{
	Name: "relu",
	F: func(x float64) float64 {
		if x > 0 {
			return x
		}
		return 0
	},
	Deriv: func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	},
}

// Identity returns its input unchanged.
var Identity = Fn{
	Name:  "identity",
	F:     func(x float64) float64 { return x },
	Deriv: func(x float64) float64 { return 1 },
}

// HardTanh clamps its input to [-1, 1].
var HardTanh = Fn{
	Name: "hardtanh",
	F: func(x float64) float64 {
		if x > 1 {
			return 1
		}
		if x < -1 {
			return -1
		}
		return x
	},
	Deriv: func(x float64) float64 {
		if x > 1 || x < -1 {
			return 0
		}
		return 1
	},
}

// ByName looks up a built-in activation by its name.
func ByName(name string) (Fn, error) {
	for _, fn := range []Fn{Sigmoid, Tanh, ReLU, Identity, HardTanh} {
		if fn.Name == name {
			return fn, nil
		}
	}
	return Fn{}, fmt.Errorf("activation: unknown function %q", name)
}

// Apply returns a new matrix with the activation applied to every entry of
// m. m is left untouched.
func (f Fn) Apply(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return f.F(v) }, m)
	return &out
}

// ApplyDeriv returns a new matrix with the activation derivative applied to
// every entry of m. m is left untouched.
func (f Fn) ApplyDeriv(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return f.Deriv(v) }, m)
	return &out
}
