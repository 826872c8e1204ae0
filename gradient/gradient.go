// Package gradient provides the named-gradient container passed between
// layers and the optimization loop.
package gradient

import (
	"github.com/LukasMasuch/deeplearning4j/linalg"
	"gonum.org/v1/gonum/mat"
)

// Gradient maps parameter names to their gradient arrays. Entries keep
// insertion order so that Flatten lines up with a layer's flattened
// parameter view.
type Gradient struct {
	keys  []string
	grads map[string]*mat.Dense
}

// New returns an empty gradient.
func New() *Gradient {
	return &Gradient{grads: make(map[string]*mat.Dense)}
}

// Set inserts or overwrites the gradient array for the named parameter.
// The first insertion of a name fixes its position in Flatten order.
func (g *Gradient) Set(name string, v *mat.Dense) {
	if _, ok := g.grads[name]; !ok {
		g.keys = append(g.keys, name)
	}
	g.grads[name] = v
}

// Get returns the gradient array for the named parameter, or nil.
func (g *Gradient) Get(name string) *mat.Dense {
	return g.grads[name]
}

// Keys returns the parameter names in insertion order.
func (g *Gradient) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Flatten concatenates all gradient arrays into one vector, in insertion
// order.
func (g *Gradient) Flatten() []float64 {
	ms := make([]*mat.Dense, 0, len(g.keys))
	for _, k := range g.keys {
		ms = append(ms, g.grads[k])
	}
	return linalg.Flatten(ms...)
}
