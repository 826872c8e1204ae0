package nn

import (
	"github.com/LukasMasuch/deeplearning4j/linalg"
	"gonum.org/v1/gonum/mat"
)

// ParamTable maps parameter names to their arrays. Names keep insertion
// order, which fixes the flattening order a layer reports to the solver.
type ParamTable struct {
	keys   []string
	params map[string]*mat.Dense
}

// NewParamTable returns an empty parameter table.
func NewParamTable() *ParamTable {
	return &ParamTable{params: make(map[string]*mat.Dense)}
}

// Set inserts or overwrites the named parameter. The first insertion of a
// name fixes its flattening position; overwrites keep it.
func (t *ParamTable) Set(name string, v *mat.Dense) {
	if _, ok := t.params[name]; !ok {
		t.keys = append(t.keys, name)
	}
	t.params[name] = v
}

// Get returns the named parameter array, or nil when absent.
func (t *ParamTable) Get(name string) *mat.Dense {
	return t.params[name]
}

// Has reports whether the named parameter is present.
func (t *ParamTable) Has(name string) bool {
	_, ok := t.params[name]
	return ok
}

// Keys returns the parameter names in insertion order.
func (t *ParamTable) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Values returns the parameter arrays in insertion order. The arrays are
// the table's own, not copies.
func (t *ParamTable) Values() []*mat.Dense {
	out := make([]*mat.Dense, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.params[k])
	}
	return out
}

// NumParams returns the total element count across all parameter arrays.
func (t *ParamTable) NumParams() int {
	n := 0
	for _, k := range t.keys {
		r, c := t.params[k].Dims()
		n += r * c
	}
	return n
}

// Flatten concatenates all parameter arrays into one vector, in insertion
// order.
func (t *ParamTable) Flatten() []float64 {
	return linalg.Flatten(t.Values()...)
}
