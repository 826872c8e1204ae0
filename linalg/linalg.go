// Package linalg provides the dense-array operations the neural network
// core is built on, backed by gonum matrices.
package linalg

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Flatten concatenates the given matrices into one row-major vector, in
// argument order. The ordering is the contract optimizers rely on: for a
// fixed argument sequence the layout is stable across calls.
func Flatten(ms ...*mat.Dense) []float64 {
	n := 0
	for _, m := range ms {
		r, c := m.Dims()
		n += r * c
	}
	out := make([]float64, 0, n)
	for _, m := range ms {
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out = append(out, m.At(i, j))
			}
		}
	}
	return out
}

// Unflatten scatters a flat vector back into the destination matrices, in
// order, consuming exactly as many elements as each matrix holds.
func Unflatten(dst []*mat.Dense, v []float64) error {
	n := 0
	for _, m := range dst {
		r, c := m.Dims()
		n += r * c
	}
	if len(v) != n {
		return fmt.Errorf("linalg: cannot unflatten %d values into %d elements", len(v), n)
	}
	k := 0
	for _, m := range dst {
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				m.Set(i, j, v[k])
				k++
			}
		}
	}
	return nil
}

// AddRowVector adds the 1-row matrix row to every row of m, in place.
func AddRowVector(m, row *mat.Dense) {
	r, c := m.Dims()
	rr, rc := row.Dims()
	if rr != 1 || rc != c {
		panic(fmt.Sprintf("linalg: cannot broadcast %dx%d row vector across %dx%d matrix", rr, rc, r, c))
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, m.At(i, j)+row.At(0, j))
		}
	}
}

// AddRowVectorTo returns a new matrix equal to m with the 1-row matrix row
// added to every row. m is left untouched.
func AddRowVectorTo(m, row *mat.Dense) *mat.Dense {
	out := Dup(m)
	AddRowVector(out, row)
	return out
}

// HStack concatenates b to the right of a. A 1-row b is tiled down to a's
// row count before concatenation.
func HStack(a, b *mat.Dense) *mat.Dense {
	ar, _ := a.Dims()
	br, bc := b.Dims()
	if br == 1 && ar > 1 {
		tiled := mat.NewDense(ar, bc, nil)
		for i := 0; i < ar; i++ {
			for j := 0; j < bc; j++ {
				tiled.Set(i, j, b.At(0, j))
			}
		}
		b = tiled
	}
	var out mat.Dense
	out.Augment(a, b)
	return &out
}

// Stabilize returns a copy of m with every entry clamped to the range
// ±ln(MaxFloat64)/k, so that exponential-family activations applied
// downstream cannot overflow.
func Stabilize(m *mat.Dense, k float64) *mat.Dense {
	bound := math.Log(math.MaxFloat64) / k
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		if v > bound {
			return bound
		}
		if v < -bound {
			return -bound
		}
		return v
	}, m)
	return &out
}

// Dup returns a deep copy of m sharing no storage with it.
func Dup(m *mat.Dense) *mat.Dense {
	return mat.DenseCopyOf(m)
}

// TransposeDup returns a deep copy of m's transpose.
func TransposeDup(m *mat.Dense) *mat.Dense {
	return mat.DenseCopyOf(m.T())
}

// Ones returns an r x c matrix of ones.
func Ones(r, c int) *mat.Dense {
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, 1)
		}
	}
	return out
}

// RandUniform returns an r x c matrix with entries drawn uniformly from
// [min, max).
func RandUniform(r, c int, min, max float64, src rand.Source) *mat.Dense {
	u := distuv.Uniform{Min: min, Max: max, Src: src}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, u.Rand())
		}
	}
	return out
}

// BernoulliMask returns an r x c matrix whose entries are 1 where a fresh
// uniform(0,1) draw exceeds p and 0 elsewhere. Every call draws an
// independent mask.
func BernoulliMask(r, c int, p float64, src rand.Source) *mat.Dense {
	u := distuv.Uniform{Min: 0, Max: 1, Src: src}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if u.Rand() > p {
				out.Set(i, j, 1)
			}
		}
	}
	return out
}
