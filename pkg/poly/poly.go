// Copyright 2025 Certen Protocol
//
// Streaming multilinear polynomial evaluator.
// Callers depend on Evaluator, never on a concrete representation, so a
// dense test fixture and a lazily computed production evaluator are
// interchangeable.

package poly

import "github.com/jrochub/powerhouse/pkg/field"

// Evaluator is a streaming multilinear polynomial over {0,1}^Dim. It owns
// no mutable state observable across calls: EvalAt must be safe to call
// in any order and any number of times for the same index.
type Evaluator interface {
	// Dim returns the number of boolean variables n. Hypercube indices
	// range over [0, 2^n).
	Dim() int
	// EvalAt returns the polynomial's value at hypercube point i, where
	// bit j of i (LSB first) selects the value of variable j.
	EvalAt(i uint64) field.Element
}

// Func adapts a plain function to the Evaluator interface.
type Func struct {
	dim  int
	eval func(i uint64) field.Element
}

// NewFunc builds an Evaluator from a dimension and an evaluation closure.
func NewFunc(dim int, eval func(i uint64) field.Element) Func {
	return Func{dim: dim, eval: eval}
}

func (f Func) Dim() int                      { return f.dim }
func (f Func) EvalAt(i uint64) field.Element { return f.eval(i) }

// Dense is an Evaluator backed by a fully materialized evaluation table.
// Intended for tests and for polynomials small enough that precomputing
// every hypercube value is cheaper than recomputing it per round.
type Dense struct {
	dim    int
	values []field.Element
}

// NewDense builds a Dense evaluator from exactly 2^dim values in
// hypercube-index order. It panics if len(values) != 2^dim.
func NewDense(dim int, values []field.Element) *Dense {
	want := uint64(1) << uint(dim)
	if uint64(len(values)) != want {
		panic("poly: dense evaluator needs exactly 2^dim values")
	}
	return &Dense{dim: dim, values: values}
}

func (d *Dense) Dim() int { return d.dim }

func (d *Dense) EvalAt(i uint64) field.Element { return d.values[i] }

// Fix returns a new Evaluator over dim-1 variables obtained by fixing the
// polynomial's lowest-indexed remaining variable to r. This is the
// "fold" step the sum-check prover performs once per round: every
// surviving hypercube point's value becomes the field interpolation of
// its two children at that variable.
func Fix(e Evaluator, r field.Element) Evaluator {
	if e.Dim() == 0 {
		panic("poly: cannot fix a variable of a 0-dimensional polynomial")
	}
	newDim := e.Dim() - 1
	return NewFunc(newDim, func(i uint64) field.Element {
		at0 := e.EvalAt(i << 1)
		at1 := e.EvalAt((i << 1) | 1)
		return field.Interpolate(at0, at1, r)
	})
}

// SumAt0And1 sums the evaluator over every assignment of the remaining
// variables with the next variable to fold fixed at 0 and at 1,
// respectively. This is the per-round (S(0), S(1)) pair the sum-check
// prover emits before deriving that round's challenge.
func SumAt0And1(e Evaluator, p uint64) (field.Element, field.Element) {
	if e.Dim() == 0 {
		panic("poly: cannot sum over zero remaining variables")
	}
	half := uint64(1) << uint(e.Dim()-1)
	s0 := field.New(0, p)
	s1 := field.New(0, p)
	for i := uint64(0); i < half; i++ {
		s0 = s0.Add(e.EvalAt(i << 1))
		s1 = s1.Add(e.EvalAt((i << 1) | 1))
	}
	return s0, s1
}

// Eval fully evaluates a 0-dimensional evaluator, i.e. reads out its
// single remaining value. Used after the last fold to recover the
// sum-check's claimed final value.
func Eval(e Evaluator) field.Element {
	if e.Dim() != 0 {
		panic("poly: Eval requires a fully-folded 0-dimensional evaluator")
	}
	return e.EvalAt(0)
}
