package poly

import (
	"testing"

	"github.com/jrochub/powerhouse/pkg/field"
)

func denseFromInts(p uint64, vs ...uint64) *Dense {
	dim := 0
	for (1 << uint(dim)) < len(vs) {
		dim++
	}
	elems := make([]field.Element, len(vs))
	for i, v := range vs {
		elems[i] = field.New(v, p)
	}
	return NewDense(dim, elems)
}

func totalSum(e Evaluator, p uint64) field.Element {
	total := field.New(0, p)
	for i := uint64(0); i < uint64(1)<<uint(e.Dim()); i++ {
		total = total.Add(e.EvalAt(i))
	}
	return total
}

func TestHypercubeSum(t *testing.T) {
	const p = uint64(97)
	d := denseFromInts(p, 0, 1, 4, 5, 7, 8, 11, 23)
	if d.Dim() != 3 {
		t.Fatalf("dim = %d, want 3", d.Dim())
	}
	got := totalSum(d, p)
	if got.Uint64() != 59 {
		t.Fatalf("claimed sum = %d, want 59", got.Uint64())
	}
}

func TestFixReducesDimension(t *testing.T) {
	const p = uint64(97)
	d := denseFromInts(p, 0, 1, 4, 5, 7, 8, 11, 23)
	folded := Fix(d, field.New(0, p))
	if folded.Dim() != 2 {
		t.Fatalf("folded dim = %d, want 2", folded.Dim())
	}
	// Fixing the lowest variable to 0 keeps the even-indexed values.
	if folded.EvalAt(0).Uint64() != 0 {
		t.Fatalf("folded[0] = %d, want 0", folded.EvalAt(0).Uint64())
	}
}

func TestSumAt0And1MatchesNaiveSplit(t *testing.T) {
	const p = uint64(97)
	d := denseFromInts(p, 0, 1, 4, 5, 7, 8, 11, 23)
	s0, s1 := SumAt0And1(d, p)
	if got := s0.Add(s1); got.Uint64() != 59 {
		t.Fatalf("S(0)+S(1) = %d, want 59", got.Uint64())
	}
}

func TestFixThenEvalFullyFolded(t *testing.T) {
	const p = uint64(97)
	d := denseFromInts(p, 3, 5)
	one := field.New(1, p)
	folded := Fix(d, one)
	got := Eval(folded)
	if got.Uint64() != 5 {
		t.Fatalf("fix(1) on [3,5] = %d, want 5", got.Uint64())
	}
}
