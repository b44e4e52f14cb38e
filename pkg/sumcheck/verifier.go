// Copyright 2025 Certen Protocol

package sumcheck

import (
	"errors"
	"fmt"

	"github.com/jrochub/powerhouse/pkg/challenge"
	"github.com/jrochub/powerhouse/pkg/field"
	"github.com/jrochub/powerhouse/pkg/poly"
)

// ErrProofInvalid is the fatal, never-retried verification failure
// class: any inequality in the round-by-round check, or in the final
// single-point evaluation, is proof-invalid.
var ErrProofInvalid = errors.New("sumcheck: proof-invalid")

// Verify independently recomputes the challenge stream from p and
// checks every round's consistency, then confirms proof.Final against a
// single evaluation of e at the recorded challenge point.
func Verify(e poly.Evaluator, p uint64, claimedSum uint64, proof Proof) error {
	n := e.Dim()
	if len(proof.Challenges) != n {
		return fmt.Errorf("%w: |challenges|=%d, want %d", ErrProofInvalid, len(proof.Challenges), n)
	}
	if len(proof.RoundSums) != 2*n {
		return fmt.Errorf("%w: |round_sums|=%d, want %d", ErrProofInvalid, len(proof.RoundSums), 2*n)
	}

	stream := challenge.New(p)
	if stream.Mode() != proof.Mode {
		return fmt.Errorf("%w: challenge mode mismatch", ErrProofInvalid)
	}

	var prevS0, prevS1 field.Element
	for i := 0; i < n; i++ {
		s0 := field.New(proof.RoundSums[2*i]%p, p)
		s1 := field.New(proof.RoundSums[2*i+1]%p, p)
		stream.Advance(s0.Uint64())
		stream.Advance(s1.Uint64())

		if i == 0 {
			sum := s0.Add(s1)
			if sum.Uint64() != claimedSum%p {
				return fmt.Errorf("%w: round 0 sum %d != claimed sum %d", ErrProofInvalid, sum.Uint64(), claimedSum%p)
			}
		} else {
			rPrev := field.New(proof.Challenges[i-1], p)
			want := field.Interpolate(prevS0, prevS1, rPrev)
			got := s0.Add(s1)
			if !got.Equal(want) {
				return fmt.Errorf("%w: round %d consistency check failed", ErrProofInvalid, i)
			}
		}

		r := stream.Next()
		if r.Uint64() != proof.Challenges[i] {
			return fmt.Errorf("%w: round %d challenge mismatch", ErrProofInvalid, i)
		}
		stream.Advance(r.Uint64())

		prevS0, prevS1 = s0, s1
	}

	final := evalAtChallenges(e, p, proof.Challenges)
	if final.Uint64() != proof.Final%p {
		return fmt.Errorf("%w: final evaluation mismatch", ErrProofInvalid)
	}
	return nil
}

func evalAtChallenges(e poly.Evaluator, p uint64, challenges []uint64) field.Element {
	current := e
	for _, c := range challenges {
		current = poly.Fix(current, field.New(c, p))
	}
	return poly.Eval(current)
}
