// Copyright 2025 Certen Protocol
//
// Package sumcheck drives the streaming multilinear polynomial (pkg/poly)
// through the challenge stream (pkg/challenge) to produce and check a
// non-interactive sum-check proof: emit a round's sum pair, derive a
// challenge, fold, repeat until the polynomial is fully bound.

package sumcheck

import (
	"github.com/jrochub/powerhouse/pkg/challenge"
	"github.com/jrochub/powerhouse/pkg/poly"
)

// Proof is the raw numeric content of a sum-check transcript: everything
// transcript.Record needs except the statement text and the digest,
// which are the caller's concern.
type Proof struct {
	Challenges []uint64
	RoundSums  []uint64
	Final      uint64
	Mode       challenge.Mode
}

// Prove runs the sum-check protocol over e, deriving every round's
// challenge from a Fiat-Shamir stream seeded on p. The prover's messages
// (each round's (S_i(0), S_i(1)) pair) and the derived challenge are both
// fed back into the stream, binding every later challenge to everything
// that came before it.
func Prove(e poly.Evaluator, p uint64) Proof {
	stream := challenge.New(p)
	n := e.Dim()

	proof := Proof{
		Challenges: make([]uint64, 0, n),
		RoundSums:  make([]uint64, 0, 2*n),
		Mode:       stream.Mode(),
	}

	current := e
	for i := 0; i < n; i++ {
		s0, s1 := poly.SumAt0And1(current, p)
		stream.Advance(s0.Uint64())
		stream.Advance(s1.Uint64())
		proof.RoundSums = append(proof.RoundSums, s0.Uint64(), s1.Uint64())

		r := stream.Next()
		stream.Advance(r.Uint64())
		proof.Challenges = append(proof.Challenges, r.Uint64())

		current = poly.Fix(current, r)
	}

	proof.Final = poly.Eval(current).Uint64()
	return proof
}
