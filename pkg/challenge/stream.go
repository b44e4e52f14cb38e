// Copyright 2025 Certen Protocol
//
// Deterministic Fiat-Shamir challenge stream: a domain-tagged
// BLAKE2b-256 seed over the ordered transcript words seen so far,
// feeding a PRNG that can be advanced word-by-word.

package challenge

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/jrochub/powerhouse/pkg/field"
)

// Mode names the sampling strategy used to reduce a raw 64-bit draw into
// the field. Recorded verbatim in transcript metadata as
// "challenge_mode: mod" or "challenge_mode: rejection".
type Mode string

const (
	ModeDirect     Mode = "mod"
	ModeRejection  Mode = "rejection"
	domainTag           = "JROC_CHALLENGE"
	rejectionFloor      = uint64(1) << 63
)

// ModeFor returns the sampling mode mandated for modulus p: direct
// reduction up to 2^63, rejection sampling above it. The bias of a bare
// next_u64() % p is tolerable only in the small-p regime.
func ModeFor(p uint64) Mode {
	if p > rejectionFloor {
		return ModeRejection
	}
	return ModeDirect
}

// Stream is a deterministic pseudo-random generator seeded from the
// Fiat-Shamir transcript. Advance() folds one more transcript word into
// the seed before drawing the next challenge; the seed is always the
// hash of the explicit concatenation of u64_be words so far.
type Stream struct {
	words []uint64
	state uint64
	p     uint64
	mode  Mode
}

// New creates a challenge stream for modulus p. The stream starts with
// no transcript words; call Advance to fold in each round's data before
// drawing that round's challenge.
func New(p uint64) *Stream {
	s := &Stream{p: p, mode: ModeFor(p)}
	s.reseed()
	return s
}

// Mode reports the sampling mode this stream was constructed with.
func (s *Stream) Mode() Mode { return s.mode }

// Advance appends one more transcript word (e.g. a round's S(0), S(1))
// and reseeds the underlying PRNG from the full word history so far.
func (s *Stream) Advance(word uint64) {
	s.words = append(s.words, word)
	s.reseed()
}

func (s *Stream) reseed() {
	w := make([]byte, 8*len(s.words))
	for i, word := range s.words {
		binary.BigEndian.PutUint64(w[i*8:], word)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("challenge: blake2b init: %v", err))
	}
	h.Write([]byte(domainTag))
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(w)))
	h.Write(lenBuf[:])
	h.Write(w)
	seed := h.Sum(nil)

	s.state = binary.BigEndian.Uint64(seed[:8])
}

// nextU64 advances the internal splitmix64 state and returns one
// uniformly distributed 64-bit draw. Deterministic given the seed.
func (s *Stream) nextU64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

// Next draws the next field element challenge. For ModeDirect this is a
// direct `next_u64() % p` (documented bias accepted for small p); for
// ModeRejection it discards draws at or above the largest multiple of p
// below 2^64, giving an unbiased uniform sample.
func (s *Stream) Next() field.Element {
	switch s.mode {
	case ModeRejection:
		// 2^64 mod p, computed without representing 2^64 directly.
		twoPow64ModP := (^uint64(0)%s.p + 1) % s.p
		// limit = 2^64 - (2^64 mod p); uint64 wraparound makes "0 - x"
		// the correct representation of "2^64 - x" for x in (0, p).
		limit := uint64(0) - twoPow64ModP
		for {
			r := s.nextU64()
			if r < limit {
				return field.New(r%s.p, s.p)
			}
		}
	default:
		return field.New(s.nextU64()%s.p, s.p)
	}
}
