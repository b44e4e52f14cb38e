// Copyright 2025 Certen Protocol
//
// Digest framing: a binary BLAKE2b-256 over the numeric sections of a
// proof record only — statement, comments, and the hash line itself are
// excluded. The hash input is the canonical bytes, never the ASCII
// presentation.

package transcript

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const digestDomainTag = "JROC_TRANSCRIPT"

// ComputeDigest hashes challenges, round sums, and final into the
// 32-byte transcript digest: domain tag, then each numeric section in
// declared order prefixed with its element count (u64 big-endian), then
// final. It does not mutate Record; callers assign the result to
// Record.Digest themselves.
func ComputeDigest(challenges, roundSums []uint64, final uint64) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("transcript: blake2b init: %v", err))
	}
	h.Write([]byte(digestDomainTag))

	transcriptBytes := encodeU64List(challenges)
	writeLenPrefixed(h, uint64(len(challenges)), transcriptBytes)

	roundSumBytes := encodeU64List(roundSums)
	writeLenPrefixed(h, uint64(len(roundSums)), roundSumBytes)

	var finalBuf [8]byte
	binary.BigEndian.PutUint64(finalBuf[:], final)
	h.Write(finalBuf[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// WithDigest returns a copy of r with Digest computed and DigestComputed
// set, ready for Serialize.
func (r Record) WithDigest() Record {
	r.Digest = ComputeDigest(r.Challenges, r.RoundSums, r.Final)
	r.DigestComputed = true
	return r
}

// VerifyDigest recomputes the digest from r's numeric sections and
// reports whether it matches r.Digest. A mismatch is the digest-mismatch
// error class: fatal for reconciliation, but strictly local.
func (r Record) VerifyDigest() bool {
	if !r.DigestComputed {
		return false
	}
	return ComputeDigest(r.Challenges, r.RoundSums, r.Final) == r.Digest
}

func encodeU64List(vs []uint64) []byte {
	out := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint64(out[i*8:], v)
	}
	return out
}

func writeLenPrefixed(h interface{ Write([]byte) (int, error) }, n uint64, b []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], n)
	h.Write(lenBuf[:])
	h.Write(b)
}
