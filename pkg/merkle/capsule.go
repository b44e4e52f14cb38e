// Copyright 2025 Certen Protocol
//
// Per-entry Merkle capsule over transcript digests: domain-tagged
// BLAKE2b-256 node hashes, with an odd trailing node carried up to the
// next level unchanged rather than duplicated.

package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const domainTag = "JROC_MERKLE"

// ErrEmptyCapsule is returned when a capsule is built from no digests.
var ErrEmptyCapsule = errors.New("merkle: capsule has no leaves")

// ErrInvalidProof is returned when an inclusion proof fails to
// reconstruct the expected root.
var ErrInvalidProof = errors.New("merkle: inclusion proof does not reconstruct root")

func hashTagged(parts ...[]byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("merkle: blake2b init: %v", err))
	}
	h.Write([]byte(domainTag))
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Leaf hashes one transcript digest into a capsule leaf node.
func Leaf(digest [32]byte) [32]byte {
	return hashTagged([]byte{0x00}, digest[:])
}

// Empty returns the capsule root for zero leaves.
func Empty() [32]byte {
	return hashTagged([]byte{0x01})
}

func pair(a, b [32]byte) [32]byte {
	return hashTagged(a[:], b[:])
}

// Capsule is a Merkle tree over an ordered set of transcript digests.
// Unlike a textbook binary Merkle tree, an odd node at any level is
// carried up to the next level unchanged, never duplicated.
type Capsule struct {
	leaves [][32]byte
	levels [][][32]byte // level 0 = leaf hashes, last level = single root
}

// Build constructs a Capsule from transcript digests in insertion order.
func Build(digests [][32]byte) (*Capsule, error) {
	if len(digests) == 0 {
		return nil, ErrEmptyCapsule
	}

	leaves := make([][32]byte, len(digests))
	for i, d := range digests {
		leaves[i] = Leaf(d)
	}

	levels := [][][32]byte{leaves}
	current := leaves
	for len(current) > 1 {
		next := make([][32]byte, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 < len(current) {
				next = append(next, pair(current[i], current[i+1]))
			} else {
				next = append(next, current[i]) // carry trailing node up unchanged
			}
		}
		levels = append(levels, next)
		current = next
	}

	return &Capsule{leaves: leaves, levels: levels}, nil
}

// Root returns the capsule's Merkle root.
func (c *Capsule) Root() [32]byte {
	top := c.levels[len(c.levels)-1]
	return top[0]
}

// Sibling describes one step of an inclusion proof: the sibling hash and
// whether it sits on the right of the current node.
type Sibling struct {
	Hash  [32]byte
	Right bool
}

// InclusionProof is the ordered list of siblings from a leaf to the root,
// plus the leaf's original index (the "bit-path").
type InclusionProof struct {
	LeafIndex int
	Siblings  []Sibling
}

// Prove builds an inclusion proof for the leaf at index i.
func (c *Capsule) Prove(i int) (InclusionProof, error) {
	if i < 0 || i >= len(c.leaves) {
		return InclusionProof{}, fmt.Errorf("merkle: leaf index %d out of range [0,%d)", i, len(c.leaves))
	}

	proof := InclusionProof{LeafIndex: i}
	idx := i
	for level := 0; level < len(c.levels)-1; level++ {
		nodes := c.levels[level]
		if idx%2 == 0 {
			if idx+1 < len(nodes) {
				proof.Siblings = append(proof.Siblings, Sibling{Hash: nodes[idx+1], Right: true})
			}
			// idx is the trailing carried-up node: no sibling consumed,
			// and it keeps the same position at the next level.
		} else {
			proof.Siblings = append(proof.Siblings, Sibling{Hash: nodes[idx-1], Right: false})
		}
		idx = idx / 2
	}
	return proof, nil
}

// VerifyInclusion reconstructs a root from a leaf digest and an
// inclusion proof, and reports whether it equals root.
func VerifyInclusion(leafDigest [32]byte, proof InclusionProof, root [32]byte) bool {
	current := Leaf(leafDigest)
	for _, sib := range proof.Siblings {
		if sib.Right {
			current = pair(current, sib.Hash)
		} else {
			current = pair(sib.Hash, current)
		}
	}
	return bytes.Equal(current[:], root[:])
}
