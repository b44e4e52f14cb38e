// Copyright 2025 Certen Protocol
//
// Pedersen Merkle tree over blob shares: a second, independent
// commitment alongside the plain digest-based share_root, built from
// BLS12-381 point addition instead of hashing. Binding, not hiding.

package da

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"golang.org/x/crypto/blake2b"
)

const pedersenDomainTag = "JROC_PEDERSEN"

var (
	pedersenGenOnce sync.Once
	pedersenGen     bls12381.G1Affine
)

func generator() bls12381.G1Affine {
	pedersenGenOnce.Do(func() {
		_, _, g1, _ := bls12381.Generators()
		pedersenGen = g1
	})
	return pedersenGen
}

func hashToScalar(b []byte) *big.Int {
	h := sha256.Sum256(b)
	var el fr.Element
	el.SetBytes(h[:])
	var out big.Int
	el.BigInt(&out)
	return &out
}

// pedersenLeaf maps a share to a G1 point: the generator scaled by the
// hash of the share's position and content reduced into the scalar
// field. Curve-point addition is commutative, so the position prefix is
// what binds each share to its index in the tree.
func pedersenLeaf(index uint64, share []byte) bls12381.G1Affine {
	buf := make([]byte, 8+len(share))
	binary.BigEndian.PutUint64(buf, index)
	copy(buf[8:], share)

	gen := generator()
	var p bls12381.G1Affine
	p.ScalarMultiplication(&gen, hashToScalar(buf))
	return p
}

// pedersenPair combines two G1 points via Jacobian point addition.
func pedersenPair(a, b bls12381.G1Affine) bls12381.G1Affine {
	var aj, bj bls12381.G1Jac
	aj.FromAffine(&a)
	bj.FromAffine(&b)
	aj.AddAssign(&bj)

	var out bls12381.G1Affine
	out.FromJacobian(&aj)
	return out
}

// pedersenLevels builds every level of the Pedersen Merkle tree over
// shares, leaves first. Odd levels carry the trailing node up
// unchanged, matching the share_root tree's carry-up convention.
func pedersenLevels(shares [][]byte) [][]bls12381.G1Affine {
	level := make([]bls12381.G1Affine, len(shares))
	for i, s := range shares {
		level[i] = pedersenLeaf(uint64(i), s)
	}
	levels := [][]bls12381.G1Affine{level}
	for len(level) > 1 {
		next := make([]bls12381.G1Affine, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, pedersenPair(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}
	return levels
}

// PedersenRootPoint builds the Pedersen Merkle tree over shares and
// returns its root as a curve point.
func PedersenRootPoint(shares [][]byte) bls12381.G1Affine {
	if len(shares) == 0 {
		return generator()
	}
	levels := pedersenLevels(shares)
	return levels[len(levels)-1][0]
}

// PedersenSibling is one step of a Pedersen inclusion proof: the
// sibling's curve point and whether it sits on the right of the current
// node.
type PedersenSibling struct {
	Point bls12381.G1Affine
	Right bool
}

// PedersenProof is the ordered list of sibling points from a share's
// leaf up to the Pedersen root.
type PedersenProof struct {
	LeafIndex int
	Siblings  []PedersenSibling
}

// PedersenShareProof proves that the share at index i is part of the
// commitment's pedersen_root. The sibling-collection walk mirrors the
// share_root capsule's: a trailing carried-up node consumes no sibling
// and keeps its position at the next level.
func PedersenShareProof(shares [][]byte, index int) (PedersenProof, error) {
	if index < 0 || index >= len(shares) {
		return PedersenProof{}, fmt.Errorf("da: pedersen leaf index %d out of range [0,%d)", index, len(shares))
	}
	levels := pedersenLevels(shares)

	proof := PedersenProof{LeafIndex: index}
	idx := index
	for level := 0; level < len(levels)-1; level++ {
		nodes := levels[level]
		if idx%2 == 0 {
			if idx+1 < len(nodes) {
				proof.Siblings = append(proof.Siblings, PedersenSibling{Point: nodes[idx+1], Right: true})
			}
		} else {
			proof.Siblings = append(proof.Siblings, PedersenSibling{Point: nodes[idx-1], Right: false})
		}
		idx = idx / 2
	}
	return proof, nil
}

// VerifyPedersenInclusion reconstructs the Pedersen root from a share
// and its proof, and reports whether its digest equals pedersenRoot.
// The proof's LeafIndex participates in the leaf derivation, so a share
// only verifies at the position it was committed under.
func VerifyPedersenInclusion(share []byte, proof PedersenProof, pedersenRoot [32]byte) bool {
	cur := pedersenLeaf(uint64(proof.LeafIndex), share)
	for _, sib := range proof.Siblings {
		if sib.Right {
			cur = pedersenPair(cur, sib.Point)
		} else {
			cur = pedersenPair(sib.Point, cur)
		}
	}
	return PedersenRootDigest(cur) == pedersenRoot
}

// PedersenRootDigest compresses a Pedersen root point down to the
// 32-byte digest the blob commitment data model stores.
func PedersenRootDigest(root bls12381.G1Affine) [32]byte {
	compressed := root.Bytes()
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("da: blake2b init failed")
	}
	h.Write([]byte(pedersenDomainTag))
	h.Write(compressed[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
