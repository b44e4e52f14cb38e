// Copyright 2025 Certen Protocol

package da

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/jrochub/powerhouse/pkg/merkle"
)

// Sampled is one sampled share together with its inclusion proofs
// against both of the blob's roots.
type Sampled struct {
	Index         int
	Share         []byte
	Proof         merkle.InclusionProof
	PedersenProof PedersenProof
}

// Sample draws count distinct share indices at random (or all of them,
// if count >= shareCount) and returns each sampled share with its
// inclusion proof. A missing share surfaces as ErrShareMissing so the
// caller can raise fault evidence instead of silently skipping it.
func (s *Store) Sample(namespace string, hash [32]byte, c Commitment, count int) ([]Sampled, error) {
	if count <= 0 || count > c.ShareCount {
		count = c.ShareCount
	}
	indices, err := randomDistinctIndices(c.ShareCount, count)
	if err != nil {
		return nil, fmt.Errorf("da: choose sample indices: %w", err)
	}

	allShares, err := s.AllShares(namespace, hash, c.ShareCount)
	if err != nil {
		return nil, err
	}

	out := make([]Sampled, 0, len(indices))
	for _, idx := range indices {
		proof, err := ShareInclusionProof(allShares, idx)
		if err != nil {
			return nil, fmt.Errorf("da: prove share %d: %w", idx, err)
		}
		pedersenProof, err := PedersenShareProof(allShares, idx)
		if err != nil {
			return nil, fmt.Errorf("da: pedersen-prove share %d: %w", idx, err)
		}
		out = append(out, Sampled{Index: idx, Share: allShares[idx], Proof: proof, PedersenProof: pedersenProof})
	}
	return out, nil
}

// ProveStorage produces an inclusion proof for a single share index
// without reading the rest of the blob's shares off disk a second
// time.
func (s *Store) ProveStorage(namespace string, hash [32]byte, c Commitment, index int) (Sampled, error) {
	if index < 0 || index >= c.ShareCount {
		return Sampled{}, fmt.Errorf("da: share index %d out of range [0,%d)", index, c.ShareCount)
	}
	allShares, err := s.AllShares(namespace, hash, c.ShareCount)
	if err != nil {
		return Sampled{}, err
	}
	proof, err := ShareInclusionProof(allShares, index)
	if err != nil {
		return Sampled{}, fmt.Errorf("da: prove share %d: %w", index, err)
	}
	pedersenProof, err := PedersenShareProof(allShares, index)
	if err != nil {
		return Sampled{}, fmt.Errorf("da: pedersen-prove share %d: %w", index, err)
	}
	return Sampled{Index: index, Share: allShares[index], Proof: proof, PedersenProof: pedersenProof}, nil
}

func randomDistinctIndices(n, count int) ([]int, error) {
	if count >= n {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	chosen := make(map[int]struct{}, count)
	indices := make([]int, 0, count)
	for len(indices) < count {
		bi, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
		if err != nil {
			return nil, err
		}
		idx := int(bi.Int64())
		if _, ok := chosen[idx]; ok {
			continue
		}
		chosen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	return indices, nil
}
