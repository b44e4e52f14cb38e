// Copyright 2025 Certen Protocol
//
// Package da implements the data-availability layer: blob ingest and
// share splitting, dual commitment (a digest-based share_root and an
// elliptic-curve Pedersen root), attestation quorum certificates,
// sampling and storage proofs, and the HTTP surface nodes expose for
// publishers and rollups.

package da

import (
	"crypto/sha256"
	"fmt"

	"github.com/jrochub/powerhouse/pkg/merkle"
)

// Commitment is the dual commitment over one blob's shares.
type Commitment struct {
	Namespace    string
	Hash         [32]byte // content hash of the raw payload
	ShardSize    int
	ShareCount   int
	ShareRoot    [32]byte
	PedersenRoot [32]byte

	// FeeRemainder is the portion of the submission fee still escrowed
	// for attestors; it drops to zero once the quorum certificate fills
	// and the payout runs.
	FeeRemainder uint64
}

// shareDigest is the per-share content hash fed into the share_root
// Merkle capsule as a leaf digest.
func shareDigest(share []byte) [32]byte {
	return sha256.Sum256(share)
}

// Commit splits payload into shares and computes its dual commitment.
// It does not persist anything; callers combine this with Store to
// land shares and metadata on disk.
func Commit(namespace string, payload []byte, shardSize int) (Commitment, [][]byte, error) {
	if namespace == "" {
		return Commitment{}, nil, fmt.Errorf("da: namespace must not be empty")
	}

	shares := Split(payload, shardSize)

	digests := make([][32]byte, len(shares))
	for i, s := range shares {
		digests[i] = shareDigest(s)
	}
	tree, err := merkle.Build(digests)
	if err != nil {
		return Commitment{}, nil, fmt.Errorf("da: build share tree: %w", err)
	}

	pedersenPoint := PedersenRootPoint(shares)

	c := Commitment{
		Namespace:    namespace,
		Hash:         sha256.Sum256(payload),
		ShardSize:    shardSize,
		ShareCount:   len(shares),
		ShareRoot:    tree.Root(),
		PedersenRoot: PedersenRootDigest(pedersenPoint),
	}
	return c, shares, nil
}

// ShareInclusionProof proves that a share at index i is part of the
// commitment's share_root.
func ShareInclusionProof(shares [][]byte, index int) (merkle.InclusionProof, error) {
	digests := make([][32]byte, len(shares))
	for i, s := range shares {
		digests[i] = shareDigest(s)
	}
	tree, err := merkle.Build(digests)
	if err != nil {
		return merkle.InclusionProof{}, fmt.Errorf("da: build share tree: %w", err)
	}
	return tree.Prove(index)
}

// VerifyShareInclusion checks a share against a previously published
// share_root.
func VerifyShareInclusion(share []byte, proof merkle.InclusionProof, shareRoot [32]byte) bool {
	return merkle.VerifyInclusion(shareDigest(share), proof, shareRoot)
}
