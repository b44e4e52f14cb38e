// Copyright 2025 Certen Protocol
//
// The claim Merkle tree is consumed by an external ERC-20 settlement
// layer, so its leaf and pair-hash conventions follow that ecosystem's
// standard rather than this repo's blake2b domain-tagged capsule in
// pkg/merkle: keccak256 leaves, sorted-pair internal nodes, the layout
// OpenZeppelin MerkleProof-style claim contracts verify against.

package migration

import (
	"bytes"
	"encoding/binary"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AmountMode selects which snapshot fields a claim's amount is derived
// from.
type AmountMode int

const (
	AmountTotal   AmountMode = iota // balance + stake
	AmountBalance                   // balance only
	AmountStake                     // stake only
)

// AddressFn derives a settlement-layer address from a snapshot public
// key. The core has no opinion on the derivation; callers pass the
// function their settlement layer expects.
type AddressFn func(pk [32]byte) [20]byte

// Claim is one beneficiary's entry in the claim manifest.
type Claim struct {
	ClaimID [32]byte
	Address [20]byte
	Amount  uint64
	Proof   [][32]byte
}

// Manifest is the canonical, re-run-identical claim tree output.
type Manifest struct {
	Root   [32]byte
	Claims []Claim
}

// BuildClaimTree derives claim_id_i, address_i and amount_i for every
// entry in snap (in its already-sorted order), hashes the leaves with
// keccak256, and builds the sorted-pair Merkle tree over them.
func BuildClaimTree(snap Snapshot, mode AmountMode, addrOf AddressFn) (Manifest, error) {
	n := len(snap.Entries)
	ids := make([][32]byte, n)
	addrs := make([][20]byte, n)
	amounts := make([]uint64, n)
	leaves := make([][32]byte, n)

	for i, e := range snap.Entries {
		id := claimID(snap.Height, uint64(i), e.PublicKey)
		addr := addrOf(e.PublicKey)
		amount := amountOf(e, mode)

		ids[i] = id
		addrs[i] = addr
		amounts[i] = amount
		leaves[i] = claimLeaf(snap.Height, id, addr, amount)
	}

	levels, err := buildSortedPairLevels(leaves)
	if err != nil {
		return Manifest{}, err
	}

	claims := make([]Claim, n)
	for i := range snap.Entries {
		claims[i] = Claim{
			ClaimID: ids[i],
			Address: addrs[i],
			Amount:  amounts[i],
			Proof:   inclusionProof(levels, i),
		}
	}

	var root [32]byte
	if len(levels) > 0 {
		top := levels[len(levels)-1]
		if len(top) != 1 {
			return Manifest{}, fmt.Errorf("migration: claim tree did not converge to a single root")
		}
		root = top[0]
	}

	return Manifest{Root: root, Claims: claims}, nil
}

func amountOf(e Entry, mode AmountMode) uint64 {
	switch mode {
	case AmountBalance:
		return e.Balance
	case AmountStake:
		return e.Stake
	default:
		return e.Balance + e.Stake
	}
}

// claimID is deterministic from (height, index, public_key).
func claimID(height, index uint64, pk [32]byte) [32]byte {
	var buf bytes.Buffer
	writeU64(&buf, height)
	writeU64(&buf, index)
	buf.Write(pk[:])
	return keccak32(buf.Bytes())
}

// claimLeaf = keccak256(height || claim_id || address || amount).
func claimLeaf(height uint64, claimID [32]byte, address [20]byte, amount uint64) [32]byte {
	var buf bytes.Buffer
	writeU64(&buf, height)
	buf.Write(claimID[:])
	buf.Write(address[:])
	writeU64(&buf, amount)
	return keccak32(buf.Bytes())
}

func keccak32(data []byte) [32]byte {
	var out [32]byte
	copy(out[:], gethcrypto.Keccak256(data))
	return out
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// buildSortedPairLevels builds every level of a sorted-pair Merkle tree
// (leaves first), the convention OpenZeppelin-style claim contracts
// verify against: at each combine step the lexicographically smaller
// node is hashed first, independent of its position, so proof
// verification does not need a left/right bit-path.
func buildSortedPairLevels(leaves [][32]byte) ([][][32]byte, error) {
	if len(leaves) == 0 {
		return nil, nil
	}
	levels := [][][32]byte{leaves}
	cur := leaves
	for len(cur) > 1 {
		next := make([][32]byte, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 == len(cur) {
				next = append(next, cur[i])
				continue
			}
			next = append(next, sortedPairHash(cur[i], cur[i+1]))
		}
		levels = append(levels, next)
		cur = next
	}
	return levels, nil
}

func sortedPairHash(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	var buf bytes.Buffer
	buf.Write(a[:])
	buf.Write(b[:])
	return keccak32(buf.Bytes())
}

// inclusionProof collects the sibling at each level on the path from
// leaf index idx up to the root. A level with no sibling for idx (the
// trailing carried-up node) contributes nothing, matching
// buildSortedPairLevels' carry rule.
func inclusionProof(levels [][][32]byte, idx int) [][32]byte {
	var proof [][32]byte
	for _, level := range levels[:len(levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}
	return proof
}

// VerifyInclusion reconstructs the root from leaf and its proof, and
// reports whether it equals root. Pairs are hashed in sorted order, so
// no leaf index is needed.
func VerifyInclusion(leaf [32]byte, proof [][32]byte, root [32]byte) bool {
	cur := leaf
	for _, sibling := range proof {
		cur = sortedPairHash(cur, sibling)
	}
	return cur == root
}
