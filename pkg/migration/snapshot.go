// Copyright 2025 Certen Protocol
//
// Package migration implements the deterministic registry snapshot, the
// claim Merkle tree derived from it, and the burn-intent journal that
// retires stake before a snapshot is taken.

package migration

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/jrochub/powerhouse/pkg/policy"
)

const snapshotDomainTag = "JROC_MIGRATION_SNAPSHOT"

// Entry is one registry member's state as of a snapshot height.
type Entry struct {
	PublicKey policy.PublicKey `json:"-"`
	Balance   uint64           `json:"balance"`
	Stake     uint64           `json:"stake"`
	Slashed   bool             `json:"slashed"`
}

type entryJSON struct {
	PublicKey string `json:"public_key"`
	Balance   uint64 `json:"balance"`
	Stake     uint64 `json:"stake"`
	Slashed   bool   `json:"slashed"`
}

// MarshalJSON renders an Entry with its public key as lowercase hex,
// matching every other wire type in this repository.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		PublicKey: hex.EncodeToString(e.PublicKey[:]),
		Balance:   e.Balance,
		Stake:     e.Stake,
		Slashed:   e.Slashed,
	})
}

// Snapshot is the deterministic registry state at height.
type Snapshot struct {
	Height  uint64  `json:"height"`
	Entries []Entry `json:"entries"`
}

// BuildSnapshot takes every entry currently in reg, sorts it
// lexicographically by public key, and fixes it at height. Re-running
// BuildSnapshot against an unchanged registry produces byte-identical
// output.
func BuildSnapshot(height uint64, reg *policy.Stake) Snapshot {
	raw := reg.Entries()
	entries := make([]Entry, len(raw))
	for i, e := range raw {
		entries[i] = Entry{PublicKey: e.PublicKey, Balance: e.Balance, Stake: e.Bonded, Slashed: e.Slashed}
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].PublicKey[:], entries[j].PublicKey[:]) < 0
	})
	return Snapshot{Height: height, Entries: entries}
}

// CanonicalJSON renders the snapshot as the exact byte sequence its
// commitment hashes over: compact JSON, field order fixed by the struct
// tags above, entries already sorted by BuildSnapshot.
func (s Snapshot) CanonicalJSON() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("migration: marshal snapshot: %w", err)
	}
	return b, nil
}

// Commitment hashes the snapshot's canonical JSON into a 32-byte digest
// suitable for appending to the ledger as a new entry's transcript
// digest via a statement such as "migration-snapshot-<height>".
func (s Snapshot) Commitment() ([32]byte, error) {
	var out [32]byte
	body, err := s.CanonicalJSON()
	if err != nil {
		return out, err
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return out, fmt.Errorf("migration: blake2b init: %w", err)
	}
	h.Write([]byte(snapshotDomainTag))
	var heightBuf [8]byte
	binary.BigEndian.PutUint64(heightBuf[:], s.Height)
	h.Write(heightBuf[:])
	h.Write(body)
	copy(out[:], h.Sum(nil))
	return out, nil
}
