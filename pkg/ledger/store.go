// Copyright 2025 Certen Protocol
//
// Package ledger is the append-only statement/digest log: Push, the
// per-entry Merkle root, and the whole-ledger fold digest, persisted
// through a minimal KV interface.

package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/jrochub/powerhouse/pkg/merkle"
)

const foldDomainTag = "JROC_ANCHOR"

// KV is the minimal persistence interface the ledger needs.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

var keyLedgerAnchor = []byte("ledger:anchor")

// Ledger is the append-only statement/digest log. CONCURRENCY: single-
// writer — all mutation goes through Push, guarded by mu; Snapshot hands
// readers an independent copy so they never observe a half-written
// entry. Callers needing cross-goroutine access should route all writes
// through one owning goroutine rather than relying on mu alone for
// anything beyond memory safety.
type Ledger struct {
	mu      sync.Mutex
	kv      KV
	entries []EntryAnchor
}

// NewLedger opens (or initializes) a ledger backed by kv. A fresh ledger
// is seeded with the fixed genesis entry before any other entry can be
// pushed.
func NewLedger(kv KV) (*Ledger, error) {
	l := &Ledger{kv: kv}

	raw, err := kv.Get(keyLedgerAnchor)
	if err == nil && len(raw) > 0 {
		var anchor LedgerAnchor
		if err := json.Unmarshal(raw, &anchor); err != nil {
			return nil, fmt.Errorf("ledger: decode persisted anchor: %w", err)
		}
		l.entries = anchor.Entries
		return l, nil
	}

	genesisHashes := [][32]byte{GenesisDigest()}
	cap, err := merkle.Build(genesisHashes)
	if err != nil {
		return nil, fmt.Errorf("ledger: build genesis merkle root: %w", err)
	}
	l.entries = []EntryAnchor{{
		Statement:  GenesisStatement,
		Hashes:     genesisHashes,
		MerkleRoot: cap.Root(),
	}}
	if err := l.persistLocked(); err != nil {
		return nil, err
	}
	return l, nil
}

// Push appends digest to the last entry if its statement matches, else
// opens a new entry. Duplicate digests within the target entry are
// rejected. The target entry's merkle_root is recomputed synchronously.
func (l *Ledger) Push(statement string, digest [32]byte) error {
	if statement == "" {
		return ErrEmptyStatement
	}
	if statement == GenesisStatement {
		return ErrGenesisStatement
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := len(l.entries) - 1
	if idx >= 0 && l.entries[idx].Statement == statement {
		for _, h := range l.entries[idx].Hashes {
			if h == digest {
				return ErrDuplicateDigest
			}
		}
		l.entries[idx].Hashes = append(l.entries[idx].Hashes, digest)
	} else {
		l.entries = append(l.entries, EntryAnchor{Statement: statement, Hashes: [][32]byte{digest}})
		idx = len(l.entries) - 1
	}

	capsule, err := merkle.Build(l.entries[idx].Hashes)
	if err != nil {
		return fmt.Errorf("ledger: recompute merkle root: %w", err)
	}
	l.entries[idx].MerkleRoot = capsule.Root()

	return l.persistLocked()
}

// Snapshot returns an independent copy of the ledger's current entries,
// safe for a reader to hold across goroutine boundaries.
func (l *Ledger) Snapshot() LedgerAnchor {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]EntryAnchor, len(l.entries))
	for i, e := range l.entries {
		hashes := make([][32]byte, len(e.Hashes))
		copy(hashes, e.Hashes)
		out[i] = EntryAnchor{Statement: e.Statement, Hashes: hashes, MerkleRoot: e.MerkleRoot}
	}
	return LedgerAnchor{Entries: out}
}

// FoldDigest hashes every transcript digest across every entry, in
// order, into the whole-ledger fold digest.
func (l *Ledger) FoldDigest() [32]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return FoldOver(l.entries)
}

// FoldOver computes the fold digest for an arbitrary entry sequence,
// letting callers fold a LedgerAnchor received from a peer without
// constructing a local Ledger.
func FoldOver(entries []EntryAnchor) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("ledger: blake2b init: %v", err))
	}
	h.Write([]byte(foldDomainTag))
	for _, e := range entries {
		for _, d := range e.Hashes {
			h.Write(d[:])
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// FieldReductionHint reduces the first 8 bytes of a fold digest mod p.
// Informational only — used for human verification rituals, never for
// consensus.
func FieldReductionHint(fold [32]byte, p uint64) uint64 {
	return binary.BigEndian.Uint64(fold[:8]) % p
}

func (l *Ledger) persistLocked() error {
	b, err := json.Marshal(LedgerAnchor{Entries: l.entries})
	if err != nil {
		return fmt.Errorf("ledger: marshal anchor: %w", err)
	}
	if err := l.kv.Set(keyLedgerAnchor, b); err != nil {
		return fmt.Errorf("ledger: persist anchor: %w", err)
	}
	return nil
}

// Valid re-derives every entry's digests from transcripts the caller
// supplies via lookup(entryIndex, hashIndex), and confirms the first
// entry is the fixed genesis. A mismatch is the digest-mismatch error
// class.
func Valid(a LedgerAnchor, lookup func(entryIndex, hashIndex int) ([32]byte, error)) error {
	if len(a.Entries) == 0 {
		return fmt.Errorf("ledger: anchor has no entries")
	}
	genesis := a.Entries[0]
	if genesis.Statement != GenesisStatement || len(genesis.Hashes) != 1 || genesis.Hashes[0] != GenesisDigest() {
		return fmt.Errorf("ledger: first entry is not the fixed genesis")
	}
	for ei, e := range a.Entries {
		for hi, want := range e.Hashes {
			got, err := lookup(ei, hi)
			if err != nil {
				return fmt.Errorf("ledger: entry %d hash %d: %w", ei, hi, err)
			}
			if got != want {
				return fmt.Errorf("ledger: entry %d hash %d: digest-mismatch", ei, hi)
			}
		}
	}
	return nil
}
