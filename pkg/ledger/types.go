// Copyright 2025 Certen Protocol

package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// GenesisStatement is the fixed statement text of the entry every ledger
// is created with.
const GenesisStatement = "JULIAN::GENESIS"

// GenesisDigestHex is the bit-exact transcript digest of the genesis
// entry, as specified. It is not derived from ComputeDigest — genesis
// has no challenges/round_sums/final triplet to hash.
const GenesisDigestHex = "139f1985df5b36dae23fa509fb53a006ba58e28e6dbb41d6d71cc1e91a82d84a"

// GenesisDigest returns the parsed 32-byte form of GenesisDigestHex.
func GenesisDigest() [32]byte {
	var d [32]byte
	b, err := hex.DecodeString(GenesisDigestHex)
	if err != nil || len(b) != 32 {
		panic("ledger: malformed genesis digest constant")
	}
	copy(d[:], b)
	return d
}

// EntryAnchor is one statement's accumulated transcript digests and the
// per-entry Merkle root over them.
type EntryAnchor struct {
	Statement  string
	Hashes     [][32]byte
	MerkleRoot [32]byte
}

type entryAnchorJSON struct {
	Statement  string   `json:"statement"`
	Hashes     []string `json:"hashes"`
	MerkleRoot string   `json:"merkle_root"`
}

// MarshalJSON renders an EntryAnchor per the jrocnet.anchor.v1 schema:
// lowercase-hex digests and root, never raw bytes.
func (e EntryAnchor) MarshalJSON() ([]byte, error) {
	hashes := make([]string, len(e.Hashes))
	for i, h := range e.Hashes {
		hashes[i] = hex.EncodeToString(h[:])
	}
	return json.Marshal(entryAnchorJSON{
		Statement:  e.Statement,
		Hashes:     hashes,
		MerkleRoot: hex.EncodeToString(e.MerkleRoot[:]),
	})
}

// UnmarshalJSON parses an EntryAnchor from the jrocnet.anchor.v1 schema.
func (e *EntryAnchor) UnmarshalJSON(data []byte) error {
	var raw entryAnchorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	hashes := make([][32]byte, len(raw.Hashes))
	for i, hx := range raw.Hashes {
		d, err := decodeHex32(hx)
		if err != nil {
			return fmt.Errorf("ledger: entry hash %d: %w", i, err)
		}
		hashes[i] = d
	}
	root, err := decodeHex32(raw.MerkleRoot)
	if err != nil {
		return fmt.Errorf("ledger: merkle_root: %w", err)
	}
	e.Statement = raw.Statement
	e.Hashes = hashes
	e.MerkleRoot = root
	return nil
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// LedgerAnchor is the serializable, ordered view of a ledger: the first
// entry is always the genesis.
type LedgerAnchor struct {
	Entries []EntryAnchor `json:"entries"`
}

// AnchorDocument is the full jrocnet.anchor.v1 JSON document emitted over
// the wire, including the network/quorum metadata that travels alongside
// the raw entry sequence.
type AnchorDocument struct {
	Schema        string        `json:"schema"`
	Network       string        `json:"network"`
	NodeID        string        `json:"node_id"`
	ChallengeMode string        `json:"challenge_mode"`
	FoldDigest    string        `json:"fold_digest"`
	Entries       []EntryAnchor `json:"entries"`
	Quorum        int           `json:"quorum"`
	CrateVersion  string        `json:"crate_version"`
	TimestampMs   int64         `json:"timestamp_ms"`
}

// AnchorSchema is the jrocnet anchor JSON schema tag.
const AnchorSchema = "jrocnet.anchor.v1"
