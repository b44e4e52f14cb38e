// Copyright 2025 Certen Protocol

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jrochub/powerhouse/pkg/policy"
)

// registryEntryJSON is the CLI-friendly on-disk form of a policy.StakeEntry:
// a hex public key instead of Go's default array-of-numbers encoding.
type registryEntryJSON struct {
	PublicKey string `json:"public_key"`
	Balance   uint64 `json:"balance"`
	Bonded    uint64 `json:"bonded"`
	Slashed   bool   `json:"slashed"`
}

type registryFile struct {
	BondThreshold uint64              `json:"bond_threshold"`
	Entries       []registryEntryJSON `json:"entries"`
}

func loadStakeRegistry(path string) (*policy.Stake, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	var rf registryFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse registry file: %w", err)
	}

	entries := make([]policy.StakeEntry, len(rf.Entries))
	for i, e := range rf.Entries {
		pkBytes, err := hex.DecodeString(e.PublicKey)
		if err != nil || len(pkBytes) != 32 {
			return nil, fmt.Errorf("registry entry %d: public_key must be 64 hex characters", i)
		}
		var pk policy.PublicKey
		copy(pk[:], pkBytes)
		entries[i] = policy.StakeEntry{PublicKey: pk, Balance: e.Balance, Bonded: e.Bonded, Slashed: e.Slashed}
	}
	return policy.NewStake(rf.BondThreshold, entries), nil
}

// saveStakeRegistry writes reg's current entries back to path in the same
// shape loadStakeRegistry reads, so a CLI-driven flow (e.g. burn-execute)
// can persist the post-run registry state.
func saveStakeRegistry(path string, bondThreshold uint64, reg *policy.Stake) error {
	raw := reg.Entries()
	sort.Slice(raw, func(i, j int) bool {
		return bytes.Compare(raw[i].PublicKey[:], raw[j].PublicKey[:]) < 0
	})
	entries := make([]registryEntryJSON, len(raw))
	for i, e := range raw {
		entries[i] = registryEntryJSON{
			PublicKey: hex.EncodeToString(e.PublicKey[:]),
			Balance:   e.Balance,
			Bonded:    e.Bonded,
			Slashed:   e.Slashed,
		}
	}
	rf := registryFile{BondThreshold: bondThreshold, Entries: entries}
	body, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry file: %w", err)
	}
	return os.WriteFile(path, body, 0o644)
}
