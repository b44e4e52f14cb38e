// Copyright 2025 Certen Protocol
//
// Package kvdb adapts github.com/cometbft/cometbft-db (an embedded
// key-value store, not the CometBFT consensus engine the rest of this
// repository deliberately drops — see DESIGN.md) onto pkg/ledger.KV, so
// the ledger's anchor state survives a process restart.

package kvdb

import (
	dbm "github.com/cometbft/cometbft-db"
)

// KVAdapter wraps a cometbft-db dbm.DB and exposes the pkg/ledger.KV
// interface.
type KVAdapter struct {
	db dbm.DB
}

// NewKVAdapter wraps db for use as a ledger.KV.
func NewKVAdapter(db dbm.DB) *KVAdapter {
	return &KVAdapter{db: db}
}

// Open opens (creating if necessary) a goleveldb-backed store named name
// under dir, and wraps it as a KVAdapter.
func Open(name, dir string) (*KVAdapter, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, err
	}
	return NewKVAdapter(db), nil
}

// Get implements ledger.KV.
func (a *KVAdapter) Get(key []byte) ([]byte, error) {
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Set implements ledger.KV. SetSync forces the write to durable storage
// before returning, matching the ledger's single-writer, append-then-
// persist-synchronously discipline.
func (a *KVAdapter) Set(key, value []byte) error {
	return a.db.SetSync(key, value)
}

// Close releases the underlying database handle.
func (a *KVAdapter) Close() error {
	return a.db.Close()
}
