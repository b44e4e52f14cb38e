// Copyright 2025 Certen Protocol
//
// Package evidence is the append-only fault-evidence outbox: one JSON
// record per line, opened O_APPEND so a crash mid-write truncates at
// worst the last line rather than corrupting the file.

package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Kind enumerates the fault-evidence record kinds.
type Kind string

const (
	KindBlobMissing  Kind = "blob-missing"
	KindBlobMismatch Kind = "blob-mismatch"
	KindRollupFault  Kind = "rollup-fault"
)

// Record is one fault-evidence entry.
type Record struct {
	Kind           Kind   `json:"kind"`
	Namespace      string `json:"namespace,omitempty"`
	CommitmentHash string `json:"commitment_hash,omitempty"`
	Payload        string `json:"payload,omitempty"` // base64, optional
	ReporterPK     string `json:"reporter_pk"` // base64 ed25519 public key
	Signature      string `json:"signature"`   // base64 ed25519 signature
}

// Outbox is a single append-only evidence file. One complete JSON record
// is written per line; never truncated by the core.
type Outbox struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if necessary) the evidence outbox at path.
func Open(path string) (*Outbox, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("evidence: open outbox: %w", err)
	}
	return &Outbox{file: f}, nil
}

// Append writes one evidence record as a single JSON line. The write is
// serialized against other Append calls on the same Outbox so two
// records can never interleave.
func (o *Outbox) Append(r Record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("evidence: marshal record: %w", err)
	}
	line = append(line, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.file.Write(line); err != nil {
		return fmt.Errorf("evidence: append record: %w", err)
	}
	return nil
}

// Close releases the underlying file handle.
func (o *Outbox) Close() error {
	return o.file.Close()
}
