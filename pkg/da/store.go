// Copyright 2025 Certen Protocol

package da

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the on-disk layout for blobs under one base directory:
//
//	<base>/<namespace>/<hash>/commitment.json
//	<base>/<namespace>/<hash>/shares/<i>.share
//	<base>/<namespace>/<hash>.qc
//
// All writes under one blob directory are serialized through mu; reads
// hit the filesystem directly since shares are immutable once written.
type Store struct {
	mu   sync.Mutex
	base string
}

// NewStore roots a Store at base, creating the directory if needed.
func NewStore(base string) (*Store, error) {
	if err := os.MkdirAll(base, 0700); err != nil {
		return nil, fmt.Errorf("da: create store root: %w", err)
	}
	return &Store{base: base}, nil
}

func (s *Store) blobDir(namespace string, hash [32]byte) string {
	return filepath.Join(s.base, namespace, hex.EncodeToString(hash[:]))
}

// qcPath is the quorum certificate sidecar next to the blob directory:
// <base>/<namespace>/<hash>.qc.
func (s *Store) qcPath(namespace string, hash [32]byte) string {
	return filepath.Join(s.base, namespace, hex.EncodeToString(hash[:])+".qc")
}

// HasQC reports whether a quorum certificate has been persisted for
// (namespace, hash); anchor acceptance for blob-referencing statements
// gates on this.
func (s *Store) HasQC(namespace string, hash [32]byte) bool {
	_, err := os.Stat(s.qcPath(namespace, hash))
	return err == nil
}

type commitmentFile struct {
	Namespace    string `json:"namespace"`
	Hash         string `json:"hash"`
	ShardSize    int    `json:"shard_size"`
	ShareCount   int    `json:"share_count"`
	ShareRoot    string `json:"share_root"`
	PedersenRoot string `json:"pedersen_root"`
	FeeRemainder uint64 `json:"fee_remainder,omitempty"`
}

// Put persists a commitment and its shares, overwriting any share or
// commitment files already stored for the blob (ingest is idempotent at
// the caller via Has).
func (s *Store) Put(c Commitment, shares [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.blobDir(c.Namespace, c.Hash)
	sharesDir := filepath.Join(dir, "shares")
	if err := os.MkdirAll(sharesDir, 0700); err != nil {
		return fmt.Errorf("da: create blob directory: %w", err)
	}

	for i, share := range shares {
		path := filepath.Join(sharesDir, fmt.Sprintf("%d.share", i))
		if err := os.WriteFile(path, share, 0600); err != nil {
			return fmt.Errorf("da: write share %d: %w", i, err)
		}
	}

	return s.writeCommitmentLocked(c)
}

func (s *Store) writeCommitmentLocked(c Commitment) error {
	cf := commitmentFile{
		Namespace:    c.Namespace,
		Hash:         hex.EncodeToString(c.Hash[:]),
		ShardSize:    c.ShardSize,
		ShareCount:   c.ShareCount,
		ShareRoot:    hex.EncodeToString(c.ShareRoot[:]),
		PedersenRoot: hex.EncodeToString(c.PedersenRoot[:]),
		FeeRemainder: c.FeeRemainder,
	}
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("da: marshal commitment: %w", err)
	}
	path := filepath.Join(s.blobDir(c.Namespace, c.Hash), "commitment.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("da: write commitment: %w", err)
	}
	return nil
}

// SetFeeRemainder rewrites a stored commitment's escrowed fee balance,
// e.g. to zero once the attestor payout has run.
func (s *Store) SetFeeRemainder(namespace string, hash [32]byte, remainder uint64) error {
	c, err := s.GetCommitment(namespace, hash)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.FeeRemainder = remainder
	return s.writeCommitmentLocked(c)
}

// Has reports whether a commitment for (namespace, hash) is already stored.
func (s *Store) Has(namespace string, hash [32]byte) bool {
	_, err := os.Stat(filepath.Join(s.blobDir(namespace, hash), "commitment.json"))
	return err == nil
}

// GetCommitment loads a previously stored commitment.
func (s *Store) GetCommitment(namespace string, hash [32]byte) (Commitment, error) {
	data, err := os.ReadFile(filepath.Join(s.blobDir(namespace, hash), "commitment.json"))
	if err != nil {
		return Commitment{}, fmt.Errorf("da: read commitment: %w", err)
	}
	var cf commitmentFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return Commitment{}, fmt.Errorf("da: unmarshal commitment: %w", err)
	}

	c := Commitment{Namespace: cf.Namespace, ShardSize: cf.ShardSize, ShareCount: cf.ShareCount, FeeRemainder: cf.FeeRemainder}
	if err := decodeHex32(cf.Hash, &c.Hash); err != nil {
		return Commitment{}, fmt.Errorf("da: decode hash: %w", err)
	}
	if err := decodeHex32(cf.ShareRoot, &c.ShareRoot); err != nil {
		return Commitment{}, fmt.Errorf("da: decode share_root: %w", err)
	}
	if err := decodeHex32(cf.PedersenRoot, &c.PedersenRoot); err != nil {
		return Commitment{}, fmt.Errorf("da: decode pedersen_root: %w", err)
	}
	return c, nil
}

// GetShare reads a single share by index, returning ErrShareMissing if
// it has been deleted or was never written (e.g. pruned after sampling
// detects a fault).
func (s *Store) GetShare(namespace string, hash [32]byte, index int) ([]byte, error) {
	path := filepath.Join(s.blobDir(namespace, hash), "shares", fmt.Sprintf("%d.share", index))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrShareMissing
		}
		return nil, fmt.Errorf("da: read share %d: %w", index, err)
	}
	return data, nil
}

// AllShares reads every share for a stored commitment, in order.
func (s *Store) AllShares(namespace string, hash [32]byte, count int) ([][]byte, error) {
	shares := make([][]byte, count)
	for i := 0; i < count; i++ {
		share, err := s.GetShare(namespace, hash, i)
		if err != nil {
			return nil, err
		}
		shares[i] = share
	}
	return shares, nil
}

func decodeHex32(s string, out *[32]byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return nil
}
