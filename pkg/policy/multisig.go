// Copyright 2025 Certen Protocol

package policy

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrInsufficientSigners is returned when a membership rotation payload
// carries fewer than the configured threshold of valid signer
// signatures.
var ErrInsufficientSigners = errors.New("policy: rotation needs at least threshold valid signer signatures")

// Multisig authorizes a membership set that can only be rotated when at
// least K of its current signers endorse the update with ed25519
// signatures over the proposed member set's canonical payload.
type Multisig struct {
	mu        sync.RWMutex
	threshold int
	signers   map[PublicKey]struct{}
	members   map[PublicKey]struct{}
}

// NewMultisig builds a Multisig policy with an initial signer/member set
// and a rotation threshold K.
func NewMultisig(threshold int, signers, members []PublicKey) *Multisig {
	m := &Multisig{
		threshold: threshold,
		signers:   toSet(signers),
		members:   toSet(members),
	}
	return m
}

func toSet(pks []PublicKey) map[PublicKey]struct{} {
	out := make(map[PublicKey]struct{}, len(pks))
	for _, pk := range pks {
		out[pk] = struct{}{}
	}
	return out
}

func (m *Multisig) IsAuthorized(pk PublicKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[pk]
	return ok
}

func (m *Multisig) Snapshot() map[PublicKey]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[PublicKey]struct{}, len(m.members))
	for pk := range m.members {
		out[pk] = struct{}{}
	}
	return out
}

// RotationPayload is the canonical byte sequence a rotation's endorsing
// signatures are computed over: the sorted hex-encoded new member set,
// newline-joined.
func RotationPayload(newMembers []PublicKey) []byte {
	hexes := make([]string, len(newMembers))
	for i, pk := range newMembers {
		hexes[i] = hex.EncodeToString(pk[:])
	}
	sort.Strings(hexes)
	return []byte(strings.Join(hexes, "\n"))
}

// Rotate replaces the member set if at least m.threshold distinct
// current signers produced a valid ed25519 signature over
// RotationPayload(newMembers).
func (m *Multisig) Rotate(newMembers []PublicKey, sigs map[PublicKey][]byte) error {
	payload := RotationPayload(newMembers)

	m.mu.Lock()
	defer m.mu.Unlock()

	valid := 0
	for pk, sig := range sigs {
		if _, ok := m.signers[pk]; !ok {
			continue
		}
		if ed25519.Verify(ed25519.PublicKey(pk[:]), payload, sig) {
			valid++
		}
	}
	if valid < m.threshold {
		return ErrInsufficientSigners
	}

	m.members = toSet(newMembers)
	return nil
}
