// Copyright 2025 Certen Protocol

package policy

import "sync"

// StakeEntry is one registry member's bonding state.
type StakeEntry struct {
	PublicKey PublicKey
	Balance   uint64
	Bonded    uint64
	Slashed   bool
}

// Stake authorizes any key bonded at or above bondThreshold that has not
// been slashed. It also auto-slashes a key observed signing two distinct
// anchors at the same logical position (equivocation).
type Stake struct {
	mu            sync.RWMutex
	bondThreshold uint64
	entries       map[PublicKey]*StakeEntry

	// signedAt tracks, per logical position, the anchor fold digest each
	// pk has signed so far — used to detect equivocation.
	signedAt map[uint64]map[PublicKey][32]byte
}

// NewStake builds a Stake policy from an initial registry snapshot.
func NewStake(bondThreshold uint64, entries []StakeEntry) *Stake {
	s := &Stake{
		bondThreshold: bondThreshold,
		entries:       make(map[PublicKey]*StakeEntry, len(entries)),
		signedAt:      make(map[uint64]map[PublicKey][32]byte),
	}
	for i := range entries {
		e := entries[i]
		s.entries[e.PublicKey] = &e
	}
	return s
}

func (s *Stake) IsAuthorized(pk PublicKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[pk]
	if !ok {
		return false
	}
	return e.Bonded >= s.bondThreshold && !e.Slashed
}

func (s *Stake) Snapshot() map[PublicKey]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[PublicKey]struct{})
	for pk, e := range s.entries {
		if e.Bonded >= s.bondThreshold && !e.Slashed {
			out[pk] = struct{}{}
		}
	}
	return out
}

// Entry returns a copy of pk's current registry entry, if present.
func (s *Stake) Entry(pk PublicKey) (StakeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[pk]
	if !ok {
		return StakeEntry{}, false
	}
	return *e, true
}

// ObserveSignature records that pk signed anchorDigest at logical
// position. If pk previously signed a different digest at the same
// position, pk is flipped to slashed and ObserveSignature reports true
// so the caller can append fault evidence.
func (s *Stake) ObserveSignature(position uint64, pk PublicKey, anchorDigest [32]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	byPosition, ok := s.signedAt[position]
	if !ok {
		byPosition = make(map[PublicKey][32]byte)
		s.signedAt[position] = byPosition
	}

	prior, seen := byPosition[pk]
	byPosition[pk] = anchorDigest
	if !seen || prior == anchorDigest {
		return false
	}

	e, ok := s.entries[pk]
	if !ok || e.Slashed {
		return false
	}
	e.Slashed = true
	return true
}

// DebitFee moves fee from pk's balance, crediting none; used by the
// data-availability ingest path. Returns false if pk is unknown or
// underfunded.
func (s *Stake) DebitFee(pk PublicKey, fee uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[pk]
	if !ok || e.Balance < fee {
		return false
	}
	e.Balance -= fee
	return true
}

// CreditBalance adds amount to pk's balance, e.g. the operator reward or
// an attestor's proportional fee share.
func (s *Stake) CreditBalance(pk PublicKey, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[pk]
	if !ok {
		return
	}
	e.Balance += amount
}

// DebitBonded retires amount from pk's bonded stake, e.g. when a
// burn-intent record is executed against the registry. Returns false if
// pk is unknown or its bonded amount is smaller than amount.
func (s *Stake) DebitBonded(pk PublicKey, amount uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[pk]
	if !ok || e.Bonded < amount {
		return false
	}
	e.Bonded -= amount
	return true
}

// Entries returns a copy of every registry entry, in no particular
// order; callers that need a deterministic order (e.g. a migration
// snapshot) must sort the result themselves.
func (s *Stake) Entries() []StakeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StakeEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}
