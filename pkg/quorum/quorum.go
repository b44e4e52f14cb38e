// Copyright 2025 Certen Protocol
//
// Package quorum implements the finality predicate over a set of
// (identity, anchor) contributions: group byte-equal entry sequences,
// find the group with the most distinct authorized identities, and
// declare finality once that count reaches the quorum threshold.

package quorum

import (
	"encoding/binary"

	"github.com/jrochub/powerhouse/pkg/ledger"
	"github.com/jrochub/powerhouse/pkg/policy"
)

// Contribution pairs one authorized identity's claimed anchor with the
// public key it was received under.
type Contribution struct {
	Identity policy.PublicKey
	Anchor   ledger.LedgerAnchor
}

// Divergence names the first entry at which contributions disagree,
// returned to operators when finality does not hold.
type Divergence struct {
	EntryIndex int
	Statement  string
}

// Result is the outcome of Finalize.
type Result struct {
	Final      bool
	Anchor     ledger.LedgerAnchor
	Count      int
	Divergence *Divergence
}

// Finalize groups contributions by the byte-equal sequence of
// (statement, hashes) across all entries, ignoring duplicate identities,
// and declares finality for the group with the largest distinct-identity
// count once that count reaches q. Anchors from unauthorized identities
// are ignored entirely.
func Finalize(contributions []Contribution, pol policy.Policy, q int) Result {
	type group struct {
		anchor     ledger.LedgerAnchor
		identities map[policy.PublicKey]struct{}
	}

	groups := make(map[string]*group)
	var authorized []Contribution
	for _, c := range contributions {
		if !pol.IsAuthorized(c.Identity) {
			continue
		}
		authorized = append(authorized, c)

		key := groupKey(c.Anchor)
		g, ok := groups[key]
		if !ok {
			g = &group{anchor: c.Anchor, identities: make(map[policy.PublicKey]struct{})}
			groups[key] = g
		}
		g.identities[c.Identity] = struct{}{}
	}

	var best *group
	for _, g := range groups {
		if best == nil || len(g.identities) > len(best.identities) {
			best = g
		}
	}

	if best != nil && len(best.identities) >= q {
		return Result{Final: true, Anchor: best.anchor, Count: len(best.identities)}
	}

	count := 0
	if best != nil {
		count = len(best.identities)
	}
	return Result{Final: false, Count: count, Divergence: firstDivergence(authorized)}
}

// groupKey encodes the byte-equal-comparable shape of an anchor:
// (statement, hashes) per entry, in order. merkle_root and the fold
// digest are a consequence of this sequence and are intentionally
// excluded from the grouping key.
func groupKey(a ledger.LedgerAnchor) string {
	var buf []byte
	for _, e := range a.Entries {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(e.Statement)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, []byte(e.Statement)...)

		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(e.Hashes)))
		buf = append(buf, lenBuf[:]...)
		for _, h := range e.Hashes {
			buf = append(buf, h[:]...)
		}
	}
	return string(buf)
}

// firstDivergence reports the first (entry_index, statement) at which
// any two authorized contributions disagree, using the first
// contribution as the comparison reference.
func firstDivergence(contributions []Contribution) *Divergence {
	if len(contributions) < 2 {
		return nil
	}
	ref := contributions[0].Anchor
	for ei, refEntry := range ref.Entries {
		for _, c := range contributions[1:] {
			if ei >= len(c.Anchor.Entries) {
				return &Divergence{EntryIndex: ei, Statement: refEntry.Statement}
			}
			if !entriesEqual(refEntry, c.Anchor.Entries[ei]) {
				return &Divergence{EntryIndex: ei, Statement: refEntry.Statement}
			}
		}
	}
	return nil
}

func entriesEqual(a, b ledger.EntryAnchor) bool {
	if a.Statement != b.Statement || len(a.Hashes) != len(b.Hashes) {
		return false
	}
	for i := range a.Hashes {
		if a.Hashes[i] != b.Hashes[i] {
			return false
		}
	}
	return true
}
