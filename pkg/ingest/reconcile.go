// Copyright 2025 Certen Protocol
//
// Reconciler is the envelope receive path end to end: rate-limit, parse,
// verify, authorize, deduplicate, then fold the sender's anchor into the
// quorum contribution set.

package ingest

import (
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/jrochub/powerhouse/pkg/ledger"
	"github.com/jrochub/powerhouse/pkg/metrics"
	"github.com/jrochub/powerhouse/pkg/policy"
	"github.com/jrochub/powerhouse/pkg/quorum"
)

// Reconciler owns the set of anchor contributions received from other
// identities and the policy that gates which of them count toward
// quorum.
type Reconciler struct {
	pol         policy.Policy
	dedup       *Dedup
	limiter     *RateLimiter
	metrics     *metrics.Registry
	maxEnvBytes int
	maxEntries  int
	qcGate      func(namespace string, hash [32]byte) bool

	mu            sync.Mutex
	contributions map[policy.PublicKey]quorum.Contribution
	lastFinal     [32]byte // fold digest of the last anchor counted as final
	haveFinal     bool
}

// NewReconciler builds a Reconciler. m may be nil, e.g. in tests that do
// not care about counters.
func NewReconciler(pol policy.Policy, dedup *Dedup, limiter *RateLimiter, m *metrics.Registry, maxEnvBytes, maxEntries int) *Reconciler {
	return &Reconciler{
		pol:           pol,
		dedup:         dedup,
		limiter:       limiter,
		metrics:       m,
		maxEnvBytes:   maxEnvBytes,
		maxEntries:    maxEntries,
		contributions: make(map[policy.PublicKey]quorum.Contribution),
	}
}

func (r *Reconciler) countInvalid() {
	if r.metrics != nil {
		r.metrics.InvalidEnvelopesTotal.Inc()
	}
}

// OnReceive implements ReceiveFunc: topic doubles as the rate-limiter
// key, payload is an already-signed, not-yet-verified jrocnet.envelope.v1
// document. Every rejection path is silent to the sender, denying
// amplification, and only observable through invalid_envelopes_total.
func (r *Reconciler) OnReceive(topic, fromPeer string, payload []byte) {
	if !r.limiter.Allow(topic) {
		r.countInvalid()
		return
	}

	env, err := ParseEnvelope(payload, r.maxEnvBytes)
	if err != nil {
		r.countInvalid()
		return
	}
	if err := env.Verify(); err != nil {
		r.countInvalid()
		return
	}

	var pk policy.PublicKey
	copy(pk[:], env.PublicKey)
	if !r.pol.IsAuthorized(pk) {
		r.countInvalid()
		return
	}

	doc, err := env.DecodeAnchor(r.maxEntries)
	if err != nil {
		r.countInvalid()
		return
	}
	if r.metrics != nil {
		r.metrics.AnchorsReceivedTotal.Inc()
	}

	anchor := ledger.LedgerAnchor{Entries: doc.Entries}
	if err := ledger.Valid(anchor, localDigestLookup(anchor)); err != nil {
		r.countInvalid()
		return
	}
	if !r.blobReferencesAttested(anchor) {
		r.countInvalid()
		return
	}
	// Record in the duplicate cache only once the anchor is accepted, so
	// an anchor rejected for a missing blob QC can be re-gossiped after
	// the certificate lands.
	if r.dedup.Seen(env.DigestPayload()) {
		return
	}
	if r.metrics != nil {
		r.metrics.AnchorsVerifiedTotal.Inc()
	}

	r.mu.Lock()
	r.contributions[pk] = quorum.Contribution{Identity: pk, Anchor: anchor}
	r.mu.Unlock()
}

// SetQCGate installs the attestation check for blob-referencing entries
// (da.Store.HasQC in production). With no gate installed, anchors that
// reference blobs are accepted without an attestation check.
func (r *Reconciler) SetQCGate(gate func(namespace string, hash [32]byte) bool) {
	r.qcGate = gate
}

// blobReferencesAttested rejects anchors naming a blob whose quorum
// certificate has not been persisted locally.
func (r *Reconciler) blobReferencesAttested(a ledger.LedgerAnchor) bool {
	if r.qcGate == nil {
		return true
	}
	for _, e := range a.Entries {
		ns, hash, ok := ParseBlobStatement(e.Statement)
		if !ok {
			continue
		}
		if !r.qcGate(ns, hash) {
			return false
		}
	}
	return true
}

// ParseBlobStatement recognizes the "blob:<namespace>/<hash-hex>"
// statement convention blob-referencing ledger entries use. Statements
// in any other shape are not blob references.
func ParseBlobStatement(statement string) (namespace string, hash [32]byte, ok bool) {
	rest, found := strings.CutPrefix(statement, "blob:")
	if !found {
		return "", hash, false
	}
	ns, hexPart, found := strings.Cut(rest, "/")
	if !found || ns == "" || len(hexPart) != 64 {
		return "", hash, false
	}
	b, err := hex.DecodeString(hexPart)
	if err != nil || len(b) != 32 {
		return "", hash, false
	}
	copy(hash[:], b)
	return ns, hash, true
}

// localDigestLookup builds the lookup ledger.Valid needs out of the
// anchor's own entries: this node has no independent transcript to
// re-derive the peer's digests from, so it can only confirm internal
// self-consistency (genesis entry, no missing hashes) here. No later
// stage replays the peer's transcripts; Finalize only groups
// contributions by their (statement, hashes) sequences.
func localDigestLookup(a ledger.LedgerAnchor) func(entryIndex, hashIndex int) ([32]byte, error) {
	return func(entryIndex, hashIndex int) ([32]byte, error) {
		if entryIndex < 0 || entryIndex >= len(a.Entries) {
			return [32]byte{}, errors.New("ingest: entry index out of range")
		}
		e := a.Entries[entryIndex]
		if hashIndex < 0 || hashIndex >= len(e.Hashes) {
			return [32]byte{}, errors.New("ingest: hash index out of range")
		}
		return e.Hashes[hashIndex], nil
	}
}

// ContributionCount reports how many distinct identities currently have
// a recorded contribution.
func (r *Reconciler) ContributionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contributions)
}

// Finalize runs the quorum predicate over every contribution received so
// far and increments finality_events_total the first time it reports
// final for a given anchor sequence (identified by its fold digest).
func (r *Reconciler) Finalize(q int) quorum.Result {
	r.mu.Lock()
	contributions := make([]quorum.Contribution, 0, len(r.contributions))
	for _, c := range r.contributions {
		contributions = append(contributions, c)
	}
	r.mu.Unlock()

	res := quorum.Finalize(contributions, r.pol, q)
	if res.Final {
		fold := ledger.FoldOver(res.Anchor.Entries)
		r.mu.Lock()
		isNew := !r.haveFinal || fold != r.lastFinal
		r.lastFinal, r.haveFinal = fold, true
		r.mu.Unlock()
		if isNew && r.metrics != nil {
			r.metrics.FinalityEventsTotal.Inc()
		}
	}
	return res
}
