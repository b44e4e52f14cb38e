package ingest

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/jrochub/powerhouse/pkg/ledger"
	"github.com/jrochub/powerhouse/pkg/policy"
)

func genesisOnlyAnchor() ledger.AnchorDocument {
	return ledger.AnchorDocument{
		Schema:  ledger.AnchorSchema,
		Entries: []ledger.EntryAnchor{{Statement: ledger.GenesisStatement, Hashes: [][32]byte{ledger.GenesisDigest()}}},
	}
}

func TestReconcilerAcceptsAuthorizedAnchor(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	var pk policy.PublicKey
	copy(pk[:], pub)
	pol := policy.NewStatic([]policy.PublicKey{pk})

	rec := NewReconciler(pol, NewDedup(16, nil), NewRateLimiter(0), nil, 0, 0)

	payload, _ := json.Marshal(genesisOnlyAnchor())
	raw := signedEnvelope(t, pub, priv, payload)

	rec.OnReceive("jroc-devnet", "peer-1", raw)

	if rec.ContributionCount() != 1 {
		t.Fatalf("contributions = %d, want 1", rec.ContributionCount())
	}
}

func TestReconcilerRejectsUnauthorizedSender(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	pol := policy.NewStatic(nil) // empty membership set

	rec := NewReconciler(pol, NewDedup(16, nil), NewRateLimiter(0), nil, 0, 0)

	payload, _ := json.Marshal(genesisOnlyAnchor())
	raw := signedEnvelope(t, pub, priv, payload)
	rec.OnReceive("jroc-devnet", "peer-1", raw)

	if rec.ContributionCount() != 0 {
		t.Fatalf("unauthorized sender's anchor should not be recorded")
	}
}

func TestReconcilerDeduplicatesRepeatedPayload(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	var pk policy.PublicKey
	copy(pk[:], pub)
	pol := policy.NewStatic([]policy.PublicKey{pk})

	dedup := NewDedup(16, nil)
	rec := NewReconciler(pol, dedup, NewRateLimiter(0), nil, 0, 0)

	payload, _ := json.Marshal(genesisOnlyAnchor())
	raw := signedEnvelope(t, pub, priv, payload)

	rec.OnReceive("jroc-devnet", "peer-1", raw)
	rec.OnReceive("jroc-devnet", "peer-1", raw)

	if dedup.Len() != 1 {
		t.Fatalf("dedup should have recorded exactly one digest, got %d", dedup.Len())
	}
}

func TestReconcilerFinalizeReachesQuorum(t *testing.T) {
	pubA, privA, _ := ed25519.GenerateKey(nil)
	pubB, privB, _ := ed25519.GenerateKey(nil)
	var pkA, pkB policy.PublicKey
	copy(pkA[:], pubA)
	copy(pkB[:], pubB)
	pol := policy.NewStatic([]policy.PublicKey{pkA, pkB})

	rec := NewReconciler(pol, NewDedup(16, nil), NewRateLimiter(0), nil, 0, 0)

	doc := genesisOnlyAnchor()
	payload, _ := json.Marshal(doc)

	rec.OnReceive("ns", "peer-a", signedEnvelope(t, pubA, privA, payload))
	rec.OnReceive("ns", "peer-b", signedEnvelope(t, pubB, privB, payload))

	res := rec.Finalize(2)
	if !res.Final {
		t.Fatalf("expected finality at quorum 2 with two agreeing identities")
	}
}

func TestReconcilerGatesBlobReferencesOnQC(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	var pk policy.PublicKey
	copy(pk[:], pub)
	pol := policy.NewStatic([]policy.PublicKey{pk})

	attested := map[string]bool{}
	rec := NewReconciler(pol, NewDedup(16, nil), NewRateLimiter(0), nil, 0, 0)
	rec.SetQCGate(func(ns string, hash [32]byte) bool { return attested[ns] })

	blobHash := [32]byte{0xAB}
	doc := ledger.AnchorDocument{Entries: []ledger.EntryAnchor{
		{Statement: ledger.GenesisStatement, Hashes: [][32]byte{ledger.GenesisDigest()}},
		{Statement: "blob:default/" + hexOf(blobHash), Hashes: [][32]byte{{7}}},
	}}
	payload, _ := json.Marshal(doc)

	rec.OnReceive("ns", "peer-1", signedEnvelope(t, pub, priv, payload))
	if rec.ContributionCount() != 0 {
		t.Fatalf("anchor referencing an unattested blob should be rejected")
	}

	attested["default"] = true
	rec.OnReceive("ns", "peer-1", signedEnvelope(t, pub, priv, payload))
	if rec.ContributionCount() != 1 {
		t.Fatalf("anchor should be accepted once the blob's QC is persisted")
	}
}

func hexOf(h [32]byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range h {
		out[i*2] = digits[b>>4]
		out[i*2+1] = digits[b&0x0f]
	}
	return string(out)
}

func TestReconcilerRateLimited(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	var pk policy.PublicKey
	copy(pk[:], pub)
	pol := policy.NewStatic([]policy.PublicKey{pk})

	limiter := NewRateLimiter(1)
	rec := NewReconciler(pol, NewDedup(16, nil), limiter, nil, 0, 0)

	mkPayload := func(stmt string) []byte {
		doc := ledger.AnchorDocument{Entries: []ledger.EntryAnchor{
			{Statement: ledger.GenesisStatement, Hashes: [][32]byte{ledger.GenesisDigest()}},
			{Statement: stmt, Hashes: [][32]byte{{9}}},
		}}
		b, _ := json.Marshal(doc)
		return b
	}

	rec.OnReceive("ns", "peer-1", signedEnvelope(t, pub, priv, mkPayload("first")))
	rec.OnReceive("ns", "peer-1", signedEnvelope(t, pub, priv, mkPayload("second")))

	if rec.ContributionCount() != 1 {
		t.Fatalf("second envelope should have been rate-limited, contributions = %d", rec.ContributionCount())
	}
}
