package ingest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/jrochub/powerhouse/pkg/ledger"
)

func signedEnvelope(t *testing.T, pub ed25519.PublicKey, priv ed25519.PrivateKey, payload []byte) []byte {
	t.Helper()
	sig := ed25519.Sign(priv, payload)
	ej := envelopeJSON{
		Schema:        "jrocnet.envelope.v1",
		SchemaVersion: 1,
		PublicKey:     base64.StdEncoding.EncodeToString(pub),
		NodeID:        "node-a",
		Payload:       base64.StdEncoding.EncodeToString(payload),
		Signature:     base64.StdEncoding.EncodeToString(sig),
	}
	raw, err := json.Marshal(ej)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

func TestParseAndVerifyEnvelope(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	doc := ledger.AnchorDocument{Schema: ledger.AnchorSchema, Entries: []ledger.EntryAnchor{
		{Statement: ledger.GenesisStatement, Hashes: [][32]byte{ledger.GenesisDigest()}},
	}}
	payload, _ := json.Marshal(doc)
	raw := signedEnvelope(t, pub, priv, payload)

	env, err := ParseEnvelope(raw, 0)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if err := env.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	gotDoc, err := env.DecodeAnchor(0)
	if err != nil {
		t.Fatalf("DecodeAnchor: %v", err)
	}
	if len(gotDoc.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(gotDoc.Entries))
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	raw := signedEnvelope(t, pub, priv, []byte(`{"entries":[]}`))

	env, err := ParseEnvelope(raw, 0)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	env.Payload = []byte(`{"entries":[],"tampered":true}`)
	if err := env.Verify(); err == nil {
		t.Fatalf("expected Verify to reject a tampered payload")
	}
}

func TestParseRejectsFutureSchemaVersion(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	ej := envelopeJSON{
		Schema:        "jrocnet.envelope.v1",
		SchemaVersion: 2,
		PublicKey:     base64.StdEncoding.EncodeToString(pub),
		NodeID:        "node-a",
		Payload:       base64.StdEncoding.EncodeToString([]byte(`{}`)),
		Signature:     base64.StdEncoding.EncodeToString(ed25519.Sign(priv, []byte(`{}`))),
	}
	raw, _ := json.Marshal(ej)
	if _, err := ParseEnvelope(raw, 0); err != ErrSchemaVersion {
		t.Fatalf("err = %v, want ErrSchemaVersion", err)
	}
}

func TestParseRejectsOversizedEnvelope(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	raw := signedEnvelope(t, pub, priv, []byte(`{}`))
	if _, err := ParseEnvelope(raw, 4); err != ErrEnvelopeTooBig {
		t.Fatalf("err = %v, want ErrEnvelopeTooBig", err)
	}
}

func TestDecodeAnchorRejectsTooManyEntries(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	doc := ledger.AnchorDocument{Entries: []ledger.EntryAnchor{
		{Statement: "a", Hashes: [][32]byte{{1}}},
		{Statement: "b", Hashes: [][32]byte{{2}}},
	}}
	payload, _ := json.Marshal(doc)
	raw := signedEnvelope(t, pub, priv, payload)

	env, err := ParseEnvelope(raw, 0)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if _, err := env.DecodeAnchor(1); err != ErrTooManyEntries {
		t.Fatalf("err = %v, want ErrTooManyEntries", err)
	}
}
