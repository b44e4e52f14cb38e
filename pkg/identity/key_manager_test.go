package identity

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestGenerateAndLoadRoundTripPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")

	km1 := NewKeyManager(path)
	if err := km1.Generate(nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	pub1 := km1.PublicKeyBytes()

	km2 := NewKeyManager(path)
	if err := km2.Load(nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if km2.PublicKeyBytes() != pub1 {
		t.Fatalf("public key mismatch after reload")
	}

	msg := []byte("hello")
	sig, err := km2.Sign(msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != 64 {
		t.Fatalf("signature length = %d, want 64", len(sig))
	}
}

func TestEncryptedAtRestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")
	passphrase := []byte("correct horse battery staple")

	km1 := NewKeyManager(path)
	if err := km1.Generate(passphrase); err != nil {
		t.Fatalf("generate: %v", err)
	}
	pub1 := km1.PublicKeyBytes()

	km2 := NewKeyManager(path)
	if err := km2.Load(passphrase); err != nil {
		t.Fatalf("load with correct passphrase: %v", err)
	}
	if km2.PublicKeyBytes() != pub1 {
		t.Fatalf("public key mismatch after encrypted reload")
	}

	km3 := NewKeyManager(path)
	if err := km3.Load([]byte("wrong passphrase")); err != nil {
		t.Fatalf("load with wrong passphrase should still parse (no authentication tag): %v", err)
	}
	if km3.PublicKeyBytes() == pub1 {
		t.Fatalf("wrong passphrase must not reproduce the original key")
	}
}

func TestLoadOrGenerateCreatesOnFirstCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")

	km1 := NewKeyManager(path)
	if err := km1.LoadOrGenerate(nil); err != nil {
		t.Fatalf("load-or-generate (create): %v", err)
	}
	pub1 := km1.PublicKeyBytes()

	km2 := NewKeyManager(path)
	if err := km2.LoadOrGenerate(nil); err != nil {
		t.Fatalf("load-or-generate (load): %v", err)
	}
	if km2.PublicKeyBytes() != pub1 {
		t.Fatalf("second LoadOrGenerate should load the existing key, not regenerate")
	}
}

func TestMaskIsDeterministic(t *testing.T) {
	m1 := mask([]byte("pw"))
	m2 := mask([]byte("pw"))
	if !bytes.Equal(m1[:], m2[:]) {
		t.Fatalf("mask must be deterministic for the same passphrase")
	}
}
