package da

import "testing"

func TestCommitIsDeterministic(t *testing.T) {
	payload := []byte("hello data availability")
	c1, _, err := Commit("default", payload, 8)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	c2, _, err := Commit("default", payload, 8)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if c1.ShareRoot != c2.ShareRoot || c1.PedersenRoot != c2.PedersenRoot {
		t.Fatalf("commitment roots must be deterministic for identical input")
	}
}

func TestCommitRejectsEmptyNamespace(t *testing.T) {
	if _, _, err := Commit("", []byte("x"), 8); err == nil {
		t.Fatalf("expected empty namespace to be rejected")
	}
}

func TestShareInclusionProofRoundTrip(t *testing.T) {
	payload := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	c, shares, err := Commit("default", payload, 4)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	for i := range shares {
		proof, err := ShareInclusionProof(shares, i)
		if err != nil {
			t.Fatalf("prove share %d: %v", i, err)
		}
		if !VerifyShareInclusion(shares[i], proof, c.ShareRoot) {
			t.Fatalf("share %d failed to verify against share_root", i)
		}
	}
}

func TestChangingAShareChangesBothRoots(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	c1, _, err := Commit("default", payload, 8)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	mutated := append([]byte(nil), payload...)
	mutated[0] ^= 0xFF
	c2, _, err := Commit("default", mutated, 8)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if c1.ShareRoot == c2.ShareRoot {
		t.Fatalf("mutating the payload must change share_root")
	}
	if c1.PedersenRoot == c2.PedersenRoot {
		t.Fatalf("mutating the payload must change pedersen_root")
	}
}
