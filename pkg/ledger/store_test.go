package ledger

import (
	"encoding/hex"
	"testing"

	"github.com/jrochub/powerhouse/pkg/transcript"
)

type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memKV) Set(key, value []byte) error {
	m.data[string(key)] = value
	return nil
}

func mustHex32(t *testing.T, s string) [32]byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		t.Fatalf("bad hex: %v", err)
	}
	var out [32]byte
	copy(out[:], b)
	return out
}

func TestNewLedgerSeedsGenesis(t *testing.T) {
	l, err := NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	snap := l.Snapshot()
	if len(snap.Entries) != 1 {
		t.Fatalf("expected 1 entry (genesis), got %d", len(snap.Entries))
	}
	if snap.Entries[0].Statement != GenesisStatement {
		t.Fatalf("genesis statement mismatch")
	}
	if snap.Entries[0].Hashes[0] != GenesisDigest() {
		t.Fatalf("genesis digest mismatch")
	}
}

func TestPushGroupsByStatement(t *testing.T) {
	l, err := NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	d1 := mustHex32(t, "ded75c45b3b7eedd37041aae79713d7382e000eb4d83fab5f6aca6ca4d276e8c")
	d2 := mustHex32(t, "c72413466b2f76f1471f2e7160dadcbf912a4f8bc80ef1f2ffdb54ecb2bb2114")

	if err := l.Push("Dense polynomial proof", d1); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if err := l.Push("Hash anchor proof", d2); err != nil {
		t.Fatalf("push 2: %v", err)
	}

	snap := l.Snapshot()
	if len(snap.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap.Entries))
	}
	if snap.Entries[1].Statement != "Dense polynomial proof" || snap.Entries[2].Statement != "Hash anchor proof" {
		t.Fatalf("entries not in expected statement order")
	}
}

func TestPushRejectsDuplicateDigestWithinEntry(t *testing.T) {
	l, err := NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	d := mustHex32(t, "ded75c45b3b7eedd37041aae79713d7382e000eb4d83fab5f6aca6ca4d276e8c")
	if err := l.Push("Dense polynomial proof", d); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if err := l.Push("Dense polynomial proof", d); err != ErrDuplicateDigest {
		t.Fatalf("expected ErrDuplicateDigest, got %v", err)
	}
}

func TestAppendOnlyPrefixUnchanged(t *testing.T) {
	l, err := NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	before := l.Snapshot()
	d := mustHex32(t, "ded75c45b3b7eedd37041aae79713d7382e000eb4d83fab5f6aca6ca4d276e8c")
	if err := l.Push("Dense polynomial proof", d); err != nil {
		t.Fatalf("push: %v", err)
	}
	after := l.Snapshot()
	if after.Entries[0].Statement != before.Entries[0].Statement ||
		after.Entries[0].MerkleRoot != before.Entries[0].MerkleRoot {
		t.Fatalf("genesis entry mutated after append")
	}
}

// TestGoldenAnchor builds the golden ledger: genesis plus two proofs over field
// p=257, checking the fold digest and field reduction hint.
func TestGoldenAnchor(t *testing.T) {
	l, err := NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	d1 := transcript.ComputeDigest(
		[]uint64{247, 246, 144, 68, 105, 92, 243, 202, 72, 124},
		[]uint64{209, 235, 57, 13, 205, 8, 245, 122, 72, 159},
		9,
	)
	d2 := transcript.ComputeDigest(
		[]uint64{204, 85, 135, 147, 28, 132},
		[]uint64{64, 32, 16, 8, 4, 2},
		1,
	)

	if err := l.Push("Dense polynomial proof", d1); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if err := l.Push("Hash anchor proof", d2); err != nil {
		t.Fatalf("push 2: %v", err)
	}

	fold := l.FoldDigest()
	want := mustHex32(t, "c87282dddb8d85a8b09a9669a1b2d97b30251c05b80eae2671271c432698aabe")
	if fold != want {
		t.Fatalf("fold digest mismatch:\n got  %x\n want %x", fold, want)
	}

	if hint := FieldReductionHint(fold, 257); hint != 219 {
		t.Fatalf("field reduction hint = %d, want 219", hint)
	}
}

func TestValidDetectsDigestMismatch(t *testing.T) {
	l, err := NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	d := mustHex32(t, "ded75c45b3b7eedd37041aae79713d7382e000eb4d83fab5f6aca6ca4d276e8c")
	if err := l.Push("Dense polynomial proof", d); err != nil {
		t.Fatalf("push: %v", err)
	}
	snap := l.Snapshot()

	okLookup := func(ei, hi int) ([32]byte, error) { return snap.Entries[ei].Hashes[hi], nil }
	if err := Valid(snap, okLookup); err != nil {
		t.Fatalf("Valid should hold: %v", err)
	}

	badLookup := func(ei, hi int) ([32]byte, error) {
		if ei == 1 {
			var bad [32]byte
			return bad, nil
		}
		return snap.Entries[ei].Hashes[hi], nil
	}
	if err := Valid(snap, badLookup); err == nil {
		t.Fatalf("expected digest-mismatch error")
	}
}
