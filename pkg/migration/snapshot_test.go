package migration

import (
	"testing"

	"github.com/jrochub/powerhouse/pkg/policy"
)

func pk(b byte) policy.PublicKey {
	var out policy.PublicKey
	out[0] = b
	return out
}

func TestBuildSnapshotSortsByPublicKey(t *testing.T) {
	reg := policy.NewStake(10, []policy.StakeEntry{
		{PublicKey: pk(3), Balance: 1, Bonded: 10},
		{PublicKey: pk(1), Balance: 2, Bonded: 20},
		{PublicKey: pk(2), Balance: 3, Bonded: 30},
	})

	snap := BuildSnapshot(100, reg)
	if snap.Height != 100 {
		t.Fatalf("height = %d, want 100", snap.Height)
	}
	if len(snap.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(snap.Entries))
	}
	for i := 0; i < len(snap.Entries)-1; i++ {
		if snap.Entries[i].PublicKey[0] >= snap.Entries[i+1].PublicKey[0] {
			t.Fatalf("entries not sorted ascending by public key at index %d", i)
		}
	}
}

func TestSnapshotCommitmentDeterministic(t *testing.T) {
	reg := policy.NewStake(10, []policy.StakeEntry{
		{PublicKey: pk(1), Balance: 2, Bonded: 20},
	})

	s1 := BuildSnapshot(7, reg)
	s2 := BuildSnapshot(7, reg)

	c1, err := s1.Commitment()
	if err != nil {
		t.Fatalf("commitment 1: %v", err)
	}
	c2, err := s2.Commitment()
	if err != nil {
		t.Fatalf("commitment 2: %v", err)
	}
	if c1 != c2 {
		t.Fatalf("commitment not deterministic across identical snapshots")
	}
}

func TestSnapshotCommitmentChangesWithHeight(t *testing.T) {
	reg := policy.NewStake(10, []policy.StakeEntry{
		{PublicKey: pk(1), Balance: 2, Bonded: 20},
	})

	s1 := BuildSnapshot(7, reg)
	s2 := BuildSnapshot(8, reg)

	c1, _ := s1.Commitment()
	c2, _ := s2.Commitment()
	if c1 == c2 {
		t.Fatalf("commitment did not change when height changed")
	}
}
