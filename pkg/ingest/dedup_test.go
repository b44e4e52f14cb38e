package ingest

import "testing"

func TestDedupSeenThenEvicts(t *testing.T) {
	evictions := 0
	d := NewDedup(2, func() { evictions++ })

	var a, b, c [32]byte
	a[0], b[0], c[0] = 1, 2, 3

	if d.Seen(a) {
		t.Fatalf("a should not be seen yet")
	}
	if !d.Seen(a) {
		t.Fatalf("a should now be seen")
	}
	if d.Seen(b) {
		t.Fatalf("b should not be seen yet")
	}
	if d.Len() != 2 {
		t.Fatalf("len = %d, want 2", d.Len())
	}

	// c pushes the cache over capacity. a's last touch came before b was
	// inserted, so a is the least-recently-used entry and is evicted.
	if d.Seen(c) {
		t.Fatalf("c should not be seen yet")
	}
	if evictions != 1 {
		t.Fatalf("evictions = %d, want 1", evictions)
	}
	if d.Seen(a) {
		t.Fatalf("a should have been evicted and therefore unseen")
	}
}

func TestDedupUnboundedWhenCapacityZero(t *testing.T) {
	d := NewDedup(0, func() { t.Fatalf("should never evict") })
	for i := 0; i < 100; i++ {
		var digest [32]byte
		digest[0] = byte(i)
		if d.Seen(digest) {
			t.Fatalf("digest %d should not be seen yet", i)
		}
	}
	if d.Len() != 100 {
		t.Fatalf("len = %d, want 100", d.Len())
	}
}
