package ingest

import (
	"sync"
	"testing"

	"github.com/jrochub/powerhouse/pkg/ledger"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[string(key)], nil
}

func (m *memKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func TestLedgerTaskPushAndSnapshot(t *testing.T) {
	led, err := ledger.NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	task := NewLedgerTask(led)
	defer task.Stop()

	var digest [32]byte
	digest[0] = 0xAB
	if err := task.Push("stmt-1", digest); err != nil {
		t.Fatalf("Push: %v", err)
	}

	snap := task.Snapshot()
	if len(snap.Entries) != 2 {
		t.Fatalf("entries = %d, want 2 (genesis + stmt-1)", len(snap.Entries))
	}
	if snap.Entries[1].Statement != "stmt-1" {
		t.Fatalf("entries[1].Statement = %q, want stmt-1", snap.Entries[1].Statement)
	}

	fold := task.FoldDigest()
	want := ledger.FoldOver(snap.Entries)
	if fold != want {
		t.Fatalf("FoldDigest mismatch")
	}
}

func TestLedgerTaskConcurrentPush(t *testing.T) {
	led, err := ledger.NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	task := NewLedgerTask(led)
	defer task.Stop()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var d [32]byte
			d[0] = byte(i)
			d[1] = byte(i >> 8)
			_ = task.Push("concurrent", d)
		}(i)
	}
	wg.Wait()

	snap := task.Snapshot()
	last := snap.Entries[len(snap.Entries)-1]
	if last.Statement != "concurrent" {
		t.Fatalf("expected a concurrent entry, got %q", last.Statement)
	}
	if len(last.Hashes) != n {
		t.Fatalf("hashes = %d, want %d (single-writer serialization should drop none)", len(last.Hashes), n)
	}
}

func TestLedgerTaskStop(t *testing.T) {
	led, err := ledger.NewLedger(newMemKV())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	task := NewLedgerTask(led)
	task.Stop()

	var digest [32]byte
	if err := task.Push("after-stop", digest); err == nil {
		t.Fatalf("expected Push after Stop to fail")
	}
}
