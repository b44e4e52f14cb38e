// Copyright 2025 Certen Protocol
//
// LedgerTask enforces the ledger's single-writer discipline with an
// owning goroutine and a request channel; readers receive immutable
// snapshots. In cmd/jrocnode the ledger is handed to this task right
// after it is opened and is used only through it; jrocctl subcommands
// open the ledger directly with ledger.NewLedger.

package ingest

import (
	"fmt"

	"github.com/jrochub/powerhouse/pkg/ledger"
)

type pushRequest struct {
	statement string
	digest    [32]byte
	done      chan error
}

type snapshotRequest struct {
	done chan ledger.LedgerAnchor
}

// LedgerTask serializes every Push through one owning goroutine.
type LedgerTask struct {
	led    *ledger.Ledger
	pushCh chan pushRequest
	snapCh chan snapshotRequest
	stopCh chan struct{}
}

// NewLedgerTask starts the owning goroutine for led and returns a handle
// to it. Callers must call Stop when done.
func NewLedgerTask(led *ledger.Ledger) *LedgerTask {
	t := &LedgerTask{
		led:    led,
		pushCh: make(chan pushRequest),
		snapCh: make(chan snapshotRequest),
		stopCh: make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *LedgerTask) run() {
	for {
		select {
		case req := <-t.pushCh:
			req.done <- t.led.Push(req.statement, req.digest)
		case req := <-t.snapCh:
			req.done <- t.led.Snapshot()
		case <-t.stopCh:
			return
		}
	}
}

// ErrTaskStopped is returned by Push/Snapshot once Stop has been called.
var ErrTaskStopped = fmt.Errorf("ingest: ledger task stopped")

// Push appends digest under statement, serialized through the owning
// goroutine.
func (t *LedgerTask) Push(statement string, digest [32]byte) error {
	done := make(chan error, 1)
	select {
	case t.pushCh <- pushRequest{statement: statement, digest: digest, done: done}:
	case <-t.stopCh:
		return ErrTaskStopped
	}
	return <-done
}

// Snapshot returns an immutable copy of the ledger's current entries.
func (t *LedgerTask) Snapshot() ledger.LedgerAnchor {
	done := make(chan ledger.LedgerAnchor, 1)
	select {
	case t.snapCh <- snapshotRequest{done: done}:
	case <-t.stopCh:
		return ledger.LedgerAnchor{}
	}
	return <-done
}

// FoldDigest returns the whole-ledger fold digest over the current
// snapshot.
func (t *LedgerTask) FoldDigest() [32]byte {
	return ledger.FoldOver(t.Snapshot().Entries)
}

// Stop terminates the owning goroutine. Safe to call at most once;
// Push/Snapshot calls racing a Stop return ErrTaskStopped / a zero value
// instead of blocking forever.
func (t *LedgerTask) Stop() {
	close(t.stopCh)
}
