// Copyright 2025 Certen Protocol
//
// Engine wires together blob storage, the stake-weighted membership
// policy, fee settlement, and fault-evidence reporting into the single
// object the HTTP surface and cmd/jrocnode drive.

package da

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jrochub/powerhouse/pkg/evidence"
	"github.com/jrochub/powerhouse/pkg/policy"
)

// Engine is the data-availability node's runtime state.
type Engine struct {
	store        *Store
	stake        *policy.Stake
	pol          policy.Policy
	outbox       *evidence.Outbox
	operator     policy.PublicKey
	quorum       int
	maxBlobBytes int
	rewardBps    uint64

	frozen atomic.Bool
}

// NewEngine builds a data-availability engine. pol authorizes
// attestors; it may be the same object as stake, or a different
// policy if attestors are governed separately from fee accounting.
// The blob size cap starts at DefaultMaxBlobBytes; SetMaxBlobBytes
// overrides it.
func NewEngine(store *Store, stake *policy.Stake, pol policy.Policy, outbox *evidence.Outbox, operator policy.PublicKey, quorum int) *Engine {
	return &Engine{
		store:        store,
		stake:        stake,
		pol:          pol,
		outbox:       outbox,
		operator:     operator,
		quorum:       quorum,
		maxBlobBytes: DefaultMaxBlobBytes,
		rewardBps:    DefaultOperatorRewardBps,
	}
}

// SetMaxBlobBytes overrides the blob size cap; values <= 0 restore the
// default.
func (e *Engine) SetMaxBlobBytes(n int) {
	if n <= 0 {
		n = DefaultMaxBlobBytes
	}
	e.maxBlobBytes = n
}

// SetOperatorRewardBps overrides the operator's basis-point cut of each
// submission fee; values over 10000 are clamped to the whole fee.
func (e *Engine) SetOperatorRewardBps(bps uint64) {
	if bps > 10000 {
		bps = 10000
	}
	e.rewardBps = bps
}

// SetFrozen toggles migration-mode ingress freeze: while frozen,
// SubmitBlob refuses new blobs but reads (commitment lookup, sampling,
// storage proofs) keep working.
func (e *Engine) SetFrozen(frozen bool) {
	e.frozen.Store(frozen)
}

// Frozen reports the current ingress freeze state.
func (e *Engine) Frozen() bool {
	return e.frozen.Load()
}

// SubmitBlob ingests a new blob: validates size, splits shares,
// computes the dual commitment, persists it, and settles the
// publisher's fee. Resubmitting an already-stored blob is a no-op
// that returns the existing commitment without charging a second fee.
func (e *Engine) SubmitBlob(namespace string, payload []byte, shardSize int, publisher policy.PublicKey, fee uint64) (Commitment, error) {
	if e.Frozen() {
		return Commitment{}, ErrIngressFrozen
	}
	if err := CheckSize(payload, e.maxBlobBytes); err != nil {
		return Commitment{}, err
	}

	c, shares, err := Commit(namespace, payload, shardSize)
	if err != nil {
		return Commitment{}, err
	}
	if e.store.Has(namespace, c.Hash) {
		return e.store.GetCommitment(namespace, c.Hash)
	}
	if e.stake != nil {
		remainder, err := IngestFee(e.stake, publisher, e.operator, fee, e.rewardBps)
		if err != nil {
			return Commitment{}, err
		}
		c.FeeRemainder = remainder
	}
	if err := e.store.Put(c, shares); err != nil {
		return Commitment{}, err
	}
	return c, nil
}

// Attest records one attestor's signature toward a blob's quorum
// certificate and persists the updated QC. Once the certificate
// reaches the attestor threshold, the fee remainder escrowed at ingest
// is paid out to the QC's attestors by bonded stake and the escrow
// drops to zero.
func (e *Engine) Attest(namespace string, hash [32]byte, att Attestation) (QC, error) {
	c, err := e.store.GetCommitment(namespace, hash)
	if err != nil {
		return QC{}, ErrCommitmentNotFound
	}
	qc, err := e.store.LoadQC(namespace, hash)
	if err != nil {
		return QC{}, err
	}
	qc.Namespace = namespace
	qc.Hash = hash
	qc.ShareRoot = c.ShareRoot

	if !qc.AddAttestation(e.pol, att) {
		return qc, fmt.Errorf("da: attestation rejected: unauthorized signer or bad signature")
	}
	if err := e.store.SaveQC(qc); err != nil {
		return qc, err
	}

	if e.stake != nil && c.FeeRemainder > 0 && qc.Satisfied(e.quorum) {
		DistributeRemainder(e.stake, e.operator, qc, c.FeeRemainder)
		if err := e.store.SetFeeRemainder(namespace, hash, 0); err != nil {
			return qc, fmt.Errorf("da: clear fee escrow: %w", err)
		}
	}
	return qc, nil
}

// Sample draws a random subset of a blob's shares with inclusion
// proofs. A missing share raises blob-missing fault evidence before
// the error is returned to the caller.
func (e *Engine) Sample(namespace string, hash [32]byte, count int) ([]Sampled, error) {
	c, err := e.store.GetCommitment(namespace, hash)
	if err != nil {
		return nil, ErrCommitmentNotFound
	}
	samples, err := e.store.Sample(namespace, hash, c, count)
	if err != nil && errors.Is(err, ErrShareMissing) {
		e.raiseFault(evidence.KindBlobMissing, namespace, hash)
	}
	return samples, err
}

// ProveStorage returns an inclusion proof for one share index.
func (e *Engine) ProveStorage(namespace string, hash [32]byte, index int) (Sampled, error) {
	c, err := e.store.GetCommitment(namespace, hash)
	if err != nil {
		return Sampled{}, ErrCommitmentNotFound
	}
	s, err := e.store.ProveStorage(namespace, hash, c, index)
	if err != nil && errors.Is(err, ErrShareMissing) {
		e.raiseFault(evidence.KindBlobMissing, namespace, hash)
	}
	return s, err
}

// RollupSettle checks a rollup's claimed commitment roots against the
// stored commitment and reports whether the blob's quorum certificate
// has reached the configured attestor threshold. A root mismatch
// appends rollup-fault evidence and returns ErrRollupFault.
func (e *Engine) RollupSettle(namespace string, hash [32]byte, shareRoot, pedersenRoot [32]byte) (QC, bool, error) {
	c, err := e.store.GetCommitment(namespace, hash)
	if err != nil {
		return QC{}, false, ErrCommitmentNotFound
	}
	if c.ShareRoot != shareRoot || c.PedersenRoot != pedersenRoot {
		e.raiseFault(evidence.KindRollupFault, namespace, hash)
		return QC{}, false, ErrRollupFault
	}
	qc, err := e.store.LoadQC(namespace, hash)
	if err != nil {
		return QC{}, false, err
	}
	return qc, qc.Satisfied(e.quorum), nil
}

func (e *Engine) raiseFault(kind evidence.Kind, namespace string, hash [32]byte) {
	if e.outbox == nil {
		return
	}
	_ = e.outbox.Append(evidence.Record{
		Kind:           kind,
		Namespace:      namespace,
		CommitmentHash: hex.EncodeToString(hash[:]),
	})
}
