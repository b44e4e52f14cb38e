// Copyright 2025 Certen Protocol

package da

import "errors"

var (
	// ErrShareMissing is returned when a requested share is absent from
	// the store, e.g. after it was pruned following a detected fault.
	ErrShareMissing = errors.New("da: share missing")

	// ErrCommitmentNotFound is returned when no commitment exists for a
	// (namespace, hash) pair.
	ErrCommitmentNotFound = errors.New("da: commitment not found")

	// ErrQCInsufficient is returned when an attestation quorum
	// certificate does not meet the configured attestor threshold.
	ErrQCInsufficient = errors.New("da: insufficient attestations for quorum certificate")

	// ErrIngressFrozen is returned when a submission arrives while the
	// node is in migration freeze mode.
	ErrIngressFrozen = errors.New("da: ingress frozen for migration")

	// ErrRollupFault is returned when a rollup settlement's claimed
	// commitment roots do not match the stored commitment.
	ErrRollupFault = errors.New("da: rollup settlement roots do not match stored commitment")
)
