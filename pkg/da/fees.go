// Copyright 2025 Certen Protocol
//
// Fee flow for blob submissions: the publisher pays a flat fee on
// ingest, the operator takes a configurable basis-point cut
// immediately, and the remainder stays escrowed on the commitment
// until the blob's quorum certificate fills, at which point it is
// split among the QC's attestors proportionally to their bonded stake.

package da

import (
	"fmt"

	"github.com/jrochub/powerhouse/pkg/policy"
)

// DefaultOperatorRewardBps is the operator's cut of a submission fee in
// basis points (parts per 10,000) when no override is configured.
const DefaultOperatorRewardBps = 2000

// IngestFee debits fee from publisher's balance and credits the
// operator's rewardBps cut. The remainder is returned for the caller to
// escrow on the commitment; it is paid out to attestors when their
// signatures land on the quorum certificate.
func IngestFee(stake *policy.Stake, publisher, operator policy.PublicKey, fee, rewardBps uint64) (uint64, error) {
	if fee == 0 {
		return 0, nil
	}
	if !stake.DebitFee(publisher, fee) {
		return 0, fmt.Errorf("da: publisher has insufficient balance for fee %d", fee)
	}

	operatorCut := fee * rewardBps / 10000
	stake.CreditBalance(operator, operatorCut)
	return fee - operatorCut, nil
}

// DistributeRemainder splits an escrowed fee remainder across qc's
// attestors, weighted by each attestor's bonded stake. Attestors absent
// from the registry or with zero bonded stake earn nothing; if no
// attestor carries bonded stake the whole remainder falls back to the
// operator, as does the integer-division dust.
func DistributeRemainder(stake *policy.Stake, operator policy.PublicKey, qc QC, remainder uint64) {
	if remainder == 0 {
		return
	}

	totalBonded := uint64(0)
	bonded := make(map[policy.PublicKey]uint64, len(qc.Attestations))
	for _, a := range qc.Attestations {
		entry, ok := stake.Entry(a.PublicKey)
		if !ok {
			continue
		}
		bonded[a.PublicKey] = entry.Bonded
		totalBonded += entry.Bonded
	}
	if totalBonded == 0 {
		stake.CreditBalance(operator, remainder)
		return
	}

	distributed := uint64(0)
	for pk, b := range bonded {
		share := remainder * b / totalBonded
		stake.CreditBalance(pk, share)
		distributed += share
	}
	if dust := remainder - distributed; dust > 0 {
		stake.CreditBalance(operator, dust)
	}
}
