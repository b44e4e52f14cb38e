package policy

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pkFrom(b byte) PublicKey {
	var pk PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func TestStaticAuthorization(t *testing.T) {
	a, b := pkFrom(1), pkFrom(2)
	s := NewStatic([]PublicKey{a})
	assert.True(t, s.IsAuthorized(a), "a should be authorized")
	assert.False(t, s.IsAuthorized(b), "b should not be authorized")
	assert.Len(t, s.Snapshot(), 1)
}

func TestMultisigRotationRequiresThreshold(t *testing.T) {
	signerPub1, signerPriv1, _ := ed25519.GenerateKey(nil)
	signerPub2, signerPriv2, _ := ed25519.GenerateKey(nil)
	_, outsiderPriv, _ := ed25519.GenerateKey(nil)

	var s1, s2 PublicKey
	copy(s1[:], signerPub1)
	copy(s2[:], signerPub2)

	m := NewMultisig(2, []PublicKey{s1, s2}, []PublicKey{s1})

	newMembers := []PublicKey{s1, s2}
	payload := RotationPayload(newMembers)

	// Only one valid signer signature: below threshold.
	sigs := map[PublicKey][]byte{
		s1: ed25519.Sign(signerPriv1, payload),
	}
	require.ErrorIs(t, m.Rotate(newMembers, sigs), ErrInsufficientSigners)

	// A signature from a non-signer never counts, even with two entries.
	sigs[s2] = ed25519.Sign(outsiderPriv, payload)
	require.ErrorIs(t, m.Rotate(newMembers, sigs), ErrInsufficientSigners)

	// Two valid signer signatures: rotation succeeds.
	sigs[s2] = ed25519.Sign(signerPriv2, payload)
	require.NoError(t, m.Rotate(newMembers, sigs))
	assert.True(t, m.IsAuthorized(s2), "s2 should be authorized after rotation")
}

func TestStakeAuthorizationRequiresBondAndNotSlashed(t *testing.T) {
	a := pkFrom(1)
	s := NewStake(100, []StakeEntry{{PublicKey: a, Balance: 500, Bonded: 150}})
	assert.True(t, s.IsAuthorized(a), "bonded >= threshold should authorize")

	b := pkFrom(2)
	s2 := NewStake(100, []StakeEntry{{PublicKey: b, Balance: 0, Bonded: 50}})
	assert.False(t, s2.IsAuthorized(b), "under-threshold bond must not authorize")
}

func TestStakeAutoSlashOnEquivocation(t *testing.T) {
	a := pkFrom(1)
	s := NewStake(100, []StakeEntry{{PublicKey: a, Balance: 0, Bonded: 200}})

	var d1, d2 [32]byte
	d1[0] = 0xAA
	d2[0] = 0xBB

	assert.False(t, s.ObserveSignature(5, a, d1), "first signature at a position must not slash")
	assert.True(t, s.IsAuthorized(a))

	// Signing the same digest again at the same position is not
	// equivocation.
	assert.False(t, s.ObserveSignature(5, a, d1), "repeating the same digest must not slash")

	// Signing a different digest at the same position is equivocation.
	assert.True(t, s.ObserveSignature(5, a, d2), "second distinct digest at same position must slash")
	assert.False(t, s.IsAuthorized(a), "a should no longer be authorized after slashing")
}

func TestStakeFeeFlow(t *testing.T) {
	publisher := pkFrom(1)
	operator := pkFrom(2)
	s := NewStake(0, []StakeEntry{
		{PublicKey: publisher, Balance: 100},
		{PublicKey: operator, Balance: 0},
	})

	require.True(t, s.DebitFee(publisher, 10))
	e, _ := s.Entry(publisher)
	assert.Equal(t, uint64(90), e.Balance)

	s.CreditBalance(operator, 2)
	opEntry, _ := s.Entry(operator)
	assert.Equal(t, uint64(2), opEntry.Balance)

	assert.False(t, s.DebitFee(publisher, 1000), "debit should fail when underfunded")
}
