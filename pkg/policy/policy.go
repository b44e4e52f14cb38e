// Copyright 2025 Certen Protocol
//
// Package policy implements the three membership-policy variants that
// gate quorum contributions: static, multisig, and stake. All three
// share one small interface rather than a class hierarchy.

package policy

// PublicKey is a raw ed25519 public key.
type PublicKey [32]byte

// Policy is the capability every membership variant implements.
type Policy interface {
	// IsAuthorized reports whether pk is currently a member in good
	// standing.
	IsAuthorized(pk PublicKey) bool
	// Snapshot returns the current set of authorized public keys.
	Snapshot() map[PublicKey]struct{}
}
