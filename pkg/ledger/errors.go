// Copyright 2025 Certen Protocol
//
// Package ledger provides sentinel errors for ledger operations.

package ledger

import "errors"

// Sentinel errors for ledger operations.
var (
	// ErrDuplicateDigest is returned when push() is given a digest
	// already present in the target entry.
	ErrDuplicateDigest = errors.New("ledger: duplicate digest within entry")

	// ErrEmptyStatement is returned when push() is given an empty
	// statement string.
	ErrEmptyStatement = errors.New("ledger: statement must not be empty")

	// ErrGenesisStatement is returned when a caller attempts to push an
	// entry using the reserved genesis statement text.
	ErrGenesisStatement = errors.New("ledger: statement collides with reserved genesis entry")

	// ErrNotFound is returned when a requested entry index does not
	// exist in the ledger.
	ErrNotFound = errors.New("ledger: entry not found")
)
