// Copyright 2025 Certen Protocol
//
// Package ingest is the envelope receive path: parsing and verifying the
// jrocnet.envelope.v1 wire format, suppressing duplicates and runaway
// senders, and folding surviving anchors into the quorum contribution
// set.

package ingest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrochub/powerhouse/pkg/ledger"
)

// SupportedSchemaMajor is the highest jrocnet.envelope.v1 schema_version
// this node accepts.
const SupportedSchemaMajor = 1

// Sentinel errors for the envelope-invalid class: schema, signature,
// size, and rate-limit violations are all reported through these so
// callers can distinguish them with errors.Is without parsing error
// strings.
var (
	ErrSchemaVersion  = errors.New("ingest: unsupported envelope schema_version")
	ErrBadSignature   = errors.New("ingest: envelope signature does not verify")
	ErrEnvelopeTooBig = errors.New("ingest: envelope exceeds the configured size cap")
	ErrTooManyEntries = errors.New("ingest: anchor exceeds the configured entry cap")
	ErrRateLimited    = errors.New("ingest: sender exceeded the per-namespace rate limit")
)

// Envelope is the decoded, not-yet-verified form of jrocnet.envelope.v1.
type Envelope struct {
	Schema        string
	SchemaVersion int
	PublicKey     ed25519.PublicKey
	NodeID        string
	Payload       []byte
	Signature     []byte
}

type envelopeJSON struct {
	Schema        string `json:"schema"`
	SchemaVersion int    `json:"schema_version"`
	PublicKey     string `json:"public_key"`
	NodeID        string `json:"node_id"`
	Payload       string `json:"payload"`
	Signature     string `json:"signature"`
}

// ParseEnvelope decodes raw bytes as jrocnet.envelope.v1, rejecting
// anything over maxBytes before touching the JSON decoder (a maxBytes of
// 0 disables the check).
func ParseEnvelope(raw []byte, maxBytes int) (Envelope, error) {
	if maxBytes > 0 && len(raw) > maxBytes {
		return Envelope{}, ErrEnvelopeTooBig
	}

	var ej envelopeJSON
	if err := json.Unmarshal(raw, &ej); err != nil {
		return Envelope{}, fmt.Errorf("ingest: decode envelope: %w", err)
	}
	if ej.SchemaVersion > SupportedSchemaMajor {
		return Envelope{}, ErrSchemaVersion
	}

	pub, err := base64.StdEncoding.DecodeString(ej.PublicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return Envelope{}, fmt.Errorf("ingest: decode public_key: %w", errOrBadSize(err))
	}
	payload, err := base64.StdEncoding.DecodeString(ej.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("ingest: decode payload: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(ej.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return Envelope{}, fmt.Errorf("ingest: decode signature: %w", errOrBadSize(err))
	}

	return Envelope{
		Schema:        ej.Schema,
		SchemaVersion: ej.SchemaVersion,
		PublicKey:     ed25519.PublicKey(pub),
		NodeID:        ej.NodeID,
		Payload:       payload,
		Signature:     sig,
	}, nil
}

func errOrBadSize(err error) error {
	if err != nil {
		return err
	}
	return errors.New("wrong length")
}

// Verify checks the envelope's ed25519 signature over its payload.
func (e Envelope) Verify() error {
	if !ed25519.Verify(e.PublicKey, e.Payload, e.Signature) {
		return ErrBadSignature
	}
	return nil
}

// DigestPayload is the SHA-256 digest of the envelope's canonical
// payload bytes, the key duplicate suppression is keyed on.
func (e Envelope) DigestPayload() [32]byte {
	return sha256.Sum256(e.Payload)
}

// DecodeAnchor parses the envelope payload as a jrocnet.anchor.v1
// document, rejecting one with more than maxEntries entries (a maxEntries
// of 0 disables the check).
func (e Envelope) DecodeAnchor(maxEntries int) (ledger.AnchorDocument, error) {
	var doc ledger.AnchorDocument
	if err := json.Unmarshal(e.Payload, &doc); err != nil {
		return ledger.AnchorDocument{}, fmt.Errorf("ingest: decode anchor payload: %w", err)
	}
	if maxEntries > 0 && len(doc.Entries) > maxEntries {
		return ledger.AnchorDocument{}, ErrTooManyEntries
	}
	return doc, nil
}
