// Copyright 2025 Certen Protocol
//
// Attestors sign a blob's AttestationMessage (namespace, content hash
// and share_root) once they hold a copy of its shares; a quorum certificate aggregates enough valid signatures to
// let a rollup trust the blob is available without fetching it itself.

package da

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jrochub/powerhouse/pkg/policy"
)

// AttestationMessage is the canonical byte string attestors sign: the
// namespace, the blob's content hash, and its share_root, so a
// signature cannot be replayed across blobs or namespaces.
func AttestationMessage(namespace string, hash, shareRoot [32]byte) []byte {
	msg := make([]byte, 0, len(namespace)+64)
	msg = append(msg, []byte(namespace)...)
	msg = append(msg, hash[:]...)
	msg = append(msg, shareRoot[:]...)
	return msg
}

// Attestation is one attestor's signature over an AttestationMessage.
type Attestation struct {
	PublicKey policy.PublicKey
	Signature []byte
}

// QC is an attestation quorum certificate: enough distinct authorized
// attestors vouching for a blob's availability to cross the configured
// threshold.
type QC struct {
	Namespace    string
	Hash         [32]byte
	ShareRoot    [32]byte
	Attestations []Attestation
}

// AddAttestation verifies att against the canonical message and, if
// valid and from an authorized signer, appends it to qc (replacing any
// prior attestation from the same public key). It reports whether the
// attestation was accepted.
func (qc *QC) AddAttestation(pol policy.Policy, att Attestation) bool {
	if !pol.IsAuthorized(att.PublicKey) {
		return false
	}
	msg := AttestationMessage(qc.Namespace, qc.Hash, qc.ShareRoot)
	if !ed25519.Verify(ed25519.PublicKey(att.PublicKey[:]), msg, att.Signature) {
		return false
	}
	for i, existing := range qc.Attestations {
		if existing.PublicKey == att.PublicKey {
			qc.Attestations[i] = att
			return true
		}
	}
	qc.Attestations = append(qc.Attestations, att)
	return true
}

// Satisfied reports whether qc has reached the attestor threshold q.
func (qc *QC) Satisfied(q int) bool {
	return len(qc.Attestations) >= q
}

type qcFile struct {
	Namespace    string          `json:"namespace"`
	Hash         string          `json:"hash"`
	ShareRoot    string          `json:"share_root"`
	Attestations []attestationJS `json:"attestations"`
}

type attestationJS struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// SaveQC persists a quorum certificate alongside its blob.
func (s *Store) SaveQC(qc QC) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := qcFile{
		Namespace: qc.Namespace,
		Hash:      hex.EncodeToString(qc.Hash[:]),
		ShareRoot: hex.EncodeToString(qc.ShareRoot[:]),
	}
	for _, a := range qc.Attestations {
		f.Attestations = append(f.Attestations, attestationJS{
			PublicKey: hex.EncodeToString(a.PublicKey[:]),
			Signature: hex.EncodeToString(a.Signature),
		})
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("da: marshal quorum certificate: %w", err)
	}
	path := s.qcPath(qc.Namespace, qc.Hash)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("da: write quorum certificate: %w", err)
	}
	return nil
}

// LoadQC reads a previously persisted quorum certificate.
func (s *Store) LoadQC(namespace string, hash [32]byte) (QC, error) {
	data, err := os.ReadFile(s.qcPath(namespace, hash))
	if err != nil {
		if os.IsNotExist(err) {
			return QC{Namespace: namespace, Hash: hash}, nil
		}
		return QC{}, fmt.Errorf("da: read quorum certificate: %w", err)
	}

	var f qcFile
	if err := json.Unmarshal(data, &f); err != nil {
		return QC{}, fmt.Errorf("da: unmarshal quorum certificate: %w", err)
	}
	qc := QC{Namespace: f.Namespace}
	if err := decodeHex32(f.Hash, &qc.Hash); err != nil {
		return QC{}, fmt.Errorf("da: decode hash: %w", err)
	}
	if err := decodeHex32(f.ShareRoot, &qc.ShareRoot); err != nil {
		return QC{}, fmt.Errorf("da: decode share_root: %w", err)
	}
	for _, a := range f.Attestations {
		var pk policy.PublicKey
		if err := decodeHex32(a.PublicKey, (*[32]byte)(&pk)); err != nil {
			return QC{}, fmt.Errorf("da: decode attestor public key: %w", err)
		}
		sig, err := hex.DecodeString(a.Signature)
		if err != nil {
			return QC{}, fmt.Errorf("da: decode attestor signature: %w", err)
		}
		qc.Attestations = append(qc.Attestations, Attestation{PublicKey: pk, Signature: sig})
	}
	return qc, nil
}
