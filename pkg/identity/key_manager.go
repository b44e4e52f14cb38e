// Copyright 2025 Certen Protocol
//
// Package identity manages a node's ed25519 signing key: load-or-
// generate, hex-encoded key file, 0600/0700 permissions, with optional
// XOR-with-passphrase encryption at rest.

package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// KeyManager owns one ed25519 identity key, optionally persisted
// encrypted at rest.
type KeyManager struct {
	keyPath string
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// NewKeyManager creates a manager for the key file at keyPath. An empty
// keyPath means the key is held in memory only.
func NewKeyManager(keyPath string) *KeyManager {
	return &KeyManager{keyPath: keyPath}
}

// LoadOrGenerate loads the existing key file, or generates and (if a
// path was configured) persists a new one.
func (km *KeyManager) LoadOrGenerate(passphrase []byte) error {
	if km.keyPath != "" {
		if _, err := os.Stat(km.keyPath); err == nil {
			return km.Load(passphrase)
		}
	}
	return km.Generate(passphrase)
}

// Generate creates a fresh ed25519 key pair and persists it if a key
// path was configured.
func (km *KeyManager) Generate(passphrase []byte) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("identity: generate key: %w", err)
	}
	km.private = priv
	km.public = pub

	if km.keyPath != "" {
		return km.Save(passphrase)
	}
	return nil
}

// mask derives the 32-byte XOR mask from a passphrase: the first 32
// bytes of SHA-512(passphrase).
func mask(passphrase []byte) [32]byte {
	sum := sha512.Sum512(passphrase)
	var m [32]byte
	copy(m[:], sum[:32])
	return m
}

func xorSeed(seed []byte, m [32]byte) []byte {
	out := make([]byte, len(seed))
	for i := range seed {
		out[i] = seed[i] ^ m[i]
	}
	return out
}

// Save writes the current private key to km.keyPath, hex-encoded, and
// XORed against the passphrase mask if passphrase is non-empty.
func (km *KeyManager) Save(passphrase []byte) error {
	if km.keyPath == "" {
		return fmt.Errorf("identity: no key path configured")
	}
	if km.private == nil {
		return fmt.Errorf("identity: no private key to save")
	}

	if err := os.MkdirAll(filepath.Dir(km.keyPath), 0700); err != nil {
		return fmt.Errorf("identity: create key directory: %w", err)
	}

	seed := km.private.Seed()
	stored := seed
	if len(passphrase) > 0 {
		stored = xorSeed(seed, mask(passphrase))
	}

	if err := os.WriteFile(km.keyPath, []byte(hex.EncodeToString(stored)), 0600); err != nil {
		return fmt.Errorf("identity: write key file: %w", err)
	}
	return nil
}

// Load reads km.keyPath and reverses the XOR mask if passphrase is
// non-empty.
func (km *KeyManager) Load(passphrase []byte) error {
	if km.keyPath == "" {
		return fmt.Errorf("identity: no key path configured")
	}

	data, err := os.ReadFile(km.keyPath)
	if err != nil {
		return fmt.Errorf("identity: read key file: %w", err)
	}
	stored, err := hex.DecodeString(string(data))
	if err != nil {
		return fmt.Errorf("identity: decode key hex: %w", err)
	}
	if len(stored) != ed25519.SeedSize {
		return fmt.Errorf("identity: key file has %d bytes, want %d", len(stored), ed25519.SeedSize)
	}

	seed := stored
	if len(passphrase) > 0 {
		seed = xorSeed(stored, mask(passphrase))
	}

	km.private = ed25519.NewKeyFromSeed(seed)
	km.public = km.private.Public().(ed25519.PublicKey)
	return nil
}

// Sign signs message with the loaded private key.
func (km *KeyManager) Sign(message []byte) ([]byte, error) {
	if km.private == nil {
		return nil, fmt.Errorf("identity: no private key loaded")
	}
	return ed25519.Sign(km.private, message), nil
}

// PublicKeyBytes returns the raw 32-byte ed25519 public key.
func (km *KeyManager) PublicKeyBytes() [32]byte {
	var out [32]byte
	copy(out[:], km.public)
	return out
}

// PromptPassphrase reads a passphrase from the controlling terminal
// without echoing it, refusing to read from a non-terminal stdin so a
// piped or redirected invocation never silently treats other input as a
// passphrase.
func PromptPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("identity: refusing to read passphrase from a non-terminal stdin")
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("identity: read passphrase: %w", err)
	}
	return pass, nil
}
