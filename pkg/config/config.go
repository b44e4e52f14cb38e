// Copyright 2025 Certen Protocol
//
// Package config is the node's environment-variable-driven Load()/
// Validate() pair: every field has an explicit getEnv call with a
// default, and Validate() checks that the values cmd/jrocnode relies on
// are present and in range.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every environment-driven setting a jroc node needs.
type Config struct {
	// Identity
	NetworkID      string // gossip network identifier carried in every envelope/anchor
	NodeID         string
	DataDir        string // base directory for ledger KV, DA shares, evidence, identity file
	Ed25519KeyPath string // path to the node's (optionally encrypted) identity file

	// Server
	ListenAddr  string // DA HTTP surface + /healthz
	MetricsAddr string // /metrics
	APIKey      string // empty disables bearer/X-Api-Key auth

	// Field & challenge mode
	FieldPrime uint64 // p for pkg/field; must be an odd prime fitting 64 bits

	// Quorum / membership policy
	PolicyKind       string // "static" | "multisig" | "stake"
	QuorumThreshold  int    // q in Final(S, q)
	StakeBondMinimum uint64 // bond_threshold for the stake policy

	// Data availability
	ShardSizeBytes       int
	MaxBlobBytes         int
	BlobMaxConcurrency   int
	AttestationQuorum    int
	OperatorRewardBps    uint64 // operator's cut of each submission fee, in basis points
	OperatorPublicKeyHex string

	// Resource caps, enforced before decoding
	EnvelopeMaxBytes   int
	EnvelopeMaxEntries int
	MaxPerMinPerNS     int

	// Migration
	MigrationFreeze bool // migration_mode = freeze

	// Evidence outbox
	EvidenceOutboxPath string
}

// Load reads configuration from environment variables. It never fails —
// missing required values are reported by Validate(), called separately
// so callers (e.g. jrocctl subcommands that do not start a server) can
// skip validation they do not need.
func Load() (*Config, error) {
	cfg := &Config{
		NetworkID:      getEnv("JROC_NETWORK_ID", "devnet"),
		NodeID:         getEnv("JROC_NODE_ID", ""),
		DataDir:        getEnv("JROC_DATA_DIR", "./data"),
		Ed25519KeyPath: getEnv("JROC_IDENTITY_PATH", ""),

		ListenAddr:  getEnv("JROC_LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr: getEnv("JROC_METRICS_ADDR", "0.0.0.0:9090"),
		APIKey:      getEnv("JROC_API_KEY", ""),

		FieldPrime: getEnvUint64("JROC_FIELD_PRIME", 2305843009213693951), // 2^61 - 1, a Mersenne prime

		PolicyKind:       getEnv("JROC_POLICY_KIND", "static"),
		QuorumThreshold:  getEnvInt("JROC_QUORUM_THRESHOLD", 2),
		StakeBondMinimum: getEnvUint64("JROC_STAKE_BOND_MINIMUM", 1000),

		ShardSizeBytes:     getEnvInt("JROC_SHARD_SIZE_BYTES", 256*1024),
		MaxBlobBytes:       getEnvInt("JROC_MAX_BLOB_BYTES", 5*1024*1024),
		BlobMaxConcurrency: getEnvInt("JROC_BLOB_MAX_CONCURRENCY", 128),
		AttestationQuorum:  getEnvInt("JROC_ATTESTATION_QUORUM", 2),
		OperatorRewardBps:  getEnvUint64("JROC_OPERATOR_REWARD_BPS", 2000),

		OperatorPublicKeyHex: getEnv("JROC_OPERATOR_PUBLIC_KEY", ""),

		EnvelopeMaxBytes:   getEnvInt("JROC_ENVELOPE_MAX_BYTES", 64*1024),
		EnvelopeMaxEntries: getEnvInt("JROC_ENVELOPE_MAX_ENTRIES", 10000),
		MaxPerMinPerNS:     getEnvInt("JROC_MAX_PER_MIN", 60),

		MigrationFreeze: getEnvBool("JROC_MIGRATION_FREEZE", false),

		EvidenceOutboxPath: getEnv("JROC_EVIDENCE_OUTBOX", ""),
	}

	if cfg.NodeID == "" {
		cfg.NodeID = "jrocnode-local"
	}
	if cfg.Ed25519KeyPath == "" {
		cfg.Ed25519KeyPath = cfg.DataDir + "/identity.key"
	}
	if cfg.EvidenceOutboxPath == "" {
		cfg.EvidenceOutboxPath = cfg.DataDir + "/evidence.jsonl"
	}

	return cfg, nil
}

// Validate checks that every setting required to run cmd/jrocnode is
// present and internally consistent. jrocctl subcommands that only touch
// the ledger or migration packages do not need every field populated and
// should call the narrower checks directly instead.
func (c *Config) Validate() error {
	var errs []string

	if c.NetworkID == "" {
		errs = append(errs, "JROC_NETWORK_ID is required")
	}
	if c.DataDir == "" {
		errs = append(errs, "JROC_DATA_DIR is required")
	}
	if c.FieldPrime%2 == 0 {
		errs = append(errs, "JROC_FIELD_PRIME must be odd")
	}
	switch c.PolicyKind {
	case "static", "multisig", "stake":
	default:
		errs = append(errs, fmt.Sprintf("JROC_POLICY_KIND must be static, multisig, or stake (got %q)", c.PolicyKind))
	}
	if c.QuorumThreshold < 1 {
		errs = append(errs, "JROC_QUORUM_THRESHOLD must be >= 1")
	}
	if c.ShardSizeBytes <= 0 {
		errs = append(errs, "JROC_SHARD_SIZE_BYTES must be > 0")
	}
	if c.MaxBlobBytes <= 0 {
		errs = append(errs, "JROC_MAX_BLOB_BYTES must be > 0")
	}
	if c.OperatorRewardBps > 10000 {
		errs = append(errs, "JROC_OPERATOR_REWARD_BPS must be at most 10000")
	}
	if c.EnvelopeMaxBytes <= 0 || c.EnvelopeMaxEntries <= 0 {
		errs = append(errs, "JROC_ENVELOPE_MAX_BYTES and JROC_ENVELOPE_MAX_ENTRIES must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
