// Copyright 2025 Certen Protocol

package main

import (
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/jrochub/powerhouse/pkg/identity"
)

func cmdGenerateIdentity(args []string) error {
	fs := flag.NewFlagSet("generate-identity", flag.ExitOnError)
	keyPath := fs.String("key-path", "./data/identity.key", "path to load or create the ed25519 identity file")
	promptPass := fs.Bool("passphrase-prompt", false, "prompt for a passphrase to encrypt the key at rest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var passphrase []byte
	if *promptPass {
		p, err := identity.PromptPassphrase("identity passphrase: ")
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		passphrase = p
	}

	km := identity.NewKeyManager(*keyPath)
	if err := km.LoadOrGenerate(passphrase); err != nil {
		return fmt.Errorf("load or generate identity: %w", err)
	}

	pub := km.PublicKeyBytes()
	fmt.Printf("public_key: %s\nkey_path:   %s\n", hex.EncodeToString(pub[:]), *keyPath)
	return nil
}
