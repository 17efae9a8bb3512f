// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("stdin is not a terminal")

// promptSecret prompts on stderr and reads a line without echo.
func promptSecret(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: use --mnemonicfile", errNoTerminal)
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return secret, nil
}

// normalizeMnemonic lower-cases a mnemonic and collapses its whitespace.
func normalizeMnemonic(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// readSeed returns the BIP39 seed of the wallet. The caller must clear it.
func (a *app) readSeed() ([]byte, error) {
	var raw []byte
	if a.cfg.MnemonicFile != "" {
		var err error
		raw, err = os.ReadFile(cleanAndExpandPath(a.cfg.MnemonicFile))
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		raw, err = a.prompt("Mnemonic: ")
		if err != nil {
			return nil, err
		}
	}
	mnemonic := normalizeMnemonic(string(raw))
	clear(raw)

	var passphrase string
	if a.cfg.Passphrase {
		secret, err := a.prompt("BIP39 passphrase: ")
		if err != nil {
			return nil, err
		}
		passphrase = string(secret)
		clear(secret)
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	return seed, nil
}
