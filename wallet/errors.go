// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import "errors"

var (
	// ErrDuplicateKey is returned when two known keys sit at the same
	// path.
	ErrDuplicateKey = errors.New("duplicate known key path")

	// ErrPrivateKnownKey is returned when a known key is an extended
	// private key.
	ErrPrivateKnownKey = errors.New("known key must be public")

	// ErrPubKeyMismatch is returned when the key derived for a path does
	// not match the key recorded in the psbt.
	ErrPubKeyMismatch = errors.New("derived key does not match psbt key")

	// ErrUnsupportedScript is returned for an input script the signer
	// cannot produce a signature for.
	ErrUnsupportedScript = errors.New("unsupported input script")

	// ErrMultisigMismatch is returned when a multisig input does not
	// belong to the configured multisig wallet.
	ErrMultisigMismatch = errors.New("input does not match multisig " +
		"wallet")

	// ErrNoMultisigWallet is returned when a multisig input is checked
	// without a multisig wallet in the parse context.
	ErrNoMultisigWallet = errors.New("no multisig wallet configured")
)
