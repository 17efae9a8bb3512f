// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multisig

import "errors"

var (
	// ErrMalformedLine is returned for a descriptor line without a colon.
	ErrMalformedLine = errors.New("line is not a key: value pair")

	// ErrUnknownKey is returned for a key that is neither a known field
	// nor a signer fingerprint.
	ErrUnknownKey = errors.New("unknown key")

	// ErrUnknownFormat is returned for an unsupported Format value.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrMissingPolicy is returned when the descriptor has no Policy line.
	ErrMissingPolicy = errors.New("missing policy")

	// ErrInvalidPolicy is returned for a policy that is not "M of N" with
	// 1 <= M <= N <= MaxSigners.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrNoDerivation is returned for a signer line that appears before
	// any Derivation line.
	ErrNoDerivation = errors.New("signer listed before any derivation")

	// ErrSignerCount is returned when the number of signers differs from
	// the policy total.
	ErrSignerCount = errors.New("signer count mismatch")

	// ErrDuplicateSigner is returned when a fingerprint or key is listed
	// twice.
	ErrDuplicateSigner = errors.New("duplicate signer")

	// ErrMixedNetworks is returned when signer keys or derivations belong
	// to different networks.
	ErrMixedNetworks = errors.New("signers belong to different networks")

	// ErrDepthMismatch is returned when a signer key does not sit at the
	// depth of its derivation.
	ErrDepthMismatch = errors.New("key depth does not match derivation")

	// ErrPrivateKey is returned when a signer line holds a private key.
	ErrPrivateKey = errors.New("signer key is private")
)
