// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package signerr defines the error kinds surfaced by the signing core.
//
// Every fallible operation in the core returns an Error carrying one of the
// ErrorCode values below, a short human readable description and, where one
// exists, the lower level cause. Callers are expected to branch on the code
// (see IsError) and render the description, never to parse the message text.
package signerr

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrInvalidInput indicates a structurally malformed PSBT input, or an
	// input lacking the metadata needed to interpret it.
	ErrInvalidInput ErrorCode = iota

	// ErrInvalidOutput indicates a structurally malformed PSBT output.
	ErrInvalidOutput

	// ErrNoInputs indicates a transaction without any input.
	ErrNoInputs

	// ErrNoOutputs indicates a transaction without any output.
	ErrNoOutputs

	// ErrNoMyInputs indicates that none of the inputs can be derived from
	// the supplied parse context, so there is nothing to sign.
	ErrNoMyInputs

	// ErrInvalidTransaction indicates a violated value invariant (such as a
	// negative fee) or an unrecognized network.
	ErrInvalidTransaction

	// ErrInvalidHDPath indicates a malformed derivation path, or a hardened
	// step requested from a public-only key.
	ErrInvalidHDPath

	// ErrAddress indicates that a payload could not be mapped to an
	// address.
	ErrAddress

	// ErrGetKey indicates that a key could not be parsed or derived.
	ErrGetKey

	// ErrMultiSigWalletParse indicates a malformed multisig wallet
	// descriptor.
	ErrMultiSigWalletParse

	// ErrMultiSigWalletAddressCal indicates a failure to compute a
	// multisig address from a parsed wallet.
	ErrMultiSigWalletAddressCal

	// ErrMultiSigWalletCrate indicates a failure to assemble a multisig
	// wallet from otherwise well formed parts.
	ErrMultiSigWalletCrate

	// ErrMultiSigWalletNotMine indicates a multisig wallet that does not
	// include the selecting master fingerprint.
	ErrMultiSigWalletNotMine

	// ErrSignFailure indicates that the signing primitive rejected its
	// input or that a derived key did not match the PSBT metadata.
	ErrSignFailure

	// ErrBech32Decode indicates a bech32 or bech32m encoding failure.
	ErrBech32Decode

	// ErrBase58 indicates a base58check encoding failure.
	ErrBase58

	// ErrWitnessProgram indicates an invalid witness version or program.
	ErrWitnessProgram

	// ErrInvalidPsbt indicates that the raw PSBT bytes could not be
	// decoded or re-encoded.
	ErrInvalidPsbt

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInvalidInput:             "InvalidInput",
	ErrInvalidOutput:            "InvalidOutput",
	ErrNoInputs:                 "NoInputs",
	ErrNoOutputs:                "NoOutputs",
	ErrNoMyInputs:               "NoMyInputs",
	ErrInvalidTransaction:       "InvalidTransaction",
	ErrInvalidHDPath:            "InvalidHDPath",
	ErrAddress:                  "AddressError",
	ErrGetKey:                   "GetKeyError",
	ErrMultiSigWalletParse:      "MultiSigWalletParseError",
	ErrMultiSigWalletAddressCal: "MultiSigWalletAddressCalError",
	ErrMultiSigWalletCrate:      "MultiSigWalletCrateError",
	ErrMultiSigWalletNotMine:    "MultiSigWalletNotMine",
	ErrSignFailure:              "SignFailure",
	ErrBech32Decode:             "Bech32DecodeError",
	ErrBase58:                   "Base58Error",
	ErrWitnessProgram:           "WitnessProgramError",
	ErrInvalidPsbt:              "InvalidPsbt",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}

	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a signing core error. It has an error code, a descriptive
// message and an optional underlying cause.
type Error struct {
	Code ErrorCode
	Desc string
	Err  error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Code, e.Desc, e.Err)
	}

	return fmt.Sprintf("%v: %s", e.Code, e.Desc)
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

// New creates an Error given a set of arguments.
func New(c ErrorCode, desc string, err error) Error {
	return Error{Code: c, Desc: desc, Err: err}
}

// Newf creates an Error without a cause and a formatted description.
func Newf(c ErrorCode, format string, args ...any) Error {
	return Error{Code: c, Desc: fmt.Sprintf(format, args...)}
}

// IsError returns whether the error is an Error with a matching error code.
// Wrapped errors are inspected as well, so an Error nested as the cause of
// another Error matches too.
func IsError(err error, code ErrorCode) bool {
	for err != nil {
		var e Error
		if !errors.As(err, &e) {
			return false
		}

		if e.Code == code {
			return true
		}

		err = e.Err
	}

	return false
}

// CodeOf returns the code of the outermost Error in err's chain. The second
// return value is false if err does not carry an Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e Error
	if !errors.As(err, &e) {
		return 0, false
	}

	return e.Code, true
}
