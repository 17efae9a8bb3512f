// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package waddrmgr

import "errors"

var (
	// errEmptyComponent is returned for a path with an empty component,
	// e.g. "m//0" or a trailing slash.
	errEmptyComponent = errors.New("empty path component")

	// errNonNumericComponent is returned for a component that is not a
	// decimal index with at most one hardened marker.
	errNonNumericComponent = errors.New("non-numeric path component")

	// errIndexOutOfRange is returned for an index that already has the
	// hardened bit set.
	errIndexOutOfRange = errors.New("path index out of range")

	// ErrHardenedFromPublic is returned when a hardened child is requested
	// from an extended public key.
	ErrHardenedFromPublic = errors.New("cannot derive a hardened key " +
		"from a public key")

	// ErrUnknownKeyVersion is returned for an extended key whose version
	// bytes are not one of the known public or private key IDs.
	ErrUnknownKeyVersion = errors.New("unknown extended key version")

	// ErrUnsupportedScope is returned when a derivation path does not start
	// with one of the standard purpose/coin combinations.
	ErrUnsupportedScope = errors.New("unsupported key scope")

	// ErrNoSegwit is returned when a segwit address is requested on a
	// network without a segwit human readable part.
	ErrNoSegwit = errors.New("network has no segwit support")

	// ErrInvalidCashAddr is returned for a malformed CashAddr string.
	ErrInvalidCashAddr = errors.New("invalid cashaddr")
)
