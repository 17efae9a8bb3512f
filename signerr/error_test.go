// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// errCause is a stand-in for a lower level failure.
var errCause = errors.New("cause")

// TestErrorCodeStringer ensures every defined code has a name.
func TestErrorCodeStringer(t *testing.T) {
	t.Parallel()

	for c := ErrorCode(0); c < numErrorCodes; c++ {
		_, ok := errorCodeStrings[c]
		require.Truef(t, ok, "code %d has no name", int(c))
	}

	require.Equal(t, "NoMyInputs", ErrNoMyInputs.String())
	require.Equal(t, "Unknown ErrorCode (9999)", ErrorCode(9999).String())
}

// TestIsError checks code matching through wrapping layers.
func TestIsError(t *testing.T) {
	t.Parallel()

	base := New(ErrInvalidInput, "input 0 has no utxo", errCause)
	wrapped := fmt.Errorf("parse failed: %w", base)

	require.True(t, IsError(base, ErrInvalidInput))
	require.True(t, IsError(wrapped, ErrInvalidInput))
	require.False(t, IsError(wrapped, ErrInvalidOutput))
	require.False(t, IsError(errCause, ErrInvalidInput))
	require.ErrorIs(t, wrapped, errCause)

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	require.Equal(t, ErrInvalidInput, code)

	_, ok = CodeOf(errCause)
	require.False(t, ok)
}

// TestErrorMessage checks the rendered message with and without a cause.
func TestErrorMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "NoInputs: empty transaction",
		Newf(ErrNoInputs, "empty %s", "transaction").Error())
	require.Equal(t, "SignFailure: bad key: cause",
		New(ErrSignFailure, "bad key", errCause).Error())
}

// TestIsErrorNested checks that a cause carrying its own code matches.
func TestIsErrorNested(t *testing.T) {
	t.Parallel()

	inner := New(ErrInvalidHDPath, "component 1", errCause)
	outer := New(ErrMultiSigWalletParse, "line 4", inner)

	require.True(t, IsError(outer, ErrMultiSigWalletParse))
	require.True(t, IsError(outer, ErrInvalidHDPath))
	require.False(t, IsError(outer, ErrSignFailure))

	code, ok := CodeOf(outer)
	require.True(t, ok)
	require.Equal(t, ErrMultiSigWalletParse, code)
}
