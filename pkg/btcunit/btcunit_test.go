// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcunit

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestFormatAmount checks coin rendering without trailing zeros.
func TestFormatAmount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		sats     uint64
		unit     string
		expected string
	}{
		{5992, "tBTC", "0.00005992 tBTC"},
		{4000, "tBTC", "0.00004 tBTC"},
		{1992, "tBTC", "0.00001992 tBTC"},
		{0, "BTC", "0 BTC"},
		{1, "BTC", "0.00000001 BTC"},
		{100_000_000, "BTC", "1 BTC"},
		{2_100_000_000_000_000, "BTC", "21000000 BTC"},
		{123_456_789, "LTC", "1.23456789 LTC"},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expected, FormatAmount(tc.sats, tc.unit))
	}
}

// TestVByte checks the virtual size display.
func TestVByte(t *testing.T) {
	t.Parallel()

	require.Equal(t, "110 vb", NewVByte(110).String())
	require.Equal(t, uint64(250), NewVByte(250).Value())

	// A weight that is not a multiple of four rounds up.
	require.Equal(t, "169 vb", VByte{wu: 674}.String())
}

// TestSatPerVByte checks rate calculation and display.
func TestSatPerVByte(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		fee      int64
		size     uint64
		expected string
	}{
		// A 1992 sat fee on a 141 vb transaction.
		{1992, 141, "14.128 sat/vb"},
		{1992, 110, "18.109 sat/vb"},
		{200, 100, "2.000 sat/vb"},
		{1, 1, "1.000 sat/vb"},

		// A zero size yields a zero rate.
		{1000, 0, "0.000 sat/vb"},
	}

	for _, tc := range testCases {
		rate := CalcSatPerVByte(btcutil.Amount(tc.fee), NewVByte(tc.size))
		require.Equal(t, tc.expected, rate.String())
	}
}
