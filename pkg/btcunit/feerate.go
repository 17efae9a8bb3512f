// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcunit

import (
	"math"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
)

const (
	// kilo is a generic multiplier for kilo units.
	kilo = 1000

	// floatStringPrecision is the number of decimal places shown for a
	// fee rate, enough to keep sub-satoshi rates from rounding to zero.
	floatStringPrecision = 3
)

// SatPerVByte is a fee rate in sat/vbyte. It is stored as an exact
// satoshis per kilo-weight-unit ratio so that rates computed from a fee and a
// size keep their precision.
type SatPerVByte struct {
	satsPerKWU *big.Rat
}

// CalcSatPerVByte calculates the fee rate in sat/vb for a given fee and size.
// A zero size yields a zero rate.
func CalcSatPerVByte(fee btcutil.Amount, size VByte) SatPerVByte {
	if size.wu == 0 {
		return SatPerVByte{satsPerKWU: big.NewRat(0, 1)}
	}

	// (fee * 1000) / size_in_wu is the rate in sat/kwu.
	return SatPerVByte{satsPerKWU: big.NewRat(
		int64(fee*kilo), safeUint64ToInt64(size.wu),
	)}
}

// String returns the rate with three decimals, e.g. "4.712 sat/vb".
func (s SatPerVByte) String() string {
	vbRate := new(big.Rat).Mul(
		s.satsPerKWU, big.NewRat(blockchain.WitnessScaleFactor, kilo),
	)

	return vbRate.FloatString(floatStringPrecision) + " sat/vb"
}

// safeUint64ToInt64 converts a uint64 to an int64, capping at math.MaxInt64.
// Sizes are bounded by consensus, so the cap is never reached in practice.
func safeUint64ToInt64(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(u)
}
