// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package btcunit provides display and arithmetic helpers for bitcoin
// amounts, transaction sizes and fee rates.
package btcunit

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// satoshiExp is the decimal exponent of one satoshi in whole coins.
const satoshiExp = -8

// FormatAmount renders a satoshi value in whole coins followed by the unit,
// without trailing zeros, e.g. 4000 sat in tBTC is "0.00004 tBTC".
func FormatAmount(sats uint64, unit string) string {
	coins := decimal.NewFromBigInt(new(big.Int).SetUint64(sats), satoshiExp)

	return coins.String() + " " + unit
}
