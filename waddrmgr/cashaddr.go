// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package waddrmgr

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// cashAddrCharset is the base32 alphabet shared with bech32.
	cashAddrCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

	// cashAddrChecksumLen is the number of 5 bit checksum groups.
	cashAddrChecksumLen = 8

	// cashAddrHashLen is the only hash size produced by this package, it
	// is encoded as size bits 0 in the version byte.
	cashAddrHashLen = 20

	cashAddrTypeP2PKH byte = 0
	cashAddrTypeP2SH  byte = 1
)

// cashAddrPolymod computes the 40 bit BCH checksum over 5 bit values.
func cashAddrPolymod(values []byte) uint64 {
	c := uint64(1)
	for _, d := range values {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)

		if c0&0x01 != 0 {
			c ^= 0x98f2bc8e61
		}
		if c0&0x02 != 0 {
			c ^= 0x79b76d99e2
		}
		if c0&0x04 != 0 {
			c ^= 0xf33e5fb3c4
		}
		if c0&0x08 != 0 {
			c ^= 0xae2eabe2a8
		}
		if c0&0x10 != 0 {
			c ^= 0x1e4f43e470
		}
	}

	return c ^ 1
}

// cashAddrPrefixValues expands the prefix to its checksum input, the low 5
// bits of each character followed by a zero separator.
func cashAddrPrefixValues(prefix string) []byte {
	values := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		values = append(values, prefix[i]&0x1f)
	}

	return append(values, 0)
}

// EncodeCashAddr encodes a 20 byte hash as a CashAddr string including the
// prefix, e.g. "bitcoincash:qpm2...". Only PubKeyHash and ScriptHash can be
// represented.
func EncodeCashAddr(prefix string, addrType AddressType,
	hash []byte) (string, error) {

	var kind byte
	switch addrType {
	case PubKeyHash:
		kind = cashAddrTypeP2PKH

	case ScriptHash:
		kind = cashAddrTypeP2SH

	default:
		return "", fmt.Errorf("%w: type %v", ErrInvalidCashAddr,
			addrType)
	}

	if len(hash) != cashAddrHashLen {
		return "", fmt.Errorf("%w: hash length %d", ErrInvalidCashAddr,
			len(hash))
	}

	payload := make([]byte, 0, len(hash)+1)
	payload = append(payload, kind<<3)
	payload = append(payload, hash...)

	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCashAddr, err)
	}

	prefix = strings.ToLower(prefix)
	values := cashAddrPrefixValues(prefix)
	values = append(values, data...)
	values = append(values, make([]byte, cashAddrChecksumLen)...)
	poly := cashAddrPolymod(values)

	var b strings.Builder
	b.Grow(len(prefix) + 1 + len(data) + cashAddrChecksumLen)
	b.WriteString(prefix)
	b.WriteByte(':')
	for _, d := range data {
		b.WriteByte(cashAddrCharset[d])
	}
	for i := 0; i < cashAddrChecksumLen; i++ {
		shift := 5 * (cashAddrChecksumLen - 1 - i)
		b.WriteByte(cashAddrCharset[(poly>>shift)&0x1f])
	}

	return b.String(), nil
}

// DecodeCashAddr decodes a CashAddr string. The prefix may be omitted from
// addr, in which case the expected prefix is assumed.
func DecodeCashAddr(addr, prefix string) (AddressType, []byte, error) {
	if addr != strings.ToLower(addr) && addr != strings.ToUpper(addr) {
		return 0, nil, fmt.Errorf("%w: mixed case", ErrInvalidCashAddr)
	}

	addr = strings.ToLower(addr)
	prefix = strings.ToLower(prefix)

	body := addr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		if addr[:i] != prefix {
			return 0, nil, fmt.Errorf("%w: prefix %q",
				ErrInvalidCashAddr, addr[:i])
		}
		body = addr[i+1:]
	}

	if len(body) <= cashAddrChecksumLen {
		return 0, nil, fmt.Errorf("%w: too short", ErrInvalidCashAddr)
	}

	data := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		idx := strings.IndexByte(cashAddrCharset, body[i])
		if idx < 0 {
			return 0, nil, fmt.Errorf("%w: invalid character %q",
				ErrInvalidCashAddr, body[i])
		}
		data[i] = byte(idx)
	}

	values := append(cashAddrPrefixValues(prefix), data...)
	if cashAddrPolymod(values) != 0 {
		return 0, nil, fmt.Errorf("%w: checksum mismatch",
			ErrInvalidCashAddr)
	}

	payload, err := bech32.ConvertBits(
		data[:len(data)-cashAddrChecksumLen], 5, 8, false,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidCashAddr, err)
	}

	if len(payload) != cashAddrHashLen+1 || payload[0]&0x07 != 0 {
		return 0, nil, fmt.Errorf("%w: unsupported hash size",
			ErrInvalidCashAddr)
	}

	switch payload[0] >> 3 {
	case cashAddrTypeP2PKH:
		return PubKeyHash, payload[1:], nil

	case cashAddrTypeP2SH:
		return ScriptHash, payload[1:], nil
	}

	return 0, nil, fmt.Errorf("%w: unknown type %d", ErrInvalidCashAddr,
		payload[0]>>3)
}
