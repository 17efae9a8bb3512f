// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package waddrmgr

import (
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/coldsign/signerr"
)

// DerivationPath is an ordered sequence of BIP32 child indices. Hardened
// indices carry hdkeychain.HardenedKeyStart, which is also how PSBT
// derivation records store them, so a DerivationPath converts to and from
// psbt.Bip32Derivation.Bip32Path without translation.
type DerivationPath []uint32

// ParsePath parses a textual derivation path. The leading "m" or "M" is
// optional, hardened components are marked with a trailing ', h or H.
// Examples of accepted inputs: "m/44'/0'/0'", "M/84h/1h/0h/0/5", "0/1", "m".
func ParsePath(s string) (DerivationPath, error) {
	s = strings.TrimSpace(s)

	switch {
	case s == "":
		return nil, signerr.New(signerr.ErrInvalidHDPath, "empty path",
			errEmptyComponent)

	case s == "m" || s == "M":
		return DerivationPath{}, nil

	case strings.HasPrefix(s, "m/") || strings.HasPrefix(s, "M/"):
		s = s[2:]
	}

	parts := strings.Split(s, "/")
	path := make(DerivationPath, 0, len(parts))
	for i, part := range parts {
		index, err := parseComponent(part)
		if err != nil {
			return nil, signerr.New(signerr.ErrInvalidHDPath,
				"component "+strconv.Itoa(i)+" of path "+
					strconv.Quote(s), err)
		}

		path = append(path, index)
	}

	return path, nil
}

// parseComponent parses a single path component.
func parseComponent(part string) (uint32, error) {
	hardened := false
	switch {
	case strings.HasSuffix(part, "'"), strings.HasSuffix(part, "h"),
		strings.HasSuffix(part, "H"):

		hardened = true
		part = part[:len(part)-1]
	}

	// After stripping one marker only decimal digits may remain. This
	// rejects empty components, double markers and stray apostrophes.
	if part == "" {
		return 0, errEmptyComponent
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return 0, errNonNumericComponent
		}
	}

	value, err := strconv.ParseUint(part, 10, 32)
	if err != nil {
		return 0, err
	}
	if value >= hdkeychain.HardenedKeyStart {
		return 0, errIndexOutOfRange
	}

	index := uint32(value)
	if hardened {
		index += hdkeychain.HardenedKeyStart
	}

	return index, nil
}

// MustParsePath is like ParsePath but panics on error. It is meant for
// package level constants and tests.
func MustParsePath(s string) DerivationPath {
	path, err := ParsePath(s)
	if err != nil {
		panic(err)
	}

	return path
}

// String returns the canonical textual form, e.g. "m/84'/0'/0'/0/1".
func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, index := range p {
		b.WriteByte('/')
		if index >= hdkeychain.HardenedKeyStart {
			b.WriteString(strconv.FormatUint(
				uint64(index-hdkeychain.HardenedKeyStart), 10,
			))
			b.WriteByte('\'')

			continue
		}

		b.WriteString(strconv.FormatUint(uint64(index), 10))
	}

	return b.String()
}

// IsHardened reports whether the component at position i is hardened. It
// returns false for out of range positions.
func (p DerivationPath) IsHardened(i int) bool {
	if i < 0 || i >= len(p) {
		return false
	}

	return p[i] >= hdkeychain.HardenedKeyStart
}

// HasHardened reports whether any component is hardened.
func (p DerivationPath) HasHardened() bool {
	for i := range p {
		if p.IsHardened(i) {
			return true
		}
	}

	return false
}

// HasPrefix reports whether prefix is a leading sub-path of p.
func (p DerivationPath) HasPrefix(prefix DerivationPath) bool {
	if len(prefix) > len(p) {
		return false
	}

	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}

	return true
}

// Relative returns the components of p following prefix. The second return
// value is false if prefix is not a prefix of p.
func (p DerivationPath) Relative(prefix DerivationPath) (DerivationPath, bool) {
	if !p.HasPrefix(prefix) {
		return nil, false
	}

	rel := make(DerivationPath, len(p)-len(prefix))
	copy(rel, p[len(prefix):])

	return rel, true
}

// Child returns a new path extending p with the given components.
func (p DerivationPath) Child(indices ...uint32) DerivationPath {
	child := make(DerivationPath, 0, len(p)+len(indices))
	child = append(child, p...)

	return append(child, indices...)
}

// Equal reports whether two paths hold the same components.
func (p DerivationPath) Equal(other DerivationPath) bool {
	return len(p) == len(other) && p.HasPrefix(other)
}
