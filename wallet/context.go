// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"
	"sort"

	"github.com/btcsuite/coldsign/multisig"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/btcsuite/coldsign/waddrmgr"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// KnownKey is an extended public key the host vouches for, together with the
// path it sits at below the master key.
type KnownKey struct {
	Path waddrmgr.DerivationPath
	Xpub string
}

// ParseContext is the host supplied view of the signing wallet. It is built
// once per operation and read-only afterwards.
type ParseContext struct {
	// MasterFingerprint identifies the wallet's root key in PSBT
	// derivation records.
	MasterFingerprint uint32

	// KnownKeys are sorted by path, deepest first among equal prefixes.
	KnownKeys []KnownKey

	// Multisig is the multisig wallet inputs and change outputs are
	// checked against, if any.
	Multisig fn.Option[*multisig.WalletConfig]
}

// NewParseContext builds a context from a fingerprint and a mapping of path
// prefix to extended public key, e.g. "m/84'/1'/0'" to a tpub. Paths must be
// unique after normalization and every key must parse.
func NewParseContext(fingerprint uint32,
	knownKeys map[string]string) (*ParseContext, error) {

	ctx := &ParseContext{
		MasterFingerprint: fingerprint,
		KnownKeys:         make([]KnownKey, 0, len(knownKeys)),
		Multisig:          fn.None[*multisig.WalletConfig](),
	}

	seen := make(map[string]struct{}, len(knownKeys))
	for rawPath, xpub := range knownKeys {
		path, err := waddrmgr.ParsePath(rawPath)
		if err != nil {
			return nil, err
		}

		canonical := path.String()
		if _, ok := seen[canonical]; ok {
			return nil, signerr.New(signerr.ErrInvalidHDPath,
				canonical, fmt.Errorf("%w: %s", ErrDuplicateKey,
					rawPath))
		}
		seen[canonical] = struct{}{}

		// Normalize SLIP-132 variants so that derivation works on
		// the stored string directly.
		key, _, err := waddrmgr.ParseExtendedKey(xpub)
		if err != nil {
			return nil, err
		}
		if key.IsPrivate() {
			key.Zero()

			return nil, signerr.New(signerr.ErrGetKey, canonical,
				ErrPrivateKnownKey)
		}

		ctx.KnownKeys = append(ctx.KnownKeys, KnownKey{
			Path: path,
			Xpub: key.String(),
		})
	}

	// Longer prefixes first, so the most specific key wins a lookup.
	sort.Slice(ctx.KnownKeys, func(i, j int) bool {
		a, b := ctx.KnownKeys[i].Path, ctx.KnownKeys[j].Path
		if len(a) != len(b) {
			return len(a) > len(b)
		}

		return a.String() < b.String()
	})

	return ctx, nil
}

// WithMultisig returns a copy of the context checking against the given
// multisig wallet.
func (c *ParseContext) WithMultisig(
	cfg *multisig.WalletConfig) *ParseContext {

	clone := *c
	clone.Multisig = fn.Some(cfg)

	return &clone
}

// isMine reports whether a derivation record's fingerprint is ours.
func (c *ParseContext) isMine(fingerprint uint32) bool {
	return fingerprint == c.MasterFingerprint
}

// deriveKnown derives the public key at an absolute path from the most
// specific known key covering it. The second return value is false when no
// known key covers the path or the remainder is hardened.
func (c *ParseContext) deriveKnown(
	path waddrmgr.DerivationPath) ([]byte, bool) {

	for _, known := range c.KnownKeys {
		rel, ok := path.Relative(known.Path)
		if !ok || rel.HasHardened() {
			continue
		}

		key, err := waddrmgr.DeriveFromExtendedKey(known.Xpub, rel)
		if err != nil {
			log.Debugf("Unable to derive %v from known key %v: %v",
				path, known.Path, err)

			return nil, false
		}

		pub, err := key.PubKey()
		if err != nil {
			return nil, false
		}

		return pub.SerializeCompressed(), true
	}

	return nil, false
}
