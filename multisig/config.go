// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multisig

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/coldsign/netparams"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/btcsuite/coldsign/waddrmgr"
)

const (
	// MaxSigners is the largest number of keys a standard P2SH multisig
	// redeem script may hold.
	MaxSigners = 15

	// fingerprintLen is the length of a hex encoded master fingerprint.
	fingerprintLen = 8
)

// Format is the script wrapping of a multisig wallet's outputs.
type Format uint8

const (
	// FormatP2SH pays to the hash of the bare multisig script.
	FormatP2SH Format = iota

	// FormatP2WSH pays to the witness hash of the multisig script.
	FormatP2WSH

	// FormatP2WSHP2SH nests the P2WSH program in a P2SH output.
	FormatP2WSHP2SH
)

var formatStrings = map[Format]string{
	FormatP2SH:      "P2SH",
	FormatP2WSH:     "P2WSH",
	FormatP2WSHP2SH: "P2WSH-P2SH",
}

// String returns the descriptor spelling of the format.
func (f Format) String() string {
	if s, ok := formatStrings[f]; ok {
		return s
	}

	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat parses a descriptor format value. P2SH-P2WSH is accepted as an
// alias of P2WSH-P2SH.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P2SH":
		return FormatP2SH, nil

	case "P2WSH":
		return FormatP2WSH, nil

	case "P2WSH-P2SH", "P2SH-P2WSH":
		return FormatP2WSHP2SH, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// XpubItem is one signer of a multisig wallet.
type XpubItem struct {
	// Fingerprint is the upper case hex master fingerprint of the signer.
	Fingerprint string

	// Xpub is the signer's account key, normalized to xpub or tpub.
	Xpub string

	// Derivation is the path of Xpub below the signer's master key.
	Derivation string
}

// WalletConfig is a parsed multisig wallet descriptor. It is immutable once
// returned by ParseWalletConfig.
type WalletConfig struct {
	// Creator is taken from the "created by" header comment, if any.
	Creator string

	Name      string
	Threshold uint32
	Total     uint32

	// Derivations holds the derivation of every signer in XpubItems
	// order. Mixed path wallets have differing entries.
	Derivations []string

	Format    Format
	XpubItems []XpubItem

	// VerifyCode identifies the wallet independently of the spelling of
	// its descriptor.
	VerifyCode string

	// ConfigText is the descriptor as it was parsed.
	ConfigText string

	// Network is the network every signer key belongs to.
	Network netparams.Network
}

// IsMixedPath reports whether signers use more than one derivation.
func (c *WalletConfig) IsMixedPath() bool {
	for _, d := range c.Derivations {
		if d != c.Derivations[0] {
			return true
		}
	}

	return false
}

// Signer returns the signer with the given fingerprint.
func (c *WalletConfig) Signer(fingerprint string) (XpubItem, bool) {
	for _, item := range c.XpubItems {
		if strings.EqualFold(item.Fingerprint, fingerprint) {
			return item, true
		}
	}

	return XpubItem{}, false
}

// parseError wraps a descriptor problem in the parse error code.
func parseError(lineNo int, err error) error {
	desc := "wallet config"
	if lineNo > 0 {
		desc = "wallet config line " + strconv.Itoa(lineNo)
	}

	return signerr.New(signerr.ErrMultiSigWalletParse, desc, err)
}

// ParseWalletConfig parses a multisig wallet descriptor. A non-empty selector
// fingerprint must belong to one of the signers, otherwise the wallet is
// rejected with MultiSigWalletNotMine.
//
// The descriptor is line oriented:
//
//	# Multisig setup file (created by Sparrow)
//	Name: Vault
//	Policy: 2 of 3
//	Derivation: m/48'/0'/0'/2'
//	Format: P2WSH
//	C45358FA: xpub6E...
//
// Derivation may repeat; every fingerprint line uses the derivation that
// precedes it. A missing Format defaults to P2SH.
func ParseWalletConfig(text, selector string) (*WalletConfig, error) {
	cfg := &WalletConfig{
		Format:     FormatP2SH,
		ConfigText: text,
	}

	var (
		derivation string
		havePolicy bool
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue

		// Comments carry no data except the creator of the file.
		case strings.HasPrefix(line, "#"):
			if cfg.Creator == "" {
				cfg.Creator = parseCreator(line)
			}

			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, parseError(lineNo, ErrMalformedLine)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch strings.ToLower(key) {
		case "name":
			cfg.Name = value

		case "policy":
			m, n, err := parsePolicy(value)
			if err != nil {
				return nil, parseError(lineNo, err)
			}
			cfg.Threshold, cfg.Total = m, n
			havePolicy = true

		case "derivation":
			if _, err := waddrmgr.ParsePath(value); err != nil {
				return nil, parseError(lineNo, err)
			}
			derivation = value

		case "format":
			format, err := ParseFormat(value)
			if err != nil {
				return nil, parseError(lineNo, err)
			}
			cfg.Format = format

		default:
			if !isFingerprint(key) {
				return nil, parseError(lineNo, fmt.Errorf(
					"%w: %q", ErrUnknownKey, key,
				))
			}

			// A signer line is only meaningful under a
			// derivation.
			if derivation == "" {
				return nil, parseError(lineNo, ErrNoDerivation)
			}

			cfg.XpubItems = append(cfg.XpubItems, XpubItem{
				Fingerprint: strings.ToUpper(key),
				Xpub:        value,
				Derivation:  derivation,
			})
			cfg.Derivations = append(cfg.Derivations, derivation)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, parseError(lineNo, err)
	}

	if !havePolicy {
		return nil, parseError(0, ErrMissingPolicy)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if selector != "" {
		if _, ok := cfg.Signer(selector); !ok {
			return nil, signerr.Newf(signerr.ErrMultiSigWalletNotMine,
				"fingerprint %s is not a signer of %q",
				strings.ToUpper(selector), cfg.Name)
		}
	}

	cfg.VerifyCode = calculateVerifyCode(cfg)

	log.Debugf("Parsed %d-of-%d %v wallet %q", cfg.Threshold, cfg.Total,
		cfg.Format, cfg.Name)

	return cfg, nil
}

// validate checks the signer set against the policy and normalizes every
// signer key.
func (c *WalletConfig) validate() error {
	switch {
	case c.Total == 0 || c.Total > MaxSigners:
		return parseError(0, fmt.Errorf("%w: %d signers",
			ErrInvalidPolicy, c.Total))

	case c.Threshold == 0 || c.Threshold > c.Total:
		return parseError(0, fmt.Errorf("%w: threshold %d of %d",
			ErrInvalidPolicy, c.Threshold, c.Total))

	case len(c.XpubItems) != int(c.Total):
		return parseError(0, fmt.Errorf("%w: policy has %d signers, "+
			"found %d", ErrSignerCount, c.Total, len(c.XpubItems)))
	}

	fingerprints := make(map[string]struct{}, len(c.XpubItems))
	xpubs := make(map[string]struct{}, len(c.XpubItems))

	var testnet bool
	for i := range c.XpubItems {
		item := &c.XpubItems[i]

		key, isTestnet, err := waddrmgr.ParseExtendedKey(item.Xpub)
		if err != nil {
			return parseError(0, fmt.Errorf("signer %s: %w",
				item.Fingerprint, err))
		}
		if key.IsPrivate() {
			key.Zero()

			return parseError(0, fmt.Errorf("signer %s: %w",
				item.Fingerprint, ErrPrivateKey))
		}

		if i == 0 {
			testnet = isTestnet
		} else if isTestnet != testnet {
			return parseError(0, fmt.Errorf("signer %s: %w",
				item.Fingerprint, ErrMixedNetworks))
		}

		// The key must sit at the depth its derivation claims, and
		// a hardened coin type must match the key's network.
		path := waddrmgr.MustParsePath(item.Derivation)
		if int(key.Depth()) != len(path) {
			return parseError(0, fmt.Errorf("signer %s: %w: key "+
				"depth %d, derivation %s", item.Fingerprint,
				ErrDepthMismatch, key.Depth(), item.Derivation))
		}
		if path.IsHardened(1) {
			coin := path[1] - hdkeychain.HardenedKeyStart
			if (coin == netparams.CoinTypeTestnet) != testnet ||
				coin > netparams.CoinTypeTestnet {

				return parseError(0, fmt.Errorf("signer %s: "+
					"%w: coin type %d", item.Fingerprint,
					ErrMixedNetworks, coin))
			}
		}

		item.Xpub = key.String()

		if _, ok := fingerprints[item.Fingerprint]; ok {
			return parseError(0, fmt.Errorf("%w: fingerprint %s",
				ErrDuplicateSigner, item.Fingerprint))
		}
		fingerprints[item.Fingerprint] = struct{}{}

		if _, ok := xpubs[item.Xpub]; ok {
			return parseError(0, fmt.Errorf("%w: key of %s",
				ErrDuplicateSigner, item.Fingerprint))
		}
		xpubs[item.Xpub] = struct{}{}
	}

	coinType := netparams.CoinTypeBitcoin
	if testnet {
		coinType = netparams.CoinTypeTestnet
	}

	net, err := netparams.FromCoinType(coinType)
	if err != nil {
		return parseError(0, err)
	}
	c.Network = net

	return nil
}

// parsePolicy parses an "M of N" policy.
func parsePolicy(value string) (uint32, uint32, error) {
	fields := strings.Fields(value)
	if len(fields) != 3 || !strings.EqualFold(fields[1], "of") {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, value)
	}

	m, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, value)
	}
	n, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, value)
	}

	return uint32(m), uint32(n), nil
}

// parseCreator extracts X from a "(created by X)" header comment.
func parseCreator(line string) string {
	const marker = "created by "

	lower := strings.ToLower(line)
	start := strings.Index(lower, marker)
	if start < 0 {
		return ""
	}

	creator := line[start+len(marker):]
	if end := strings.IndexByte(creator, ')'); end >= 0 {
		creator = creator[:end]
	}

	return strings.TrimSpace(creator)
}

// isFingerprint reports whether key is an 8 character hex fingerprint.
func isFingerprint(key string) bool {
	if len(key) != fingerprintLen {
		return false
	}

	_, err := waddrmgr.ParseFingerprint(key)

	return err == nil
}
