// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package coreapi is the boundary of the signing core. Every call takes
// plain strings, returns a Response value and keeps nothing once it returns,
// which makes it straightforward to expose over a C or mobile binding.
package coreapi

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/coldsign/multisig"
	"github.com/btcsuite/coldsign/netparams"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/btcsuite/coldsign/waddrmgr"
	"github.com/btcsuite/coldsign/wallet"
)

// psbtHexMagic is the hex encoding of the PSBT magic bytes.
const psbtHexMagic = "70736274ff"

// success wraps a result.
func success(data any) Response {
	return Response{Data: data}
}

// failure turns an error into a tagged response. Errors that do not carry a
// code are reported as invalid input.
func failure(err error) Response {
	code, ok := signerr.CodeOf(err)
	if !ok {
		code = signerr.ErrInvalidInput
	}

	log.Debugf("Call failed: %v", err)

	return Response{
		ErrorCode:    code.String(),
		ErrorMessage: err.Error(),
	}
}

// decodePsbtString accepts a PSBT in hex or base64.
func decodePsbtString(s string) []byte {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), psbtHexMagic) {
		if raw, err := hex.DecodeString(s); err == nil {
			return raw
		}
	}

	return []byte(s)
}

// decodeSeed decodes a hex seed. The caller must clear the returned slice.
func decodeSeed(seedHex string) ([]byte, error) {
	seed, err := hex.DecodeString(strings.TrimSpace(seedHex))
	if err != nil {
		return nil, signerr.New(signerr.ErrGetKey, "invalid seed", err)
	}

	return seed, nil
}

// newParseContext builds the wallet context of a call.
func newParseContext(params ContextParams) (*wallet.ParseContext, error) {
	fp, err := waddrmgr.ParseFingerprint(params.MasterFingerprint)
	if err != nil {
		return nil, err
	}

	ctx, err := wallet.NewParseContext(fp, params.KnownKeys)
	if err != nil {
		return nil, err
	}

	if params.MultisigConfig == "" {
		return ctx, nil
	}

	cfg, err := multisig.ParseWalletConfig(
		params.MultisigConfig, params.MasterFingerprint,
	)
	if err != nil {
		return nil, err
	}

	return ctx.WithMultisig(cfg), nil
}

// ParsePsbt returns the overview and detail views of a PSBT given in hex or
// base64.
func ParsePsbt(psbtStr string, params ContextParams) Response {
	ctx, err := newParseContext(params)
	if err != nil {
		return failure(err)
	}

	tx, err := wallet.ParsePsbt(decodePsbtString(psbtStr), ctx)
	if err != nil {
		return failure(err)
	}

	return success(newTxView(tx))
}

// CheckPsbt verifies that the wallet can sign a PSBT. The data of a
// successful response is true.
func CheckPsbt(psbtStr string, params ContextParams) Response {
	ctx, err := newParseContext(params)
	if err != nil {
		return failure(err)
	}

	if err := wallet.CheckPsbt(decodePsbtString(psbtStr), ctx); err != nil {
		return failure(err)
	}

	return success(true)
}

// SignPsbt signs a PSBT with a hex encoded seed. The context is optional;
// an empty fingerprint signs with the seed alone.
func SignPsbt(psbtStr, seedHex string, params ContextParams) Response {
	seed, err := decodeSeed(seedHex)
	if err != nil {
		return failure(err)
	}
	defer clear(seed)

	var ctx *wallet.ParseContext
	if params.MasterFingerprint != "" {
		ctx, err = newParseContext(params)
		if err != nil {
			return failure(err)
		}
	}

	signed, result, err := wallet.SignPsbt(
		decodePsbtString(psbtStr), seed, ctx,
	)
	if err != nil {
		return failure(err)
	}

	return success(&SignedView{
		Psbt:         base64.StdEncoding.EncodeToString(signed),
		SignedInputs: result.SignedInputs,
	})
}

// MasterFingerprint returns the fingerprint of a hex encoded seed.
func MasterFingerprint(seedHex string) Response {
	seed, err := decodeSeed(seedHex)
	if err != nil {
		return failure(err)
	}
	defer clear(seed)

	fp, err := waddrmgr.MasterFingerprint(seed)
	if err != nil {
		return failure(err)
	}

	return success(waddrmgr.FormatFingerprint(fp))
}

// AccountXpub returns the extended public key at path for a hex encoded
// seed. The version bytes follow the coin type of the path.
func AccountXpub(seedHex, path string) Response {
	seed, err := decodeSeed(seedHex)
	if err != nil {
		return failure(err)
	}
	defer clear(seed)

	parsed, err := waddrmgr.ParsePath(path)
	if err != nil {
		return failure(err)
	}

	net, err := networkForPath(parsed)
	if err != nil {
		return failure(err)
	}

	key, err := waddrmgr.DeriveFromSeed(seed, parsed, net.Params())
	if err != nil {
		return failure(err)
	}
	defer key.Zero()

	pub, err := key.Neuter()
	if err != nil {
		return failure(err)
	}

	return success(pub.String())
}

// networkForPath returns the network of a path from its scope, or from its
// coin type in the default registry for paths outside the standard scopes
// such as multisig ones.
func networkForPath(path waddrmgr.DerivationPath) (netparams.Network, error) {
	if schema, err := waddrmgr.ScopeForPath(path); err == nil {
		return schema.Network, nil
	}

	if len(path) < 2 || !path.IsHardened(1) {
		return nil, signerr.Newf(signerr.ErrInvalidHDPath,
			"%v has no hardened coin type", path)
	}

	coinType := path[1] - hdkeychain.HardenedKeyStart
	net, err := netparams.Default().ByCoinType(coinType)
	if err != nil {
		return nil, signerr.New(signerr.ErrInvalidHDPath,
			path.String(), err)
	}

	return net, nil
}

// AddressFromSeed returns the address at a full standard path of a hex
// encoded seed.
func AddressFromSeed(seedHex, path string) Response {
	seed, err := decodeSeed(seedHex)
	if err != nil {
		return failure(err)
	}
	defer clear(seed)

	parsed, err := waddrmgr.ParsePath(path)
	if err != nil {
		return failure(err)
	}

	addr, err := waddrmgr.AddressFromSeed(seed, parsed)
	if err != nil {
		return failure(err)
	}

	return success(addr)
}

// AddressFromXpub returns the address at change/index below an account key.
// The scope path, e.g. "m/84'/0'", selects the address type and network.
func AddressFromXpub(xpub, scopePath string, change, index uint32) Response {
	parsed, err := waddrmgr.ParsePath(scopePath)
	if err != nil {
		return failure(err)
	}

	schema, err := waddrmgr.ScopeForPath(parsed)
	if err != nil {
		return failure(err)
	}

	addr, err := waddrmgr.AddressFromExtendedKey(
		xpub, schema.Scope, change, index,
	)
	if err != nil {
		return failure(err)
	}

	return success(addr)
}

// ParseMultisigConfig parses a multisig wallet descriptor. A non-empty
// fingerprint must belong to one of its signers.
func ParseMultisigConfig(text, fingerprint string) Response {
	cfg, err := multisig.ParseWalletConfig(text, fingerprint)
	if err != nil {
		return failure(err)
	}

	return success(newMultisigView(cfg))
}

// MultisigAddress returns the multisig wallet address at change/index.
func MultisigAddress(text string, change, index uint32) Response {
	cfg, err := multisig.ParseWalletConfig(text, "")
	if err != nil {
		return failure(err)
	}

	addr, err := multisig.CreateMultiSigAddress(cfg, change, index)
	if err != nil {
		return failure(err)
	}

	return success(addr)
}

// ExportMultisigConfig returns the canonical descriptor text of a multisig
// wallet.
func ExportMultisigConfig(text string) Response {
	cfg, err := multisig.ParseWalletConfig(text, "")
	if err != nil {
		return failure(err)
	}

	return success(multisig.Export(cfg))
}


// Networks lists the networks of the default registry.
func Networks() Response {
	networks := netparams.Default().Networks()

	views := make([]NetworkView, 0, len(networks))
	for _, n := range networks {
		views = append(views, NetworkView{
			Name:     n.Name(),
			Unit:     n.Unit(),
			CoinType: n.CoinType(),
		})
	}

	return success(views)
}

// AddressScript returns the hex encoded output script paying to an address
// of the named network.
func AddressScript(address, networkName string) Response {
	net, err := netparams.Default().Lookup(networkName)
	if err != nil {
		return failure(err)
	}

	script, err := waddrmgr.AddressScript(strings.TrimSpace(address), net)
	if err != nil {
		return failure(err)
	}

	return success(hex.EncodeToString(script))
}
