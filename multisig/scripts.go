// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multisig

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/btcsuite/coldsign/waddrmgr"
)

// Scripts holds every script of one multisig address.
type Scripts struct {
	// PubKeys are the compressed signer keys in script order.
	PubKeys [][]byte

	// MultisigScript is the bare OP_M <keys> OP_N OP_CHECKMULTISIG
	// script.
	MultisigScript []byte

	// RedeemScript is the script revealed to spend a P2SH output. It is
	// nil for P2WSH.
	RedeemScript []byte

	// WitnessScript is the script revealed in the witness. It is nil for
	// P2SH.
	WitnessScript []byte

	// PkScript is the output script.
	PkScript []byte
}

// addressCalError wraps a failure to build the scripts of an address.
func addressCalError(change, index uint32, err error) error {
	return signerr.New(signerr.ErrMultiSigWalletAddressCal,
		fmt.Sprintf("address %d/%d", change, index), err)
}

// createError wraps a failure to assemble the scripts of an address from its
// signer keys.
func createError(change, index uint32, err error) error {
	return signerr.New(signerr.ErrMultiSigWalletCrate,
		fmt.Sprintf("scripts of address %d/%d", change, index), err)
}

// DeriveScripts builds the scripts of the address at change/index. Every
// signer key is derived at m/change/index below its account key and the keys
// are sorted by their compressed encoding, so the result does not depend on
// the order signers are listed in.
func (c *WalletConfig) DeriveScripts(change, index uint32) (*Scripts, error) {
	rel := waddrmgr.DerivationPath{change, index}

	pubKeys := make([][]byte, 0, len(c.XpubItems))
	for _, item := range c.XpubItems {
		key, err := waddrmgr.DeriveFromExtendedKey(item.Xpub, rel)
		if err != nil {
			return nil, addressCalError(change, index, err)
		}

		pub, err := key.PubKey()
		if err != nil {
			return nil, addressCalError(change, index, err)
		}

		pubKeys = append(pubKeys, pub.SerializeCompressed())
	}

	sort.Slice(pubKeys, func(i, j int) bool {
		return bytes.Compare(pubKeys[i], pubKeys[j]) < 0
	})

	addrPubKeys := make([]*btcutil.AddressPubKey, 0, len(pubKeys))
	for _, pub := range pubKeys {
		addrPubKey, err := btcutil.NewAddressPubKey(
			pub, c.Network.Params(),
		)
		if err != nil {
			return nil, addressCalError(change, index, err)
		}

		addrPubKeys = append(addrPubKeys, addrPubKey)
	}

	multisigScript, err := txscript.MultiSigScript(
		addrPubKeys, int(c.Threshold),
	)
	if err != nil {
		return nil, createError(change, index, err)
	}

	scripts := &Scripts{
		PubKeys:        pubKeys,
		MultisigScript: multisigScript,
	}

	switch c.Format {
	case FormatP2SH:
		scripts.RedeemScript = multisigScript
		scripts.PkScript, err = payToScriptHash(multisigScript)

	case FormatP2WSH:
		scripts.WitnessScript = multisigScript
		scripts.PkScript, err = payToWitnessScriptHash(multisigScript)

	case FormatP2WSHP2SH:
		// The witness program becomes the redeem script of the outer
		// P2SH output.
		scripts.WitnessScript = multisigScript
		scripts.RedeemScript, err = payToWitnessScriptHash(
			multisigScript,
		)
		if err != nil {
			break
		}
		scripts.PkScript, err = payToScriptHash(scripts.RedeemScript)

	default:
		err = fmt.Errorf("%w: %v", ErrUnknownFormat, c.Format)
	}
	if err != nil {
		return nil, createError(change, index, err)
	}

	return scripts, nil
}

// CreateMultiSigAddress returns the address of the wallet at change/index.
// The same inputs always produce the same address.
func CreateMultiSigAddress(c *WalletConfig, change,
	index uint32) (string, error) {

	scripts, err := c.DeriveScripts(change, index)
	if err != nil {
		return "", err
	}

	addr, err := waddrmgr.ScriptAddress(scripts.PkScript, c.Network)
	if err != nil {
		return "", addressCalError(change, index, err)
	}

	log.Tracef("Wallet %q address %d/%d: %s", c.Name, change, index, addr)

	return addr, nil
}

// MatchScript reports whether the script is the output script, the redeem
// script or the witness script of the wallet address at change/index.
func (c *WalletConfig) MatchScript(script []byte, change,
	index uint32) (bool, error) {

	scripts, err := c.DeriveScripts(change, index)
	if err != nil {
		return false, err
	}

	for _, candidate := range [][]byte{
		scripts.PkScript, scripts.RedeemScript, scripts.WitnessScript,
	} {
		if candidate != nil && bytes.Equal(candidate, script) {
			return true, nil
		}
	}

	return false, nil
}

// payToScriptHash returns the P2SH output script of a redeem script.
func payToScriptHash(redeemScript []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(redeemScript)).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// payToWitnessScriptHash returns the version 0 witness program of a witness
// script.
func payToWitnessScriptHash(witnessScript []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(chainhash.HashB(witnessScript)).
		Script()
}
