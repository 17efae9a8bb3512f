// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/btcsuite/coldsign/waddrmgr"
)

// CheckPsbt decodes a PSBT and runs CheckPacket on it.
func CheckPsbt(raw []byte, ctx *ParseContext) error {
	packet, err := DecodePsbt(raw)
	if err != nil {
		return err
	}

	return CheckPacket(packet, ctx)
}

// CheckPacket verifies that the wallet described by ctx can sign the packet.
// At least one input must derive from the master fingerprint. Multisig
// inputs of ours must belong to the multisig wallet of the context, which is
// then required.
func CheckPacket(packet *psbt.Packet, ctx *ParseContext) error {
	net, err := DetermineNetwork(packet)
	if err != nil {
		return err
	}

	owned := false
	for idx := range packet.Inputs {
		pInput := &packet.Inputs[idx]
		if len(ctx.ownDerivations(inputDerivations(pInput))) > 0 {
			owned = true
			break
		}
	}

	if !owned {
		return signerr.Newf(signerr.ErrNoMyInputs,
			"no input derives from wallet %s",
			waddrmgr.FormatFingerprint(ctx.MasterFingerprint))
	}

	if cfg, ok := ctx.multisigConfig(); ok &&
		cfg.Network.Name() != net.Name() {

		return signerr.Newf(signerr.ErrMultiSigWalletNotMine,
			"multisig wallet %q is on %v, psbt is on %v", cfg.Name,
			cfg.Network.Name(), net.Name())
	}

	return checkInputs(packet, ctx)
}

// checkInputs verifies every multisig input of ours against the multisig
// wallet of the context. A multisig input of ours needs a multisig wallet.
func checkInputs(packet *psbt.Packet, ctx *ParseContext) error {
	cfg, hasConfig := ctx.multisigConfig()

	fingerprint := waddrmgr.FormatFingerprint(ctx.MasterFingerprint)
	if hasConfig {
		if _, ok := cfg.Signer(fingerprint); !ok {
			return signerr.Newf(signerr.ErrMultiSigWalletNotMine,
				"%s is not a signer of multisig wallet %q",
				fingerprint, cfg.Name)
		}
	}

	for idx := range packet.Inputs {
		pInput := &packet.Inputs[idx]

		own := ctx.ownDerivations(inputDerivations(pInput))
		if len(own) == 0 {
			continue
		}

		utxo, err := spentOutput(packet, idx)
		if err != nil {
			return err
		}

		_, isMultisig, err := inputSignStatus(pInput, utxo.PkScript)
		if err != nil {
			return err
		}
		if !isMultisig {
			continue
		}

		if !hasConfig {
			return signerr.New(signerr.ErrMultiSigWalletNotMine,
				fmt.Sprintf("input %d", idx), ErrNoMultisigWallet)
		}

		if !matchMultisig(cfg, own[0].path, utxo.PkScript) {
			return signerr.New(signerr.ErrMultiSigWalletNotMine,
				fmt.Sprintf("input %d at %v", idx, own[0].path),
				ErrMultisigMismatch)
		}
	}

	return nil
}
