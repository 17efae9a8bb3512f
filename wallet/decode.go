// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coldsign/netparams"
	"github.com/btcsuite/coldsign/signerr"
)

// psbtMagic is the leading byte sequence of a binary PSBT.
var psbtMagic = []byte{0x70, 0x73, 0x62, 0x74, 0xff}

// DecodePsbt parses a PSBT in binary or base64 form. Unknown keys are kept
// and written back unchanged when the packet is serialized again.
func DecodePsbt(raw []byte) (*psbt.Packet, error) {
	raw = bytes.TrimSpace(raw)
	b64 := !bytes.HasPrefix(raw, psbtMagic)

	packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), b64)
	if err != nil {
		return nil, signerr.New(signerr.ErrInvalidPsbt,
			"unable to decode psbt", err)
	}

	if err := packet.SanityCheck(); err != nil {
		return nil, signerr.New(signerr.ErrInvalidPsbt,
			"psbt failed sanity check", err)
	}

	return packet, nil
}

// EncodePsbt serializes a packet to its binary form.
func EncodePsbt(packet *psbt.Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := packet.Serialize(&buf); err != nil {
		return nil, signerr.New(signerr.ErrInvalidPsbt,
			"unable to encode psbt", err)
	}

	return buf.Bytes(), nil
}

// DetermineNetwork infers the network of a PSBT from the coin type of the
// first derivation record of its first input. There is no default; a packet
// without such a record cannot be parsed.
func DetermineNetwork(packet *psbt.Packet) (netparams.Network, error) {
	if len(packet.Inputs) == 0 {
		return nil, signerr.Newf(signerr.ErrNoInputs,
			"psbt has no inputs")
	}

	first := packet.Inputs[0]

	var path []uint32
	switch {
	case len(first.Bip32Derivation) > 0:
		path = first.Bip32Derivation[0].Bip32Path

	case len(first.TaprootBip32Derivation) > 0:
		path = first.TaprootBip32Derivation[0].Bip32Path

	default:
		return nil, signerr.Newf(signerr.ErrInvalidInput,
			"input 0 has no derivation path")
	}

	// The coin type is the second component and is always hardened.
	if len(path) < 2 || path[1] < hdkeychain.HardenedKeyStart {
		return nil, signerr.Newf(signerr.ErrInvalidTransaction,
			"input 0 derivation path has no hardened coin type")
	}

	return netparams.FromCoinType(path[1] - hdkeychain.HardenedKeyStart)
}

// spentOutput returns the output spent by an input, reconciling the witness
// and non-witness UTXO records when both are present.
func spentOutput(packet *psbt.Packet, idx int) (*wire.TxOut, error) {
	txIn := packet.UnsignedTx.TxIn[idx]
	pInput := packet.Inputs[idx]

	var utxo *wire.TxOut
	switch {
	case pInput.NonWitnessUtxo != nil:
		prevTx := pInput.NonWitnessUtxo
		if prevTx.TxHash() != txIn.PreviousOutPoint.Hash {
			return nil, signerr.Newf(signerr.ErrInvalidInput,
				"input %d: previous transaction does not match "+
					"outpoint %v", idx, txIn.PreviousOutPoint)
		}

		prevIndex := txIn.PreviousOutPoint.Index
		if int(prevIndex) >= len(prevTx.TxOut) {
			return nil, signerr.Newf(signerr.ErrInvalidInput,
				"input %d: outpoint index %d out of range", idx,
				prevIndex)
		}
		utxo = prevTx.TxOut[prevIndex]

		// Both records describe the same output and must agree.
		if w := pInput.WitnessUtxo; w != nil &&
			(w.Value != utxo.Value ||
				!bytes.Equal(w.PkScript, utxo.PkScript)) {

			return nil, signerr.Newf(signerr.ErrInvalidInput,
				"input %d: witness utxo disagrees with previous "+
					"transaction", idx)
		}

	case pInput.WitnessUtxo != nil:
		utxo = pInput.WitnessUtxo

	default:
		return nil, signerr.Newf(signerr.ErrInvalidInput,
			"input %d: missing utxo", idx)
	}

	if utxo.Value < 0 || utxo.Value > btcutil.MaxSatoshi {
		return nil, signerr.Newf(signerr.ErrInvalidInput,
			"input %d: value %d out of range", idx, utxo.Value)
	}

	return utxo, nil
}

// PsbtPrevOutputFetcher returns a txscript.PrevOutFetcher built from the UTXO
// information in a PSBT packet. Every input must carry a consistent UTXO.
func PsbtPrevOutputFetcher(
	packet *psbt.Packet) (*txscript.MultiPrevOutFetcher, error) {

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for idx, txIn := range packet.UnsignedTx.TxIn {
		utxo, err := spentOutput(packet, idx)
		if err != nil {
			return nil, err
		}

		fetcher.AddPrevOut(txIn.PreviousOutPoint, utxo)
	}

	return fetcher, nil
}

// isFinalized reports whether an input already carries its final scripts.
func isFinalized(pInput *psbt.PInput) bool {
	return len(pInput.FinalScriptSig) > 0 ||
		len(pInput.FinalScriptWitness) > 0
}
