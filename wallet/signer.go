// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/btcsuite/coldsign/waddrmgr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// SignPsbtResult is the outcome of a signing operation.
type SignPsbtResult struct {
	// SignedInputs contains the indices of the inputs that received a
	// signature from this wallet.
	SignedInputs []uint32

	// Packet is the signed packet. It is the same pointer as passed in.
	Packet *psbt.Packet
}

// signFailure wraps an error as a SignFailure for one input.
func signFailure(idx int, err error) error {
	return signerr.New(signerr.ErrSignFailure,
		fmt.Sprintf("input %d", idx), err)
}

// zeroKey wipes a private key.
func zeroKey(key *secp256k1.PrivateKey) {
	key.Zero()
}

// SignPsbt decodes a PSBT, signs it with the seed and returns the signed
// packet in binary form. See SignPacket.
func SignPsbt(raw, seed []byte, ctx *ParseContext) ([]byte,
	*SignPsbtResult, error) {

	packet, err := DecodePsbt(raw)
	if err != nil {
		return nil, nil, err
	}

	result, err := SignPacket(packet, seed, ctx)
	if err != nil {
		return nil, nil, err
	}

	signed, err := EncodePsbt(result.Packet)
	if err != nil {
		return nil, nil, err
	}

	return signed, result, nil
}

// SignPacket adds a signature to every input the wallet owns. An input is
// owned when one of its derivation records carries the master fingerprint of
// the seed. Inputs that are finalized or already carry a signature of the
// derived key are left untouched.
//
// The context is optional. When given, its fingerprint must be the seed's
// and multisig inputs are checked against its multisig wallet before
// anything is signed. The packet is only modified when every owned input
// could be signed; on error it is left as it was.
func SignPacket(packet *psbt.Packet, seed []byte,
	ctx *ParseContext) (*SignPsbtResult, error) {

	fingerprint, err := waddrmgr.MasterFingerprint(seed)
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx, err = NewParseContext(fingerprint, nil)
		if err != nil {
			return nil, err
		}
	}
	if ctx.MasterFingerprint != fingerprint {
		return nil, signerr.Newf(signerr.ErrSignFailure,
			"seed fingerprint %s does not match wallet %s",
			waddrmgr.FormatFingerprint(fingerprint),
			waddrmgr.FormatFingerprint(ctx.MasterFingerprint))
	}

	net, err := DetermineNetwork(packet)
	if err != nil {
		return nil, err
	}

	if err := checkInputs(packet, ctx); err != nil {
		return nil, err
	}

	// Signatures go onto a copy so a failure half way leaves the caller's
	// packet as it was.
	work, err := copyPacket(packet)
	if err != nil {
		return nil, err
	}

	updater, err := psbt.NewUpdater(work)
	if err != nil {
		return nil, signerr.New(signerr.ErrInvalidPsbt,
			"unable to create updater", err)
	}

	fetcher, err := PsbtPrevOutputFetcher(work)
	if err != nil {
		return nil, err
	}
	sigHashes := txscript.NewTxSigHashes(work.UnsignedTx, fetcher)

	master, err := waddrmgr.NewMasterKey(seed, net.Params())
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	s := &inputSigner{
		packet:    work,
		updater:   updater,
		sigHashes: sigHashes,
		master:    master,
	}

	var (
		signedInputs []uint32
		owned        bool
	)
	for idx := range work.Inputs {
		pInput := &work.Inputs[idx]

		own := ctx.ownDerivations(inputDerivations(pInput))
		if len(own) == 0 {
			continue
		}
		owned = true

		if isFinalized(pInput) {
			log.Debugf("Skipping finalized input %d", idx)
			continue
		}

		signed, err := s.signInput(idx, own)
		if err != nil {
			return nil, err
		}
		if signed {
			signedInputs = append(signedInputs, uint32(idx))
		}
	}

	if !owned {
		return nil, signerr.Newf(signerr.ErrNoMyInputs,
			"no input derives from wallet %s",
			waddrmgr.FormatFingerprint(fingerprint))
	}

	*packet = *work

	log.Debugf("Signed %d of %d inputs of %v", len(signedInputs),
		len(packet.Inputs), packet.UnsignedTx.TxHash())

	return &SignPsbtResult{
		SignedInputs: signedInputs,
		Packet:       packet,
	}, nil
}

// copyPacket returns a deep copy of a packet by round tripping it through
// its wire encoding.
func copyPacket(packet *psbt.Packet) (*psbt.Packet, error) {
	raw, err := EncodePsbt(packet)
	if err != nil {
		return nil, err
	}

	clone, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		return nil, signerr.New(signerr.ErrInvalidPsbt,
			"unable to copy psbt", err)
	}

	return clone, nil
}

// inputSigner holds the state shared by all inputs of one signing pass.
type inputSigner struct {
	packet    *psbt.Packet
	updater   *psbt.Updater
	sigHashes *txscript.TxSigHashes
	master    *waddrmgr.ExtendedKey
}

// signInput signs one input with each of our keys recorded on it. It
// reports whether a new signature was added.
func (s *inputSigner) signInput(idx int, own []derivation) (bool, error) {
	var (
		signed bool
		seen   = make(map[string]struct{}, len(own))
	)
	for i := range own {
		d := &own[i]

		// Taproot inputs usually record the same key twice, once in
		// each derivation kind.
		if _, ok := seen[d.path.String()]; ok {
			continue
		}
		seen[d.path.String()] = struct{}{}

		ok, err := s.signWithPath(idx, d)
		if err != nil {
			return false, err
		}
		signed = signed || ok
	}

	return signed, nil
}

// signWithPath derives the key at the record's path and signs the input
// with it.
func (s *inputSigner) signWithPath(idx int, d *derivation) (bool, error) {
	extKey, err := s.master.Derive(d.path)
	if err != nil {
		return false, err
	}
	defer extKey.Zero()

	privKey, err := extKey.PrivKey()
	if err != nil {
		return false, err
	}
	defer zeroKey(privKey)

	pubKey := privKey.PubKey()
	compressed := pubKey.SerializeCompressed()
	if !d.matches(compressed) {
		return false, signFailure(idx, fmt.Errorf("%w at %v",
			ErrPubKeyMismatch, d.path))
	}

	utxo, err := spentOutput(s.packet, idx)
	if err != nil {
		return false, err
	}

	if txscript.IsPayToTaproot(utxo.PkScript) {
		return s.signTaproot(idx, privKey, utxo.PkScript, utxo.Value)
	}

	pInput := &s.packet.Inputs[idx]
	for _, sig := range pInput.PartialSigs {
		if bytes.Equal(sig.PubKey, compressed) {
			log.Debugf("Input %d already signed by %v", idx, d.path)
			return false, nil
		}
	}

	sig, redeemScript, witnessScript, err := s.ecdsaSignature(
		idx, privKey, utxo.PkScript, utxo.Value,
	)
	if err != nil {
		return false, signFailure(idx, err)
	}

	_, err = s.updater.Sign(idx, sig, compressed, redeemScript, witnessScript)
	if err != nil {
		return false, signFailure(idx, err)
	}

	return true, nil
}

// signTaproot adds a BIP86 key path signature. Script path spends are not
// supported.
func (s *inputSigner) signTaproot(idx int, privKey *btcec.PrivateKey,
	pkScript []byte, amount int64) (bool, error) {

	pInput := &s.packet.Inputs[idx]
	if len(pInput.TaprootKeySpendSig) > 0 {
		log.Debugf("Input %d already has a key spend signature", idx)
		return false, nil
	}

	outputKey := txscript.ComputeTaprootKeyNoScript(privKey.PubKey())
	if !bytes.Equal(pkScript[2:], schnorr.SerializePubKey(outputKey)) {
		return false, signFailure(idx, fmt.Errorf("%w: taproot "+
			"output is not a key path spend of this key",
			ErrUnsupportedScript))
	}

	sig, err := txscript.RawTxInTaprootSignature(
		s.packet.UnsignedTx, s.sigHashes, idx, amount, pkScript, nil,
		txscript.SigHashDefault, privKey,
	)
	if err != nil {
		return false, signFailure(idx, err)
	}

	pInput.TaprootKeySpendSig = sig

	return true, nil
}

// ecdsaSignature signs a legacy or segwit v0 input. It also returns the
// redeem and witness scripts the updater needs to attach the signature.
func (s *inputSigner) ecdsaSignature(idx int, privKey *btcec.PrivateKey,
	pkScript []byte, amount int64) ([]byte, []byte, []byte, error) {

	var (
		tx            = s.packet.UnsignedTx
		pInput        = &s.packet.Inputs[idx]
		redeemScript  = pInput.RedeemScript
		witnessScript = pInput.WitnessScript
	)

	legacySig := func(subScript []byte) ([]byte, error) {
		return txscript.RawTxInSignature(
			tx, idx, subScript, txscript.SigHashAll, privKey,
		)
	}
	witnessSig := func(subScript []byte) ([]byte, error) {
		return txscript.RawTxInWitnessSignature(
			tx, s.sigHashes, idx, amount, subScript,
			txscript.SigHashAll, privKey,
		)
	}

	var (
		sig []byte
		err error
	)
	switch txscript.GetScriptClass(pkScript) {
	case txscript.PubKeyHashTy:
		sig, err = legacySig(pkScript)
		return sig, nil, nil, err

	// The witness program itself is the subscript of a p2wkh spend.
	case txscript.WitnessV0PubKeyHashTy:
		sig, err = witnessSig(pkScript)
		return sig, nil, nil, err

	case txscript.WitnessV0ScriptHashTy:
		if len(witnessScript) == 0 {
			return nil, nil, nil, fmt.Errorf("%w: p2wsh input "+
				"without witness script", ErrUnsupportedScript)
		}

		sig, err = witnessSig(witnessScript)
		return sig, nil, witnessScript, err

	case txscript.ScriptHashTy:
		switch {
		case len(redeemScript) == 0:
			return nil, nil, nil, fmt.Errorf("%w: p2sh input "+
				"without redeem script", ErrUnsupportedScript)

		// Nested p2wkh signs over its witness program.
		case txscript.IsPayToWitnessPubKeyHash(redeemScript):
			sig, err = witnessSig(redeemScript)
			return sig, redeemScript, nil, err

		case txscript.IsPayToWitnessScriptHash(redeemScript):
			if len(witnessScript) == 0 {
				return nil, nil, nil, fmt.Errorf("%w: nested "+
					"p2wsh input without witness script",
					ErrUnsupportedScript)
			}

			sig, err = witnessSig(witnessScript)
			return sig, redeemScript, witnessScript, err

		default:
			sig, err = legacySig(redeemScript)
			return sig, redeemScript, nil, err
		}
	}

	return nil, nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedScript,
		txscript.GetScriptClass(pkScript))
}
