// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/btcsuite/coldsign/multisig"
	"github.com/btcsuite/coldsign/netparams"
	"github.com/btcsuite/coldsign/pkg/btcunit"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/btcsuite/coldsign/waddrmgr"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// singleKeyTypes are the address types a single key change output may use.
var singleKeyTypes = []waddrmgr.AddressType{
	waddrmgr.PubKeyHash,
	waddrmgr.WitnessPubKey,
	waddrmgr.NestedWitnessPubKey,
	waddrmgr.TaprootPubKey,
}

// derivation is a BIP32 derivation record of an input or output, of either
// the ECDSA or the taproot kind.
type derivation struct {
	// pubKey is a 33 byte compressed key, or a 32 byte x-only key when
	// xOnly is set.
	pubKey      []byte
	fingerprint uint32
	path        waddrmgr.DerivationPath
	xOnly       bool
}

// matches reports whether a compressed public key is the one recorded.
func (d *derivation) matches(compressed []byte) bool {
	if d.xOnly {
		return len(compressed) == 33 &&
			bytes.Equal(d.pubKey, compressed[1:])
	}

	return bytes.Equal(d.pubKey, compressed)
}

func inputDerivations(pInput *psbt.PInput) []derivation {
	ds := make([]derivation, 0, len(pInput.Bip32Derivation)+
		len(pInput.TaprootBip32Derivation))

	for _, d := range pInput.Bip32Derivation {
		ds = append(ds, derivation{
			pubKey:      d.PubKey,
			fingerprint: d.MasterKeyFingerprint,
			path:        d.Bip32Path,
		})
	}
	for _, d := range pInput.TaprootBip32Derivation {
		ds = append(ds, derivation{
			pubKey:      d.XOnlyPubKey,
			fingerprint: d.MasterKeyFingerprint,
			path:        d.Bip32Path,
			xOnly:       true,
		})
	}

	return ds
}

func outputDerivations(pOutput *psbt.POutput) []derivation {
	ds := make([]derivation, 0, len(pOutput.Bip32Derivation)+
		len(pOutput.TaprootBip32Derivation))

	for _, d := range pOutput.Bip32Derivation {
		ds = append(ds, derivation{
			pubKey:      d.PubKey,
			fingerprint: d.MasterKeyFingerprint,
			path:        d.Bip32Path,
		})
	}
	for _, d := range pOutput.TaprootBip32Derivation {
		ds = append(ds, derivation{
			pubKey:      d.XOnlyPubKey,
			fingerprint: d.MasterKeyFingerprint,
			path:        d.Bip32Path,
			xOnly:       true,
		})
	}

	return ds
}

// ownDerivations returns the records carrying our master fingerprint.
func (c *ParseContext) ownDerivations(ds []derivation) []derivation {
	var own []derivation
	for _, d := range ds {
		if c.isMine(d.fingerprint) {
			own = append(own, d)
		}
	}

	return own
}

// signingScript returns the script whose template decides how an input is
// signed: the witness script, else the redeem script, else the spent output
// script.
func signingScript(pInput *psbt.PInput, pkScript []byte) []byte {
	switch {
	case len(pInput.WitnessScript) > 0:
		return pInput.WitnessScript

	case len(pInput.RedeemScript) > 0:
		return pInput.RedeemScript

	default:
		return pkScript
	}
}

// inputSignStatus counts the signatures an input holds. Finalized inputs
// are complete by definition.
func inputSignStatus(pInput *psbt.PInput, pkScript []byte) (SignStatus,
	bool, error) {

	script := signingScript(pInput, pkScript)
	if txscript.GetScriptClass(script) == txscript.MultiSigTy {
		_, required, err := txscript.CalcMultiSigStats(script)
		if err != nil {
			return SignStatus{}, false, signerr.New(
				signerr.ErrInvalidInput, "malformed multisig "+
					"script", err,
			)
		}

		status := SignStatus{
			Signed:   uint32(len(pInput.PartialSigs)),
			Required: uint32(required),
		}
		if isFinalized(pInput) {
			status.Signed = status.Required
		}

		return status, true, nil
	}

	status := SignStatus{Required: 1}
	if isFinalized(pInput) || len(pInput.PartialSigs) > 0 ||
		len(pInput.TaprootKeySpendSig) > 0 ||
		len(pInput.TaprootScriptSpendSig) > 0 {

		status.Signed = 1
	}

	return status, false, nil
}

// ParsePsbt decodes a binary or base64 PSBT and builds its overview and
// detail views.
func ParsePsbt(raw []byte, ctx *ParseContext) (*ParsedTx, error) {
	packet, err := DecodePsbt(raw)
	if err != nil {
		return nil, err
	}

	return ParsePacket(packet, ctx)
}

// ParsePacket builds the overview and detail views of a decoded PSBT. The
// network is taken from the first input's derivation record.
func ParsePacket(packet *psbt.Packet, ctx *ParseContext) (*ParsedTx, error) {
	net, err := DetermineNetwork(packet)
	if err != nil {
		return nil, err
	}

	if len(packet.UnsignedTx.TxOut) == 0 {
		return nil, signerr.Newf(signerr.ErrNoOutputs,
			"psbt has no outputs")
	}

	inputs := make([]ParsedInput, 0, len(packet.Inputs))
	for i := range packet.Inputs {
		in, err := parseInput(packet, i, ctx, net)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	outputs := make([]ParsedOutput, 0, len(packet.Outputs))
	for i := range packet.Outputs {
		out, err := parseOutput(packet, i, ctx, net)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	tx, err := Normalize(inputs, outputs, net)
	if err != nil {
		return nil, err
	}

	if !tx.Overview.IsMultisig {
		estimateVirtualSize(packet).WhenSome(func(size btcunit.VByte) {
			rate := btcunit.CalcSatPerVByte(
				btcutil.Amount(tx.Detail.FeeValue), size,
			)

			tx.Detail.VirtualSize = fn.Some(size.String())
			tx.Detail.FeeRate = fn.Some(rate.String())
		})
	}

	log.Debugf("Parsed psbt %v on %v: %d inputs, %d outputs, status %v",
		packet.UnsignedTx.TxHash(), net.Name(), len(inputs),
		len(outputs), tx.Overview.SignStatus.UnwrapOr("none"))

	return tx, nil
}

func parseInput(packet *psbt.Packet, idx int, ctx *ParseContext,
	net netparams.Network) (ParsedInput, error) {

	pInput := &packet.Inputs[idx]

	utxo, err := spentOutput(packet, idx)
	if err != nil {
		return ParsedInput{}, err
	}
	value := uint64(utxo.Value)

	status, isMultisig, err := inputSignStatus(pInput, utxo.PkScript)
	if err != nil {
		return ParsedInput{}, err
	}

	in := ParsedInput{
		Address:    fn.None[string](),
		Amount:     btcunit.FormatAmount(value, net.Unit()),
		Value:      value,
		Path:       fn.None[string](),
		SignStatus: status,
		IsMultisig: isMultisig,
	}

	if addr, err := waddrmgr.ScriptAddress(utxo.PkScript, net); err == nil {
		in.Address = fn.Some(addr)
	}

	own := ctx.ownDerivations(inputDerivations(pInput))
	if len(own) > 0 {
		in.Path = fn.Some(own[0].path.String())
	}

	return in, nil
}

func parseOutput(packet *psbt.Packet, idx int, ctx *ParseContext,
	net netparams.Network) (ParsedOutput, error) {

	txOut := packet.UnsignedTx.TxOut[idx]
	pOutput := &packet.Outputs[idx]

	// CheckOutput also rejects values outside the money range.
	isDust := false
	err := txrules.CheckOutput(txOut, txrules.DefaultRelayFeePerKb)
	switch {
	case errors.Is(err, txrules.ErrOutputIsDust):
		isDust = true

	case err != nil:
		return ParsedOutput{}, signerr.New(signerr.ErrInvalidOutput,
			"output value", err)
	}
	value := uint64(txOut.Value)

	out := ParsedOutput{
		Address: fn.None[string](),
		Amount:  btcunit.FormatAmount(value, net.Unit()),
		Value:   value,
		Path:    fn.None[string](),
		IsDust:  isDust,
	}

	if !waddrmgr.IsNullData(txOut.PkScript) {
		out.Address = fn.Some(
			waddrmgr.DisplayAddress(txOut.PkScript, net),
		)
	}

	own := ctx.ownDerivations(outputDerivations(pOutput))
	for i := range own {
		d := &own[i]

		ok, isMultisig := ctx.verifyChange(d, txOut.PkScript, net)
		if !ok {
			log.Debugf("Output %d claims path %v but does not "+
				"derive from the wallet", idx, d.path)

			continue
		}

		out.Path = fn.Some(d.path.String())
		out.IsMultisig = isMultisig

		break
	}

	return out, nil
}

// verifyChange reports whether an output script pays back to the wallet at
// the recorded derivation. The second return value is set when the output
// belongs to the configured multisig wallet.
func (c *ParseContext) verifyChange(d *derivation, pkScript []byte,
	net netparams.Network) (bool, bool) {

	if cfg, ok := c.multisigConfig(); ok {
		if matchMultisig(cfg, d.path, pkScript) {
			return true, true
		}
	}

	compressed, ok := c.deriveKnown(d.path)
	if !ok || !d.matches(compressed) {
		return false, false
	}

	pub, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return false, false
	}

	addr, err := waddrmgr.ScriptAddress(pkScript, net)
	if err != nil {
		return false, false
	}

	for _, addrType := range singleKeyTypes {
		// An x-only record can only describe a taproot output.
		if d.xOnly && addrType != waddrmgr.TaprootPubKey {
			continue
		}

		expected, err := waddrmgr.AddressForPubKey(pub, addrType, net)
		if err != nil {
			continue
		}
		if expected == addr {
			return true, false
		}
	}

	return false, false
}

// multisigConfig unwraps the multisig wallet of the context.
func (c *ParseContext) multisigConfig() (*multisig.WalletConfig, bool) {
	cfg := c.Multisig.UnwrapOr(nil)

	return cfg, cfg != nil
}

// matchMultisig reports whether a script belongs to the multisig wallet at
// the change and index given by the last two components of path.
func matchMultisig(cfg *multisig.WalletConfig, path waddrmgr.DerivationPath,
	script []byte) bool {

	if len(path) < 2 {
		return false
	}
	change, index := path[len(path)-2], path[len(path)-1]

	ok, err := cfg.MatchScript(script, change, index)
	if err != nil {
		log.Debugf("Unable to match multisig script at %v: %v", path,
			err)

		return false
	}

	return ok
}

// estimateVirtualSize returns the signed size of a transaction whose inputs
// are all single key spends of a known type. Other transactions get none.
func estimateVirtualSize(packet *psbt.Packet) fn.Option[btcunit.VByte] {
	var p2pkh, p2tr, p2wkh, np2wkh int
	for i := range packet.Inputs {
		utxo, err := spentOutput(packet, i)
		if err != nil {
			return fn.None[btcunit.VByte]()
		}

		switch txscript.GetScriptClass(utxo.PkScript) {
		case txscript.PubKeyHashTy:
			p2pkh++

		case txscript.WitnessV0PubKeyHashTy:
			p2wkh++

		case txscript.WitnessV1TaprootTy:
			p2tr++

		case txscript.ScriptHashTy:
			redeem := packet.Inputs[i].RedeemScript
			if !txscript.IsPayToWitnessPubKeyHash(redeem) {
				return fn.None[btcunit.VByte]()
			}
			np2wkh++

		default:
			return fn.None[btcunit.VByte]()
		}
	}

	size := txsizes.EstimateVirtualSize(
		p2pkh, p2tr, p2wkh, np2wkh, packet.UnsignedTx.TxOut, 0,
	)
	if size <= 0 {
		return fn.None[btcunit.VByte]()
	}

	return fn.Some(btcunit.NewVByte(uint64(size)))
}
