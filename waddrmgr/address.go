// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package waddrmgr

import (
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/coldsign/netparams"
	"github.com/btcsuite/coldsign/signerr"
)

// InvalidPayload is shown in place of an address whose output script cannot
// be encoded for the network.
const InvalidPayload = "invalid payload"

// EncodeAddress encodes the hash or witness program carried by an output
// script as an address of the given type. The payload is a 20 byte hash for
// PubKeyHash, ScriptHash, NestedWitnessPubKey and WitnessPubKey, a 32 byte
// script hash for WitnessScript and a 32 byte x-only key for TaprootPubKey.
//
// On networks with a CashAddr prefix, PubKeyHash and ScriptHash are encoded
// as CashAddr.
func EncodeAddress(payload []byte, addrType AddressType,
	net netparams.Network) (string, error) {

	params := net.Params()

	if cash, ok := net.(netparams.CashAddrNetwork); ok {
		switch addrType {
		case PubKeyHash, ScriptHash:
			addr, err := EncodeCashAddr(
				cash.CashAddrPrefix(), addrType, payload,
			)
			if err != nil {
				return "", signerr.New(signerr.ErrAddress,
					"cashaddr", err)
			}

			return addr, nil
		}
	}

	var (
		addr btcutil.Address
		err  error
	)
	switch addrType {
	case PubKeyHash:
		addr, err = btcutil.NewAddressPubKeyHash(payload, params)

	case ScriptHash, NestedWitnessPubKey:
		addr, err = btcutil.NewAddressScriptHashFromHash(payload, params)

	case WitnessPubKey, WitnessScript, TaprootPubKey:
		if params.Bech32HRPSegwit == "" {
			return "", signerr.New(signerr.ErrWitnessProgram,
				addrType.String()+" on "+net.Name(), ErrNoSegwit)
		}

		switch addrType {
		case WitnessPubKey:
			addr, err = btcutil.NewAddressWitnessPubKeyHash(
				payload, params,
			)

		case WitnessScript:
			addr, err = btcutil.NewAddressWitnessScriptHash(
				payload, params,
			)

		default:
			addr, err = btcutil.NewAddressTaproot(payload, params)
		}

	default:
		return "", signerr.Newf(signerr.ErrAddress,
			"unsupported address type %v", addrType)
	}
	if err != nil {
		return "", signerr.New(signerr.ErrAddress, addrType.String(),
			err)
	}

	encoded := addr.EncodeAddress()

	// The segwit encoders swallow their errors and return an empty
	// string instead.
	if encoded == "" {
		return "", signerr.Newf(signerr.ErrBech32Decode,
			"unable to encode %v program", addrType)
	}

	return encoded, nil
}

// AddressForPubKey returns the single key address of the given type.
func AddressForPubKey(pub *btcec.PublicKey, addrType AddressType,
	net netparams.Network) (string, error) {

	switch addrType {
	case PubKeyHash, WitnessPubKey:
		return EncodeAddress(
			btcutil.Hash160(pub.SerializeCompressed()), addrType,
			net,
		)

	case NestedWitnessPubKey:
		// The redeem script is the version 0 witness program of the
		// key hash.
		redeemScript, err := txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).
			AddData(btcutil.Hash160(pub.SerializeCompressed())).
			Script()
		if err != nil {
			return "", signerr.New(signerr.ErrAddress,
				"nested witness redeem script", err)
		}

		return EncodeAddress(
			btcutil.Hash160(redeemScript), addrType, net,
		)

	case TaprootPubKey:
		outputKey := txscript.ComputeTaprootKeyNoScript(pub)

		return EncodeAddress(
			schnorr.SerializePubKey(outputKey), addrType, net,
		)
	}

	return "", signerr.Newf(signerr.ErrAddress,
		"%v is not a single key address type", addrType)
}

// ScriptAddress returns the address paying to an output script. Scripts
// without an address form, like data carriers and bare multisig, are
// rejected with ErrInvalidOutput.
func ScriptAddress(pkScript []byte, net netparams.Network) (string, error) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(
		pkScript, net.Params(),
	)
	if err != nil {
		return "", signerr.New(signerr.ErrInvalidOutput,
			"unable to parse output script", err)
	}

	var addrType AddressType
	switch class {
	case txscript.PubKeyHashTy:
		addrType = PubKeyHash

	case txscript.ScriptHashTy:
		addrType = ScriptHash

	case txscript.WitnessV0PubKeyHashTy:
		addrType = WitnessPubKey

	case txscript.WitnessV0ScriptHashTy:
		addrType = WitnessScript

	case txscript.WitnessV1TaprootTy:
		addrType = TaprootPubKey

	case txscript.PubKeyTy:
		// Pay to bare key is shown as the address of its key hash.
		if len(addrs) != 1 {
			break
		}

		return EncodeAddress(
			btcutil.Hash160(addrs[0].ScriptAddress()), PubKeyHash,
			net,
		)

	default:
		return "", signerr.Newf(signerr.ErrInvalidOutput,
			"no address for %v script", class)
	}

	if len(addrs) != 1 {
		return "", signerr.Newf(signerr.ErrInvalidOutput,
			"malformed %v script", class)
	}

	return EncodeAddress(addrs[0].ScriptAddress(), addrType, net)
}

// DisplayAddress is like ScriptAddress but never fails. Scripts that cannot
// be encoded are shown as InvalidPayload.
func DisplayAddress(pkScript []byte, net netparams.Network) string {
	addr, err := ScriptAddress(pkScript, net)
	if err != nil {
		log.Debugf("Showing %x as %q: %v", pkScript, InvalidPayload,
			err)

		return InvalidPayload
	}

	return addr
}

// AddressScript returns the output script paying to an address of the
// network. It is the reverse of ScriptAddress: CashAddr networks accept both
// the CashAddr and the legacy form, and segwit addresses are decoded with the
// network's own human readable part.
func AddressScript(addr string, net netparams.Network) ([]byte, error) {
	params := net.Params()

	var (
		decoded btcutil.Address
		err     error
	)
	switch {
	case isCashAddr(addr, net):
		decoded, err = decodeCashAddr(addr, net)

	case params.Bech32HRPSegwit != "" && strings.HasPrefix(
		strings.ToLower(addr), params.Bech32HRPSegwit+"1",
	):
		decoded, err = decodeSegwitAddr(addr, params.Bech32HRPSegwit, net)

	default:
		decoded, err = btcutil.DecodeAddress(addr, params)
		if err == nil && !decoded.IsForNet(params) {
			return nil, signerr.Newf(signerr.ErrAddress,
				"%s is not a %s address", addr, net.Name())
		}
	}
	if err != nil {
		return nil, signerr.New(signerr.ErrAddress, addr, err)
	}

	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, signerr.New(signerr.ErrAddress, addr, err)
	}

	return script, nil
}

// isCashAddr reports whether addr is in the CashAddr form of the network,
// with or without its prefix.
func isCashAddr(addr string, net netparams.Network) bool {
	cash, ok := net.(netparams.CashAddrNetwork)
	if !ok {
		return false
	}

	if strings.Contains(addr, ":") {
		return true
	}

	_, _, err := DecodeCashAddr(addr, cash.CashAddrPrefix())

	return err == nil
}

// decodeCashAddr decodes a CashAddr string into its legacy address.
func decodeCashAddr(addr string, net netparams.Network) (btcutil.Address,
	error) {

	cash := net.(netparams.CashAddrNetwork)
	addrType, hash, err := DecodeCashAddr(addr, cash.CashAddrPrefix())
	if err != nil {
		return nil, err
	}

	if addrType == ScriptHash {
		return btcutil.NewAddressScriptHashFromHash(hash, net.Params())
	}

	return btcutil.NewAddressPubKeyHash(hash, net.Params())
}

// decodeSegwitAddr decodes a segwit address with the given human readable
// part. Version 0 programs use bech32, later versions bech32m.
func decodeSegwitAddr(addr, hrp string, net netparams.Network) (
	btcutil.Address, error) {

	gotHRP, data, encoding, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return nil, err
	}
	if gotHRP != hrp || len(data) == 0 {
		return nil, signerr.Newf(signerr.ErrBech32Decode,
			"%s is not a %s address", addr, net.Name())
	}

	version := data[0]
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, err
	}

	params := net.Params()
	switch {
	case version == 0 && encoding == bech32.Version0 && len(program) == 20:
		return btcutil.NewAddressWitnessPubKeyHash(program, params)

	case version == 0 && encoding == bech32.Version0 && len(program) == 32:
		return btcutil.NewAddressWitnessScriptHash(program, params)

	case version == 1 && encoding == bech32.VersionM && len(program) == 32:
		return btcutil.NewAddressTaproot(program, params)
	}

	return nil, signerr.Newf(signerr.ErrBech32Decode,
		"unsupported witness program version %d of %d bytes", version,
		len(program))
}

// IsNullData reports whether the script is a provably unspendable data
// carrier output.
func IsNullData(pkScript []byte) bool {
	return txscript.GetScriptClass(pkScript) == txscript.NullDataTy
}
