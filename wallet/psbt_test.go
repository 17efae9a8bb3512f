// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coldsign/netparams"
	"github.com/btcsuite/coldsign/waddrmgr"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

const (
	// testMnemonic is the BIP39 test mnemonic with master fingerprint
	// 73c5da0a.
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"

	testFingerprintHex = "73c5da0a"
)

// testSeed returns the seed of testMnemonic with the given passphrase.
func testSeed(t *testing.T, passphrase string) []byte {
	t.Helper()

	seed, err := bip39.NewSeedWithErrorChecking(testMnemonic, passphrase)
	require.NoError(t, err)

	return seed
}

// testFingerprint returns the master fingerprint of a seed.
func testFingerprint(t *testing.T, seed []byte) uint32 {
	t.Helper()

	fp, err := waddrmgr.MasterFingerprint(seed)
	require.NoError(t, err)

	return fp
}

// accountXpub returns the extended public key at path for a seed.
func accountXpub(t *testing.T, seed []byte, path string,
	params *chaincfg.Params) string {

	t.Helper()

	key, err := waddrmgr.DeriveFromSeed(
		seed, waddrmgr.MustParsePath(path), params,
	)
	require.NoError(t, err)
	defer key.Zero()

	pub, err := key.Neuter()
	require.NoError(t, err)

	return pub.String()
}

// testKey is a key of the test wallet at a known path.
type testKey struct {
	fingerprint uint32
	path        waddrmgr.DerivationPath
	pub         *btcec.PublicKey
}

// deriveTestKey derives the public key at path for a seed.
func deriveTestKey(t *testing.T, seed []byte, path string) testKey {
	t.Helper()

	parsed := waddrmgr.MustParsePath(path)
	key, err := waddrmgr.DeriveFromSeed(
		seed, parsed, &chaincfg.TestNet3Params,
	)
	require.NoError(t, err)
	defer key.Zero()

	pub, err := key.PubKey()
	require.NoError(t, err)

	return testKey{
		fingerprint: testFingerprint(t, seed),
		path:        parsed,
		pub:         pub,
	}
}

// derivation returns the PSBT derivation record of the key.
func (k testKey) derivation() *psbt.Bip32Derivation {
	return &psbt.Bip32Derivation{
		PubKey:               k.pub.SerializeCompressed(),
		MasterKeyFingerprint: k.fingerprint,
		Bip32Path:            k.path,
	}
}

// payToAddrScript returns the output script of a single key address.
func payToAddrScript(t *testing.T, pub *btcec.PublicKey,
	addrType waddrmgr.AddressType, net netparams.Network) []byte {

	t.Helper()

	encoded, err := waddrmgr.AddressForPubKey(pub, addrType, net)
	require.NoError(t, err)

	addr, err := btcutil.DecodeAddress(encoded, net.Params())
	require.NoError(t, err)

	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	return pkScript
}

// testInput describes an input to put in a test packet.
type testInput struct {
	key      testKey
	addrType waddrmgr.AddressType
	value    int64
}

// testOutput describes an output to put in a test packet. Outputs with a
// change key carry its derivation record.
type testOutput struct {
	value    int64
	pkScript []byte
	change   *testInput
}

// fundingTx returns a transaction paying value to pkScript at output 0.
// The tag makes every funding transaction unique.
func fundingTx(pkScript []byte, value int64, tag byte) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  chainhash.Hash{tag},
			Index: 0,
		},
	})
	tx.AddTxOut(wire.NewTxOut(value, pkScript))

	return tx
}

// buildPacket assembles an unsigned packet from the inputs and outputs,
// decorated the way a watch-only coordinator does it.
func buildPacket(t *testing.T, inputs []testInput,
	outputs []testOutput) *psbt.Packet {

	t.Helper()

	var (
		outPoints []*wire.OutPoint
		prevTxs   []*wire.MsgTx
		txOuts    []*wire.TxOut
		sequences []uint32
	)
	for i, in := range inputs {
		pkScript := payToAddrScript(
			t, in.key.pub, in.addrType, netparams.BitcoinTestnet,
		)
		prevTx := fundingTx(pkScript, in.value, byte(i+1))

		prevTxs = append(prevTxs, prevTx)
		outPoints = append(outPoints, &wire.OutPoint{
			Hash:  prevTx.TxHash(),
			Index: 0,
		})
		sequences = append(sequences, wire.MaxTxInSequenceNum)
	}
	for _, out := range outputs {
		txOuts = append(txOuts, wire.NewTxOut(out.value, out.pkScript))
	}

	packet, err := psbt.New(outPoints, txOuts, 2, 0, sequences)
	require.NoError(t, err)

	for i, in := range inputs {
		decorateInput(
			t, &packet.Inputs[i], prevTxs[i], in.key, in.addrType,
		)
	}
	for i, out := range outputs {
		if out.change == nil {
			continue
		}

		packet.Outputs[i] = *outputInfo(out.change.key, out.pkScript)
	}

	return packet
}

// decorateInput adds the UTXO and derivation information a signer needs.
func decorateInput(t *testing.T, in *psbt.PInput, prevTx *wire.MsgTx,
	key testKey, addrType waddrmgr.AddressType) {

	t.Helper()

	utxo := prevTx.TxOut[0]

	switch addrType {
	case waddrmgr.PubKeyHash:
		in.NonWitnessUtxo = prevTx
		in.Bip32Derivation = []*psbt.Bip32Derivation{key.derivation()}

	case waddrmgr.WitnessPubKey, waddrmgr.NestedWitnessPubKey:
		// Segwit v0 carries the full previous transaction as well as
		// the witness UTXO.
		in.NonWitnessUtxo = prevTx
		in.WitnessUtxo = &wire.TxOut{
			Value:    utxo.Value,
			PkScript: utxo.PkScript,
		}
		in.SighashType = txscript.SigHashAll
		in.Bip32Derivation = []*psbt.Bip32Derivation{key.derivation()}

		// A nested input needs its witness program as the redeem
		// script.
		if addrType == waddrmgr.NestedWitnessPubKey {
			witnessProgram, err := txscript.NewScriptBuilder().
				AddOp(txscript.OP_0).
				AddData(btcutil.Hash160(
					key.pub.SerializeCompressed(),
				)).
				Script()
			require.NoError(t, err)

			in.RedeemScript = witnessProgram
		}

	case waddrmgr.TaprootPubKey:
		derivation := key.derivation()

		in.WitnessUtxo = &wire.TxOut{
			Value:    utxo.Value,
			PkScript: utxo.PkScript,
		}
		in.SighashType = txscript.SigHashDefault
		in.Bip32Derivation = []*psbt.Bip32Derivation{derivation}
		in.TaprootBip32Derivation = []*psbt.TaprootBip32Derivation{{
			XOnlyPubKey:          derivation.PubKey[1:],
			MasterKeyFingerprint: derivation.MasterKeyFingerprint,
			Bip32Path:            derivation.Bip32Path,
		}}

	default:
		t.Fatalf("unsupported input type %v", addrType)
	}
}

// outputInfo returns the derivation information of a change output.
func outputInfo(key testKey, pkScript []byte) *psbt.POutput {
	derivation := key.derivation()
	out := &psbt.POutput{
		Bip32Derivation: []*psbt.Bip32Derivation{derivation},
	}

	if txscript.IsPayToTaproot(pkScript) {
		schnorrPubKey := derivation.PubKey[1:]
		out.TaprootBip32Derivation = []*psbt.TaprootBip32Derivation{{
			XOnlyPubKey:          schnorrPubKey,
			MasterKeyFingerprint: derivation.MasterKeyFingerprint,
			Bip32Path:            derivation.Bip32Path,
		}}
		out.TaprootInternalKey = schnorrPubKey
	}

	return out
}

// externalScript returns an output script paying to a key outside the test
// wallet.
func externalScript(t *testing.T) []byte {
	t.Helper()

	other := deriveTestKey(t, testSeed(t, "other"), "m/84'/1'/0'/0/0")

	return payToAddrScript(
		t, other.pub, waddrmgr.WitnessPubKey, netparams.BitcoinTestnet,
	)
}

// serialize returns the binary form of a packet.
func serialize(t *testing.T, packet *psbt.Packet) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, packet.Serialize(&buf))

	return buf.Bytes()
}

// requireValidSpend finalizes a fully signed packet and runs every input
// through the script engine.
func requireValidSpend(t *testing.T, packet *psbt.Packet) {
	t.Helper()

	fetcher, err := PsbtPrevOutputFetcher(packet)
	require.NoError(t, err)

	require.NoError(t, psbt.MaybeFinalizeAll(packet), spew.Sdump(packet))

	tx, err := psbt.Extract(packet)
	require.NoError(t, err)

	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	for idx, txIn := range tx.TxIn {
		utxo := fetcher.FetchPrevOutput(txIn.PreviousOutPoint)
		require.NotNil(t, utxo)

		vm, err := txscript.NewEngine(
			utxo.PkScript, tx, idx, txscript.StandardVerifyFlags,
			nil, sigHashes, utxo.Value, fetcher,
		)
		require.NoError(t, err)
		require.NoError(t, vm.Execute(), "input %d", idx)
	}
}
