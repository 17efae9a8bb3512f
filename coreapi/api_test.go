// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coreapi

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coldsign/waddrmgr"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"

	testFingerprint = "73c5da0a"
)

// seedHex returns the hex seed of the test mnemonic with a passphrase.
func seedHex(passphrase string) string {
	return hex.EncodeToString(bip39.NewSeed(testMnemonic, passphrase))
}

// requireData asserts a successful response and returns its data.
func requireData(t *testing.T, resp Response) any {
	t.Helper()

	require.True(t, resp.OK(), "%s: %s", resp.ErrorCode,
		resp.ErrorMessage)

	return resp.Data
}

// testPsbtHex returns a testnet packet spending 5992 sat from the first
// BIP84 receive address of the test seed to a 4000 sat output.
func testPsbtHex(t *testing.T) string {
	t.Helper()

	seed := bip39.NewSeed(testMnemonic, "")
	path := waddrmgr.MustParsePath("m/84'/1'/0'/0/0")

	key, err := waddrmgr.DeriveFromSeed(seed, path, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	defer key.Zero()

	pub, err := key.PubKey()
	require.NoError(t, err)
	compressed := pub.SerializeCompressed()

	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(compressed), &chaincfg.TestNet3Params,
	)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	fp, err := waddrmgr.ParseFingerprint(testFingerprint)
	require.NoError(t, err)

	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{1}},
	})
	prevTx.AddTxOut(wire.NewTxOut(5992, pkScript))

	packet, err := psbt.New(
		[]*wire.OutPoint{{Hash: prevTx.TxHash()}},
		[]*wire.TxOut{wire.NewTxOut(4000, pkScript)},
		2, 0, []uint32{wire.MaxTxInSequenceNum},
	)
	require.NoError(t, err)

	packet.Inputs[0].NonWitnessUtxo = prevTx
	packet.Inputs[0].WitnessUtxo = prevTx.TxOut[0]
	packet.Inputs[0].Bip32Derivation = []*psbt.Bip32Derivation{{
		PubKey:               compressed,
		MasterKeyFingerprint: fp,
		Bip32Path:            path,
	}}

	var buf bytes.Buffer
	require.NoError(t, packet.Serialize(&buf))

	return hex.EncodeToString(buf.Bytes())
}

// TestKeyCalls checks the fingerprint, xpub and address calls against the
// published BIP84 vectors.
func TestKeyCalls(t *testing.T) {
	t.Parallel()

	seed := seedHex("")

	fp := requireData(t, MasterFingerprint(seed))
	require.Equal(t, testFingerprint, fp)

	const expected = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"
	addr := requireData(t, AddressFromSeed(seed, "m/84'/0'/0'/0/0"))
	require.Equal(t, expected, addr)

	xpub := requireData(t, AccountXpub(seed, "m/84'/0'/0'")).(string)
	require.True(t, strings.HasPrefix(xpub, "xpub"))

	addr = requireData(t, AddressFromXpub(xpub, "m/84'/0'", 0, 0))
	require.Equal(t, expected, addr)

	resp := MasterFingerprint("zz")
	require.Equal(t, "GetKeyError", resp.ErrorCode)

	resp = AddressFromSeed(seed, "m/84'/0'/x")
	require.Equal(t, "InvalidHDPath", resp.ErrorCode)
}

// TestParseAndSign drives a packet through parse, check and sign.
func TestParseAndSign(t *testing.T) {
	t.Parallel()

	psbtHex := testPsbtHex(t)
	params := ContextParams{MasterFingerprint: testFingerprint}

	// Parse.
	view := requireData(t, ParsePsbt(psbtHex, params)).(*TxView)
	require.Equal(t, "0.00005992 tBTC", view.Detail.TotalInputAmount)
	require.Equal(t, "0.00004 tBTC", view.Detail.TotalOutputAmount)
	require.Equal(t, "0.00001992 tBTC", view.Detail.FeeAmount)
	require.Equal(t, "Bitcoin Testnet", view.Overview.Network)
	require.NotNil(t, view.Overview.SignStatus)
	require.Equal(t, "Unsigned", *view.Overview.SignStatus)
	require.NotNil(t, view.Detail.Inputs[0].Path)
	require.Equal(t, "m/84'/1'/0'/0/0", *view.Detail.Inputs[0].Path)

	encoded, err := json.Marshal(ParsePsbt(psbtHex, params))
	require.NoError(t, err)
	require.Contains(t, string(encoded),
		`"total_input_amount":"0.00005992 tBTC"`)
	require.NotContains(t, string(encoded), "error_code")

	// Check.
	require.Equal(t, true, requireData(t, CheckPsbt(psbtHex, params)))

	resp := CheckPsbt(psbtHex, ContextParams{MasterFingerprint: "00000000"})
	require.Equal(t, "NoMyInputs", resp.ErrorCode)

	// Sign, then parse the result given in base64.
	signed := requireData(t, SignPsbt(psbtHex, seedHex(""), params))
	signedView := signed.(*SignedView)
	require.Equal(t, []uint32{0}, signedView.SignedInputs)

	view = requireData(t, ParsePsbt(signedView.Psbt, params)).(*TxView)
	require.Equal(t, "Completed", *view.Overview.SignStatus)

	// Another seed owns nothing.
	resp = SignPsbt(psbtHex, seedHex("other"), ContextParams{})
	require.Equal(t, "NoMyInputs", resp.ErrorCode)
}

// TestParseErrors checks the error tags of malformed calls.
func TestParseErrors(t *testing.T) {
	t.Parallel()

	params := ContextParams{MasterFingerprint: testFingerprint}

	resp := ParsePsbt("cHNidP8=", params)
	require.False(t, resp.OK())
	require.Equal(t, "InvalidPsbt", resp.ErrorCode)
	require.Nil(t, resp.Data)

	resp = ParsePsbt(testPsbtHex(t), ContextParams{})
	require.Equal(t, "GetKeyError", resp.ErrorCode)

	resp = ParsePsbt(testPsbtHex(t), ContextParams{
		MasterFingerprint: testFingerprint,
		KnownKeys:         map[string]string{"m/84'": "xpubnotakey"},
	})
	require.False(t, resp.OK())
}

// multisigText returns a 2-of-2 P2WSH testnet descriptor of two seeds.
func multisigText(t *testing.T) string {
	t.Helper()

	lines := []string{
		"# Multisig setup file (created by Tester)",
		"Name: Shared",
		"Policy: 2 of 2",
		"Derivation: m/48'/1'/0'/2'",
		"Format: P2WSH",
	}
	for _, passphrase := range []string{"", "cosigner"} {
		seed := seedHex(passphrase)
		fp := requireData(t, MasterFingerprint(seed)).(string)
		xpub := requireData(t, AccountXpub(seed, "m/48'/1'/0'/2'"))

		lines = append(lines,
			strings.ToUpper(fp)+": "+xpub.(string))
	}

	return strings.Join(lines, "\n")
}

// TestMultisigCalls checks descriptor parsing, addresses and export.
func TestMultisigCalls(t *testing.T) {
	t.Parallel()

	text := multisigText(t)

	view := requireData(
		t, ParseMultisigConfig(text, testFingerprint),
	).(*MultisigView)
	require.Equal(t, "Tester", view.Creator)
	require.Equal(t, "Shared", view.Name)
	require.Equal(t, uint32(2), view.Threshold)
	require.Equal(t, "P2WSH", view.Format)
	require.Equal(t, "Bitcoin Testnet", view.Network)
	require.Len(t, view.Signers, 2)
	require.Len(t, view.VerifyCode, 8)

	addr := requireData(t, MultisigAddress(text, 0, 0)).(string)
	require.True(t, strings.HasPrefix(addr, "tb1q"))

	again := requireData(t, MultisigAddress(text, 0, 0))
	require.Equal(t, addr, again)

	// The exported descriptor describes the same wallet.
	exported := requireData(t, ExportMultisigConfig(text)).(string)
	reparsed := requireData(
		t, ParseMultisigConfig(exported, ""),
	).(*MultisigView)
	require.Equal(t, view.VerifyCode, reparsed.VerifyCode)

	resp := ParseMultisigConfig(text, "00000000")
	require.Equal(t, "MultiSigWalletNotMine", resp.ErrorCode)

	resp = ParseMultisigConfig(
		strings.Replace(text, "2 of 2", "3 of 2", 1), "",
	)
	require.Equal(t, "MultiSigWalletParseError", resp.ErrorCode)
}

// TestNetworks lists the default networks.
func TestNetworks(t *testing.T) {
	t.Parallel()

	views := requireData(t, Networks()).([]NetworkView)
	require.Equal(t, []NetworkView{
		{Name: "Bitcoin Mainnet", Unit: "BTC", CoinType: 0},
		{Name: "Bitcoin Testnet", Unit: "tBTC", CoinType: 1},
		{Name: "Litecoin", Unit: "LTC", CoinType: 2},
		{Name: "Dash", Unit: "DASH", CoinType: 5},
		{Name: "Bitcoin Cash", Unit: "BCH", CoinType: 145},
	}, views)

	// Paths outside the standard scopes resolve their coin type in the
	// same registry.
	seed := seedHex("")
	xpub := requireData(t, AccountXpub(seed, "m/48'/2'/0'/2'")).(string)
	require.NotEmpty(t, xpub)

	resp := AccountXpub(seed, "m/48'/3'/0'/2'")
	require.Equal(t, "InvalidHDPath", resp.ErrorCode)
}

// TestAddressScript decodes addresses of several networks to their output
// scripts.
func TestAddressScript(t *testing.T) {
	t.Parallel()

	legacyScript := func(addr string) string {
		decoded, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
		require.NoError(t, err)
		script, err := txscript.PayToAddrScript(decoded)
		require.NoError(t, err)

		return hex.EncodeToString(script)
	}

	testCases := []struct {
		name     string
		address  string
		network  string
		expected string
	}{{
		name:     "p2wpkh",
		address:  "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		network:  "Bitcoin Mainnet",
		expected: legacyScript("bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"),
	}, {
		name:     "cashaddr p2pkh",
		address:  "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a",
		network:  "Bitcoin Cash",
		expected: legacyScript("1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu"),
	}, {
		name:     "cashaddr p2sh without prefix",
		address:  "ppm2qsznhks23z7629mms6s4cwef74vcwvn0h829pq",
		network:  "Bitcoin Cash",
		expected: legacyScript("3CWFddi6m4ndiGyKqzYvsFYagqDLPVMTzC"),
	}, {
		name:     "bitcoin cash legacy",
		address:  "1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu",
		network:  "Bitcoin Cash",
		expected: legacyScript("1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu"),
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			script := requireData(
				t, AddressScript(tc.address, tc.network),
			)
			require.Equal(t, tc.expected, script)
		})
	}

	// A mainnet address is not a testnet one.
	resp := AddressScript(
		"bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", "Bitcoin Testnet",
	)
	require.Equal(t, "AddressError", resp.ErrorCode)

	resp = AddressScript("1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu", "Namecoin")
	require.Equal(t, "InvalidInput", resp.ErrorCode)
}
