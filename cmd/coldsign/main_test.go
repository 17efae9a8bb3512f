// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/coldsign/coreapi"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon " +
	"abandon abandon abandon abandon abandon about"

// testApp is an app with a configuration file and a mnemonic file in a
// temporary directory.
type testApp struct {
	*app

	dir        string
	configFile string
	out        *bytes.Buffer
}

func newTestApp(t *testing.T, options ...string) *testApp {
	t.Helper()

	dir := t.TempDir()
	mnemonicFile := filepath.Join(dir, "mnemonic")
	require.NoError(t, os.WriteFile(
		mnemonicFile, []byte("  "+strings.ToUpper(testMnemonic)+"\n"),
		0600,
	))

	lines := append([]string{
		"[Application Options]",
		"nologfile=true",
		"mnemonicfile=" + mnemonicFile,
	}, options...)

	configFile := filepath.Join(dir, "coldsign.conf")
	require.NoError(t, os.WriteFile(
		configFile, []byte(strings.Join(lines, "\n")+"\n"), 0600,
	))

	out := &bytes.Buffer{}
	a := newApp(strings.NewReader(""), out)
	a.prompt = func(string) ([]byte, error) {
		t.Fatal("unexpected prompt")
		return nil, nil
	}

	return &testApp{app: a, dir: dir, configFile: configFile, out: out}
}

// exec runs a command line and decodes its response.
func (ta *testApp) exec(t *testing.T, args ...string) (coreapi.Response,
	error) {

	t.Helper()

	ta.out.Reset()
	err := ta.run(append([]string{"-C", ta.configFile}, args...))

	var resp coreapi.Response
	if ta.out.Len() > 0 {
		require.NoError(t, json.Unmarshal(ta.out.Bytes(), &resp))
	}

	return resp, err
}

// TestFingerprintCommand reads the mnemonic named in the configuration file.
func TestFingerprintCommand(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.exec(t, "fingerprint")
	require.NoError(t, err)
	require.Equal(t, "73c5da0a", resp.Data)

	// A passphrase gives another wallet.
	ta.prompt = func(prompt string) ([]byte, error) {
		require.Contains(t, prompt, "passphrase")
		return []byte("cosigner"), nil
	}
	resp, err = ta.exec(t, "-p", "fingerprint")
	require.NoError(t, err)
	require.NotEqual(t, "73c5da0a", resp.Data)
}

// TestAddressCommand derives the same address from the seed and from the
// account key.
func TestAddressCommand(t *testing.T) {
	const expected = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"

	ta := newTestApp(t)

	resp, err := ta.exec(t, "address", "--path", "m/84'/0'/0'/0/0")
	require.NoError(t, err)
	require.Equal(t, expected, resp.Data)

	resp, err = ta.exec(t, "xpub", "--path", "m/84'/0'/0'")
	require.NoError(t, err)
	xpub, ok := resp.Data.(string)
	require.True(t, ok)

	resp, err = ta.exec(t, "address", "--xpub", xpub, "--path", "m/84'/0'",
		"--change", "0", "--index", "0")
	require.NoError(t, err)
	require.Equal(t, expected, resp.Data)

	// Failures print the error code and fail the command.
	resp, err = ta.exec(t, "address", "--path", "m/84'/0'/x")
	require.Error(t, err)
	require.Equal(t, "InvalidHDPath", resp.ErrorCode)
}

// TestMultisigCommands runs the descriptor commands on a file.
func TestMultisigCommands(t *testing.T) {
	ta := newTestApp(t, "fingerprint=73c5da0a")

	resp, err := ta.exec(t, "xpub", "--path", "m/48'/0'/0'/2'")
	require.NoError(t, err)
	xpub := resp.Data.(string)

	text := strings.Join([]string{
		"Name: Solo",
		"Policy: 1 of 1",
		"Derivation: m/48'/0'/0'/2'",
		"Format: P2WSH",
		"73C5DA0A: " + xpub,
	}, "\n")
	descriptor := filepath.Join(ta.dir, "solo.txt")
	require.NoError(t, os.WriteFile(descriptor, []byte(text), 0600))

	resp, err = ta.exec(t, "msinfo", descriptor)
	require.NoError(t, err)
	info := resp.Data.(map[string]any)
	require.Equal(t, "Solo", info["name"])
	require.Equal(t, "Bitcoin Mainnet", info["network"])

	resp, err = ta.exec(t, "msaddr", "--index", "1", descriptor)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.Data.(string), "bc1q"))

	resp, err = ta.exec(t, "msexport", descriptor)
	require.NoError(t, err)
	require.Contains(t, resp.Data.(string), "Policy: 1 of 1")

	// Too many arguments.
	_, err = ta.exec(t, "msexport", descriptor, descriptor)
	require.ErrorIs(t, err, errUsage)
}

// TestHelp prints the usage and succeeds.
func TestHelp(t *testing.T) {
	ta := newTestApp(t)

	ta.out.Reset()
	require.NoError(t, ta.run([]string{"-C", ta.configFile, "--help"}))
	require.Contains(t, ta.out.String(), "sign")
}

// TestParseAndSetDebugLevels checks the accepted debug level forms.
func TestParseAndSetDebugLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{level: "debug", valid: true},
		{level: "AMGR=trace,WLLT=info", valid: true},
		{level: "loud", valid: false},
		{level: "AMGR=loud", valid: false},
		{level: "NOPE=debug", valid: false},
		{level: "AMGR", valid: false},
		{level: "AMGR=debug=info", valid: false},
	}

	for _, test := range tests {
		err := parseAndSetDebugLevels(test.level)
		if test.valid {
			require.NoError(t, err, test.level)
		} else {
			require.Error(t, err, test.level)
		}
	}

	setLogLevels(defaultLogLevel)
}

// TestNetworkCommands lists the networks and decodes an address of one.
func TestNetworkCommands(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.exec(t, "networks")
	require.NoError(t, err)
	networks := resp.Data.([]any)
	require.Len(t, networks, 5)
	require.Equal(t, "Bitcoin Cash",
		networks[4].(map[string]any)["name"])

	resp, err = ta.exec(t, "script",
		"bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.Data.(string), "0014"))

	resp, err = ta.exec(t, "script", "--network", "Bitcoin Cash",
		"bitcoincash:qqyx49mu0kkn9ftfj6hje6g2wfer34yfnq5tahq3q6")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.Data.(string), "76a914"))

	resp, err = ta.exec(t, "script", "--network", "Bitcoin Testnet",
		"bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu")
	require.Error(t, err)
	require.Equal(t, "AddressError", resp.ErrorCode)

	_, err = ta.exec(t, "script")
	require.ErrorIs(t, err, errUsage)
}
