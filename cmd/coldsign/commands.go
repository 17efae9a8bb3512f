// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/coldsign/coreapi"
)

var errUsage = errors.New("wrong number of arguments")

// command describes one subcommand of the parser.
type command struct {
	name  string
	short string
	long  string
	data  any
}

func (a *app) commands() []command {
	return []command{{
		name:  "parse",
		short: "Describe a PSBT",
		long: "Decode a PSBT given in hex or base64 and print its " +
			"overview and details. Reads stdin when no file is given.",
		data: &parseCmd{app: a},
	}, {
		name:  "check",
		short: "Check that the wallet can sign a PSBT",
		data:  &checkCmd{app: a},
	}, {
		name:  "sign",
		short: "Sign a PSBT",
		long: "Sign every input of the PSBT that belongs to the wallet " +
			"and print the signed PSBT in base64.",
		data: &signCmd{app: a},
	}, {
		name:  "fingerprint",
		short: "Print the master key fingerprint of the wallet",
		data:  &fingerprintCmd{app: a},
	}, {
		name:  "xpub",
		short: "Print the extended public key at a path",
		data:  &xpubCmd{app: a},
	}, {
		name:  "address",
		short: "Print the address at a path",
		long: "Print the address at a full path of the wallet, or " +
			"below an account key given with --xpub.",
		data: &addressCmd{app: a},
	}, {
		name:  "script",
		short: "Print the output script paying to an address",
		data:  &scriptCmd{app: a},
	}, {
		name:  "networks",
		short: "List the supported networks",
		data:  &networksCmd{app: a},
	}, {
		name:  "msinfo",
		short: "Describe a multisig wallet descriptor",
		data:  &msInfoCmd{app: a},
	}, {
		name:  "msaddr",
		short: "Print a multisig wallet address",
		data:  &msAddrCmd{app: a},
	}, {
		name:  "msexport",
		short: "Print the canonical form of a multisig wallet descriptor",
		data:  &msExportCmd{app: a},
	}}
}

// print writes a response as JSON and turns failures into an error.
func (a *app) print(resp coreapi.Response) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}

	if !resp.OK() {
		return fmt.Errorf("%s: %s", resp.ErrorCode, resp.ErrorMessage)
	}

	return nil
}

// readArg reads the file named by the only argument, or stdin when the
// argument is missing or "-".
func (a *app) readArg(args []string) (string, error) {
	var (
		raw []byte
		err error
	)
	switch {
	case len(args) > 1:
		return "", errUsage

	case len(args) == 0 || args[0] == "-":
		raw, err = io.ReadAll(a.stdin)

	default:
		raw, err = os.ReadFile(cleanAndExpandPath(args[0]))
	}
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

// withSeed runs f with the hex encoded wallet seed.
func (a *app) withSeed(f func(seedHex string) coreapi.Response) error {
	seed, err := a.readSeed()
	if err != nil {
		return err
	}
	defer clear(seed)

	return a.print(f(hex.EncodeToString(seed)))
}

type parseCmd struct {
	app *app
}

func (c *parseCmd) Execute(args []string) error {
	psbt, err := c.app.readArg(args)
	if err != nil {
		return err
	}

	params, err := c.app.cfg.contextParams()
	if err != nil {
		return err
	}

	return c.app.print(coreapi.ParsePsbt(psbt, params))
}

type checkCmd struct {
	app *app
}

func (c *checkCmd) Execute(args []string) error {
	psbt, err := c.app.readArg(args)
	if err != nil {
		return err
	}

	params, err := c.app.cfg.contextParams()
	if err != nil {
		return err
	}

	return c.app.print(coreapi.CheckPsbt(psbt, params))
}

type signCmd struct {
	app *app
}

func (c *signCmd) Execute(args []string) error {
	psbt, err := c.app.readArg(args)
	if err != nil {
		return err
	}

	params, err := c.app.cfg.contextParams()
	if err != nil {
		return err
	}

	log.Infof("Signing psbt for wallet %q", params.MasterFingerprint)

	return c.app.withSeed(func(seedHex string) coreapi.Response {
		return coreapi.SignPsbt(psbt, seedHex, params)
	})
}

type fingerprintCmd struct {
	app *app
}

func (c *fingerprintCmd) Execute(_ []string) error {
	return c.app.withSeed(coreapi.MasterFingerprint)
}

type xpubCmd struct {
	app *app

	Path string `long:"path" required:"true" description:"Account path, e.g. m/84'/0'/0'"`
}

func (c *xpubCmd) Execute(_ []string) error {
	return c.app.withSeed(func(seedHex string) coreapi.Response {
		return coreapi.AccountXpub(seedHex, c.Path)
	})
}

type addressCmd struct {
	app *app

	Path   string `long:"path" description:"Full path, e.g. m/84'/0'/0'/0/0, or the scope path, e.g. m/84'/0', with --xpub"`
	Xpub   string `long:"xpub" description:"Account extended public key"`
	Change uint32 `long:"change" description:"Change branch below the account key"`
	Index  uint32 `long:"index" description:"Address index below the account key"`
}

func (c *addressCmd) Execute(_ []string) error {
	if c.Xpub != "" {
		return c.app.print(coreapi.AddressFromXpub(
			c.Xpub, c.Path, c.Change, c.Index,
		))
	}

	return c.app.withSeed(func(seedHex string) coreapi.Response {
		return coreapi.AddressFromSeed(seedHex, c.Path)
	})
}

type scriptCmd struct {
	app *app

	Network string `long:"network" default:"Bitcoin Mainnet" description:"Network name as listed by the networks command"`
}

func (c *scriptCmd) Execute(args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	return c.app.print(coreapi.AddressScript(args[0], c.Network))
}

type networksCmd struct {
	app *app
}

func (c *networksCmd) Execute(_ []string) error {
	return c.app.print(coreapi.Networks())
}

type msInfoCmd struct {
	app *app
}

func (c *msInfoCmd) Execute(args []string) error {
	text, err := c.app.readArg(args)
	if err != nil {
		return err
	}

	return c.app.print(
		coreapi.ParseMultisigConfig(text, c.app.cfg.Fingerprint),
	)
}

type msAddrCmd struct {
	app *app

	Change uint32 `long:"change" description:"Change branch"`
	Index  uint32 `long:"index" description:"Address index"`
}

func (c *msAddrCmd) Execute(args []string) error {
	text, err := c.app.readArg(args)
	if err != nil {
		return err
	}

	return c.app.print(coreapi.MultisigAddress(text, c.Change, c.Index))
}

type msExportCmd struct {
	app *app
}

func (c *msExportCmd) Execute(args []string) error {
	text, err := c.app.readArg(args)
	if err != nil {
		return err
	}

	return c.app.print(coreapi.ExportMultisigConfig(text))
}
