// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/coldsign/coreapi"
	"github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "coldsign.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "coldsign.log"
)

var (
	defaultAppDataDir = btcutil.AppDataDir("coldsign", false)
	defaultConfigFile = filepath.Join(defaultAppDataDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultAppDataDir, defaultLogDirname)
)

// config defines the global options. Every option may also be set in the
// configuration file, which is read before the command line.
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	NoLogFile  bool   `long:"nologfile" description:"Do not write a log file"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical} for all subsystems, or <subsystem>=<level>,... to set the level of individual subsystems"`

	// The signing wallet profile.
	Fingerprint    string            `short:"f" long:"fingerprint" description:"Master key fingerprint of the signing wallet, 8 hex characters"`
	KnownKeys      map[string]string `short:"k" long:"knownkey" key-value-delimiter:"=" description:"Extended public key known to the wallet, as <path>=<xpub>; may be repeated"`
	MultisigConfig string            `short:"m" long:"multisig" description:"Path to the multisig wallet descriptor of the signing wallet"`
	MnemonicFile   string            `long:"mnemonicfile" description:"Read the mnemonic from this file instead of prompting for it"`
	Passphrase     bool              `short:"p" long:"passphrase" description:"Prompt for a BIP39 passphrase"`
}

func defaultConfig() config {
	return config{
		ConfigFile: defaultConfigFile,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}
}

// cleanAndExpandPath expands environment variables and a leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", homeDir, 1)
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}

// loadConfigFile reads the configuration file named by a pre-parse of args
// into parser. A missing default configuration file is not an error.
func loadConfigFile(parser *flags.Parser, args []string) error {
	// Pre-parse the command line for the config file location only.
	preCfg := defaultConfig()
	preParser := flags.NewParser(&preCfg, flags.IgnoreUnknown)
	if _, err := preParser.ParseArgs(args); err != nil {
		return err
	}

	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	err := flags.NewIniParser(parser).ParseFile(configFile)

	var pathErr *os.PathError
	switch {
	case err == nil:
		return nil

	case errors.As(err, &pathErr) && configFile == defaultConfigFile:
		return nil

	default:
		return err
	}
}

// contextParams returns the wallet profile in the form of the core API.
func (c *config) contextParams() (coreapi.ContextParams, error) {
	params := coreapi.ContextParams{
		MasterFingerprint: c.Fingerprint,
		KnownKeys:         c.KnownKeys,
	}

	if c.MultisigConfig != "" {
		text, err := os.ReadFile(cleanAndExpandPath(c.MultisigConfig))
		if err != nil {
			return params, err
		}
		params.MultisigConfig = string(text)
	}

	return params, nil
}
