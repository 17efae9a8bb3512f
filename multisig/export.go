// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multisig

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// verifyCodeLen is the number of hash bytes shown as the verify code.
const verifyCodeLen = 4

// calculateVerifyCode hashes the sorted signer keys together with the policy
// and the format. Signer order, names and comments do not change the code.
func calculateVerifyCode(c *WalletConfig) string {
	xpubs := make([]string, 0, len(c.XpubItems))
	for _, item := range c.XpubItems {
		xpubs = append(xpubs, item.Xpub)
	}
	sort.Strings(xpubs)

	var b strings.Builder
	for _, xpub := range xpubs {
		b.WriteString(xpub)
	}
	fmt.Fprintf(&b, "%dof%d%s", c.Threshold, c.Total, c.Format)

	hash := chainhash.HashB([]byte(b.String()))

	return hex.EncodeToString(hash[:verifyCodeLen])
}

// Export renders the wallet as descriptor text that ParseWalletConfig accepts.
// Consecutive signers sharing a derivation are grouped under one Derivation
// line.
func Export(c *WalletConfig) string {
	var b strings.Builder

	if c.Creator != "" {
		fmt.Fprintf(&b, "# Multisig setup file (created by %s)\n",
			c.Creator)
	} else {
		b.WriteString("# Multisig setup file\n")
	}
	b.WriteString("#\n")

	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Policy: %d of %d\n", c.Threshold, c.Total)
	fmt.Fprintf(&b, "Format: %s\n", c.Format)

	derivation := ""
	for _, item := range c.XpubItems {
		if item.Derivation != derivation {
			derivation = item.Derivation
			fmt.Fprintf(&b, "\nDerivation: %s\n", derivation)
		}

		fmt.Fprintf(&b, "%s: %s\n", item.Fingerprint, item.Xpub)
	}

	return b.String()
}
