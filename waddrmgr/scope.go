// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package waddrmgr

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/coldsign/netparams"
	"github.com/btcsuite/coldsign/signerr"
)

const (
	// ExternalBranch is the child number used for receiving addresses.
	ExternalBranch uint32 = 0

	// InternalBranch is the child number used for change addresses.
	InternalBranch uint32 = 1
)

// KeyScope represents the BIP-44 key scope as defined in BIP-43: a purpose
// and a coin type, both hardened in a derivation path.
type KeyScope struct {
	// Purpose is the purpose number for the scope, as defined in BIP-43.
	Purpose uint32

	// Coin is the coin type number for the scope, as defined in BIP-44.
	Coin uint32
}

// String returns the scope in path form, e.g. "m/84'/0'".
func (k KeyScope) String() string {
	return fmt.Sprintf("m/%d'/%d'", k.Purpose, k.Coin)
}

// Path returns the hardened path of the scope.
func (k KeyScope) Path() DerivationPath {
	return DerivationPath{
		k.Purpose + hdkeychain.HardenedKeyStart,
		k.Coin + hdkeychain.HardenedKeyStart,
	}
}

// AddressType specifies the script type of an address.
type AddressType uint8

const (
	// PubKeyHash represents a pay-to-pubkey-hash (P2PKH) address.
	PubKeyHash AddressType = iota

	// ScriptHash represents a pay-to-script-hash (P2SH) address.
	ScriptHash

	// WitnessPubKey represents a pay-to-witness-pubkey-hash (P2WKH) address.
	WitnessPubKey

	// NestedWitnessPubKey represents a P2WKH output nested within a P2SH
	// address.
	NestedWitnessPubKey

	// WitnessScript represents a pay-to-witness-script-hash (P2WSH)
	// address.
	WitnessScript

	// TaprootPubKey represents a BIP-86 key path only taproot (P2TR)
	// address.
	TaprootPubKey
)

var addressTypeStrings = map[AddressType]string{
	PubKeyHash:          "p2pkh",
	ScriptHash:          "p2sh",
	WitnessPubKey:       "p2wpkh",
	NestedWitnessPubKey: "p2sh-p2wpkh",
	WitnessScript:       "p2wsh",
	TaprootPubKey:       "p2tr",
}

// String returns the conventional short name of the address type.
func (a AddressType) String() string {
	if s, ok := addressTypeStrings[a]; ok {
		return s
	}

	return fmt.Sprintf("unknown address type %d", uint8(a))
}

// ScopeSchema ties a key scope to the address type its keys are encoded as
// and the network the addresses belong to.
type ScopeSchema struct {
	Scope   KeyScope
	Type    AddressType
	Network netparams.Network
}

var (
	// KeyScopeBIP0044 is the key scope of legacy BIP-44 Bitcoin accounts.
	KeyScopeBIP0044 = KeyScope{Purpose: 44, Coin: 0}

	// KeyScopeBIP0049 is the key scope of nested segwit Bitcoin accounts.
	KeyScopeBIP0049 = KeyScope{Purpose: 49, Coin: 0}

	// KeyScopeBIP0084 is the key scope of native segwit Bitcoin accounts.
	KeyScopeBIP0084 = KeyScope{Purpose: 84, Coin: 0}

	// KeyScopeBIP0086 is the key scope of taproot Bitcoin accounts.
	KeyScopeBIP0086 = KeyScope{Purpose: 86, Coin: 0}
)

// StandardScopes lists every scope an address can be requested for. The
// order is stable and used when listing supported paths.
var StandardScopes = []ScopeSchema{
	{KeyScopeBIP0044, PubKeyHash, netparams.BitcoinMainnet},
	{KeyScopeBIP0049, NestedWitnessPubKey, netparams.BitcoinMainnet},
	{KeyScopeBIP0084, WitnessPubKey, netparams.BitcoinMainnet},
	{KeyScopeBIP0086, TaprootPubKey, netparams.BitcoinMainnet},
	{KeyScope{44, 1}, PubKeyHash, netparams.BitcoinTestnet},
	{KeyScope{49, 1}, NestedWitnessPubKey, netparams.BitcoinTestnet},
	{KeyScope{84, 1}, WitnessPubKey, netparams.BitcoinTestnet},
	{KeyScope{86, 1}, TaprootPubKey, netparams.BitcoinTestnet},
	{KeyScope{44, 2}, PubKeyHash, netparams.Litecoin},
	{KeyScope{49, 2}, NestedWitnessPubKey, netparams.Litecoin},
	{KeyScope{44, 5}, PubKeyHash, netparams.Dash},
	{KeyScope{44, 145}, PubKeyHash, netparams.BitcoinCash},
}

// ScopeForPath returns the standard scope a path belongs to. The path must
// start with a hardened purpose and coin type.
func ScopeForPath(path DerivationPath) (ScopeSchema, error) {
	if len(path) < 2 || !path.IsHardened(0) || !path.IsHardened(1) {
		return ScopeSchema{}, signerr.New(signerr.ErrInvalidHDPath,
			path.String(), ErrUnsupportedScope)
	}

	scope := KeyScope{
		Purpose: path[0] - hdkeychain.HardenedKeyStart,
		Coin:    path[1] - hdkeychain.HardenedKeyStart,
	}

	for _, schema := range StandardScopes {
		if schema.Scope == scope {
			return schema, nil
		}
	}

	return ScopeSchema{}, signerr.New(signerr.ErrInvalidHDPath,
		scope.String(), ErrUnsupportedScope)
}

// AddressFromSeed derives the key at an absolute standard path and returns its
// address, e.g. "m/84'/0'/0'/0/0" yields a native segwit mainnet address.
func AddressFromSeed(seed []byte, path DerivationPath) (string, error) {
	schema, err := ScopeForPath(path)
	if err != nil {
		return "", err
	}

	key, err := DeriveFromSeed(seed, path, schema.Network.Params())
	if err != nil {
		return "", err
	}
	defer key.Zero()

	pub, err := key.PubKey()
	if err != nil {
		return "", err
	}

	return AddressForPubKey(pub, schema.Type, schema.Network)
}

// AddressFromExtendedKey derives the address at change/index below an account
// level extended public key. The scope selects the address type and network,
// the key itself is expected to sit at scope/account'.
func AddressFromExtendedKey(xpub string, scope KeyScope, change,
	index uint32) (string, error) {

	schema, err := ScopeForPath(scope.Path())
	if err != nil {
		return "", err
	}

	key, err := DeriveFromExtendedKey(xpub, DerivationPath{change, index})
	if err != nil {
		return "", err
	}

	pub, err := key.PubKey()
	if err != nil {
		return "", err
	}

	return AddressForPubKey(pub, schema.Type, schema.Network)
}
