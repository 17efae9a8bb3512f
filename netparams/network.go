// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netparams describes the Bitcoin-family networks the signing core
// knows how to display and encode addresses for.
//
// A network is anything implementing the Network interface. The base set
// (Bitcoin mainnet and testnet, Litecoin, Dash and Bitcoin Cash) is exported
// as package level values. Chains without special address handling, Litecoin
// and Dash among them, are created with NewCustomNetwork; chains added later
// are created the same way and handed to a Registry.
package netparams

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/coldsign/signerr"
)

const (
	// CoinTypeBitcoin is the BIP44 coin type of Bitcoin mainnet.
	CoinTypeBitcoin uint32 = 0

	// CoinTypeTestnet is the BIP44 coin type shared by all test networks.
	CoinTypeTestnet uint32 = 1

	// CoinTypeLitecoin is the BIP44 coin type of Litecoin.
	CoinTypeLitecoin uint32 = 2

	// CoinTypeDash is the BIP44 coin type of Dash.
	CoinTypeDash uint32 = 5

	// CoinTypeBitcoinCash is the BIP44 coin type of Bitcoin Cash.
	CoinTypeBitcoinCash uint32 = 145
)

// Network is the capability set every supported chain exposes.
type Network interface {
	// Name returns the display name shown to the user, e.g.
	// "Bitcoin Testnet".
	Name() string

	// Unit returns the display symbol of the coin, e.g. "tBTC".
	Unit() string

	// CoinType returns the BIP44 coin type constant.
	CoinType() uint32

	// Params returns the chain parameters used for address encoding.
	Params() *chaincfg.Params
}

// CashAddrNetwork is implemented by networks whose legacy addresses are
// displayed in the CashAddr format.
type CashAddrNetwork interface {
	Network

	// CashAddrPrefix returns the human readable CashAddr prefix.
	CashAddrPrefix() string
}

// chainNetwork is the Network implementation shared by the base networks and
// the custom ones.
type chainNetwork struct {
	name     string
	unit     string
	coinType uint32
	params   *chaincfg.Params
}

// Name returns the display name of the network.
func (n *chainNetwork) Name() string {
	return n.name
}

// Unit returns the display symbol of the coin.
func (n *chainNetwork) Unit() string {
	return n.unit
}

// CoinType returns the BIP44 coin type constant.
func (n *chainNetwork) CoinType() uint32 {
	return n.coinType
}

// Params returns the chain parameters.
func (n *chainNetwork) Params() *chaincfg.Params {
	return n.params
}

// String returns the display name so networks print nicely in logs.
func (n *chainNetwork) String() string {
	return n.name
}

// cashAddrNetwork is a chainNetwork that displays CashAddr addresses.
type cashAddrNetwork struct {
	chainNetwork

	prefix string
}

// CashAddrPrefix returns the human readable CashAddr prefix.
func (n *cashAddrNetwork) CashAddrPrefix() string {
	return n.prefix
}

var (
	// BitcoinMainnet is the Bitcoin main network.
	BitcoinMainnet Network = &chainNetwork{
		name:     "Bitcoin Mainnet",
		unit:     "BTC",
		coinType: CoinTypeBitcoin,
		params:   &chaincfg.MainNetParams,
	}

	// BitcoinTestnet is the Bitcoin test network (testnet3).
	BitcoinTestnet Network = &chainNetwork{
		name:     "Bitcoin Testnet",
		unit:     "tBTC",
		coinType: CoinTypeTestnet,
		params:   &chaincfg.TestNet3Params,
	}

	// Litecoin is the Litecoin main network.
	Litecoin = NewCustomNetwork(
		"Litecoin", "LTC", CoinTypeLitecoin, litecoinParams(),
	)

	// Dash is the Dash main network.
	Dash = NewCustomNetwork("Dash", "DASH", CoinTypeDash, dashParams())

	// BitcoinCash is the Bitcoin Cash main network.
	BitcoinCash Network = &cashAddrNetwork{
		chainNetwork: chainNetwork{
			name:     "Bitcoin Cash",
			unit:     "BCH",
			coinType: CoinTypeBitcoinCash,
			params:   bitcoinCashParams(),
		},
		prefix: "bitcoincash",
	}
)

// NewCustomNetwork creates a network for a chain that is not part of the base
// set. The params are only used for address encoding and are not registered
// with chaincfg.
func NewCustomNetwork(name, unit string, coinType uint32,
	params *chaincfg.Params) Network {

	return &chainNetwork{
		name:     name,
		unit:     unit,
		coinType: coinType,
		params:   params,
	}
}

// FromCoinType maps the coin type component of a BIP32 path, with the
// hardened bit already removed, to a Bitcoin network of the default registry.
// Only mainnet (0) and testnet (1) are recognized, as these are the only
// networks a PSBT can be signed for.
func FromCoinType(index uint32) (Network, error) {
	if index != CoinTypeBitcoin && index != CoinTypeTestnet {
		return nil, signerr.Newf(signerr.ErrInvalidTransaction,
			"unsupported network: coin type %d", index)
	}

	n, err := Default().ByCoinType(index)
	if err != nil {
		return nil, signerr.New(signerr.ErrInvalidTransaction,
			"unsupported network", err)
	}

	return n, nil
}

// IsTestnet reports whether the network uses the shared testnet coin type.
func IsTestnet(n Network) bool {
	return n.CoinType() == CoinTypeTestnet
}

// litecoinParams returns the address encoding parameters of Litecoin.
func litecoinParams() *chaincfg.Params {
	p := chaincfg.MainNetParams
	p.Name = "litecoin"
	p.Net = 0xdbb6c0fb
	p.PubKeyHashAddrID = 0x30
	p.ScriptHashAddrID = 0x32
	p.PrivateKeyID = 0xb0
	p.WitnessPubKeyHashAddrID = 0x06
	p.WitnessScriptHashAddrID = 0x0a
	p.Bech32HRPSegwit = "ltc"
	p.HDCoinType = CoinTypeLitecoin

	return &p
}

// dashParams returns the address encoding parameters of Dash.
func dashParams() *chaincfg.Params {
	p := chaincfg.MainNetParams
	p.Name = "dash"
	p.Net = 0xbd6b0cbf
	p.PubKeyHashAddrID = 0x4c
	p.ScriptHashAddrID = 0x10
	p.PrivateKeyID = 0xcc
	p.Bech32HRPSegwit = ""
	p.HDCoinType = CoinTypeDash

	return &p
}

// bitcoinCashParams returns the legacy address parameters of Bitcoin Cash.
// They match Bitcoin's, the CashAddr form is derived from them.
func bitcoinCashParams() *chaincfg.Params {
	p := chaincfg.MainNetParams
	p.Name = "bitcoincash"
	p.Net = 0xe8f3e1e3
	p.Bech32HRPSegwit = ""
	p.HDCoinType = CoinTypeBitcoinCash

	return &p
}
