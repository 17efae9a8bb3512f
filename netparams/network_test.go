// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockNetwork is a Network whose answers are scripted per test.
type mockNetwork struct {
	mock.Mock
}

// Name returns the scripted display name.
func (m *mockNetwork) Name() string {
	return m.Called().String(0)
}

// Unit returns the scripted unit.
func (m *mockNetwork) Unit() string {
	return m.Called().String(0)
}

// CoinType returns the scripted coin type.
func (m *mockNetwork) CoinType() uint32 {
	args := m.Called()
	return args.Get(0).(uint32)
}

// Params returns the scripted chain params.
func (m *mockNetwork) Params() *chaincfg.Params {
	args := m.Called()
	return args.Get(0).(*chaincfg.Params)
}

// TestFromCoinType checks the only two coin types a PSBT may carry.
func TestFromCoinType(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		coinType uint32
		expected Network
	}{{
		name:     "mainnet",
		coinType: 0,
		expected: BitcoinMainnet,
	}, {
		name:     "testnet",
		coinType: 1,
		expected: BitcoinTestnet,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n, err := FromCoinType(tc.coinType)
			require.NoError(t, err)
			require.Equal(t, tc.expected, n)
		})
	}

	// Litecoin is a known network, but not one a PSBT can be signed for.
	for _, coinType := range []uint32{2, 5, 145, 0x80000000} {
		_, err := FromCoinType(coinType)
		require.True(t, signerr.IsError(
			err, signerr.ErrInvalidTransaction,
		), "coin type %d", coinType)
	}
}

// TestBaseNetworkCapabilities pins the display values of the base set.
func TestBaseNetworkCapabilities(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		network  Network
		name     string
		unit     string
		coinType uint32
	}{
		{BitcoinMainnet, "Bitcoin Mainnet", "BTC", 0},
		{BitcoinTestnet, "Bitcoin Testnet", "tBTC", 1},
		{Litecoin, "Litecoin", "LTC", 2},
		{Dash, "Dash", "DASH", 5},
		{BitcoinCash, "Bitcoin Cash", "BCH", 145},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.name, tc.network.Name())
		require.Equal(t, tc.unit, tc.network.Unit())
		require.Equal(t, tc.coinType, tc.network.CoinType())
		require.Equal(t, tc.coinType, tc.network.Params().HDCoinType)
	}

	cash, ok := BitcoinCash.(CashAddrNetwork)
	require.True(t, ok)
	require.Equal(t, "bitcoincash", cash.CashAddrPrefix())

	_, ok = Litecoin.(CashAddrNetwork)
	require.False(t, ok)

	require.True(t, IsTestnet(BitcoinTestnet))
	require.False(t, IsTestnet(BitcoinMainnet))
}

// TestRegistryCustomNetwork checks that a network added after the base set is
// reachable without changing the base networks.
func TestRegistryCustomNetwork(t *testing.T) {
	t.Parallel()

	// Arrange: a chain that is unknown to the base set.
	custom := &mockNetwork{}
	custom.On("Name").Return("Dogecoin")
	custom.On("Unit").Return("DOGE")
	custom.On("CoinType").Return(uint32(3))

	// Act: build a registry with it.
	r, err := NewRegistry(custom)
	require.NoError(t, err)

	// Assert: both lookups find it and the base set is intact.
	n, err := r.Lookup("Dogecoin")
	require.NoError(t, err)
	require.Equal(t, "DOGE", n.Unit())

	n, err = r.ByCoinType(3)
	require.NoError(t, err)
	require.Equal(t, "Dogecoin", n.Name())

	require.Len(t, r.Networks(), 6)
	require.Len(t, Default().Networks(), 5)

	_, err = r.Lookup("Namecoin")
	require.ErrorIs(t, err, ErrUnknownNetwork)
}

// TestRegistryDuplicates checks name and coin type collisions.
func TestRegistryDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(NewCustomNetwork(
		"Bitcoin Mainnet", "BTC", 99, &chaincfg.MainNetParams,
	))
	require.ErrorIs(t, err, ErrDuplicateNetwork)

	_, err = NewRegistry(NewCustomNetwork(
		"Litecoin Fork", "LTCF", CoinTypeLitecoin,
		&chaincfg.MainNetParams,
	))
	require.ErrorIs(t, err, ErrDuplicateNetwork)

	// Test networks share coin type 1, so a second one is allowed but
	// ByCoinType keeps resolving to testnet3.
	r, err := NewRegistry(NewCustomNetwork(
		"Bitcoin Signet", "sBTC", CoinTypeTestnet,
		&chaincfg.SigNetParams,
	))
	require.NoError(t, err)

	n, err := r.ByCoinType(CoinTypeTestnet)
	require.NoError(t, err)
	require.Equal(t, BitcoinTestnet, n)

	n, err = r.Lookup("Bitcoin Signet")
	require.NoError(t, err)
	require.Equal(t, "sBTC", n.Unit())
}
