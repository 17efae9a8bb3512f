// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateNetwork is returned when a network with an already
	// registered name or coin type is added to a registry.
	ErrDuplicateNetwork = errors.New("duplicate network")

	// ErrUnknownNetwork is returned when a lookup does not match any
	// registered network.
	ErrUnknownNetwork = errors.New("unknown network")
)

// Registry is an ordered set of networks addressable by name and by BIP44 coin
// type. A Registry is not safe for concurrent mutation; build it once and
// share it read-only.
type Registry struct {
	networks   []Network
	byName     map[string]Network
	byCoinType map[uint32]Network
}

// NewRegistry returns a registry holding the base networks followed by the
// given extra ones.
func NewRegistry(extra ...Network) (*Registry, error) {
	r := &Registry{
		byName:     make(map[string]Network),
		byCoinType: make(map[uint32]Network),
	}

	for _, n := range baseNetworks() {
		if err := r.Register(n); err != nil {
			return nil, err
		}
	}

	for _, n := range extra {
		if err := r.Register(n); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// defaultRegistry is built on first use and never mutated afterwards.
var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(fmt.Sprintf("netparams: invalid base networks: %v", err))
	}

	return r
})

// Default returns the registry of base networks. The returned value is shared
// and must be treated as read-only.
func Default() *Registry {
	return defaultRegistry()
}

// Register adds a network to the registry. The testnet coin type is shared by
// every test network, so only the first network claiming it is reachable
// through ByCoinType.
func (r *Registry) Register(n Network) error {
	if _, ok := r.byName[n.Name()]; ok {
		return fmt.Errorf("%w: name %q", ErrDuplicateNetwork, n.Name())
	}

	if _, ok := r.byCoinType[n.CoinType()]; ok &&
		n.CoinType() != CoinTypeTestnet {

		return fmt.Errorf("%w: coin type %d", ErrDuplicateNetwork,
			n.CoinType())
	}

	r.networks = append(r.networks, n)
	r.byName[n.Name()] = n
	if _, ok := r.byCoinType[n.CoinType()]; !ok {
		r.byCoinType[n.CoinType()] = n
	}

	log.Debugf("Registered network %q (unit=%s, coin_type=%d)",
		n.Name(), n.Unit(), n.CoinType())

	return nil
}

// Lookup returns the network registered under the given display name.
func (r *Registry) Lookup(name string) (Network, error) {
	n, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}

	return n, nil
}

// ByCoinType returns the network registered for a BIP44 coin type.
func (r *Registry) ByCoinType(coinType uint32) (Network, error) {
	n, ok := r.byCoinType[coinType]
	if !ok {
		return nil, fmt.Errorf("%w: coin type %d", ErrUnknownNetwork,
			coinType)
	}

	return n, nil
}

// Networks returns the registered networks in registration order.
func (r *Registry) Networks() []Network {
	networks := make([]Network, len(r.networks))
	copy(networks, r.networks)

	return networks
}

// baseNetworks returns the networks every registry starts with.
func baseNetworks() []Network {
	return []Network{
		BitcoinMainnet, BitcoinTestnet, Litecoin, Dash, BitcoinCash,
	}
}
