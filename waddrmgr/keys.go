// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package waddrmgr

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/coldsign/signerr"
)

var (
	// xpubVersion and tpubVersion are the canonical mainnet and testnet
	// extended public key versions every SLIP-132 variant is mapped to.
	xpubVersion = chaincfg.MainNetParams.HDPublicKeyID[:]
	tpubVersion = chaincfg.TestNet3Params.HDPublicKeyID[:]

	// slip132Versions maps the version of every accepted extended public
	// key to whether it belongs to a test network.
	slip132Versions = map[[4]byte]bool{
		{0x04, 0x88, 0xb2, 0x1e}: false, // xpub
		{0x04, 0x9d, 0x7c, 0xb2}: false, // ypub
		{0x04, 0xb2, 0x47, 0x46}: false, // zpub
		{0x02, 0x95, 0xb4, 0x3f}: false, // Ypub
		{0x02, 0xaa, 0x7e, 0xd3}: false, // Zpub
		{0x04, 0x35, 0x87, 0xcf}: true,  // tpub
		{0x04, 0x4a, 0x52, 0x62}: true,  // upub
		{0x04, 0x5f, 0x1c, 0xf6}: true,  // vpub
		{0x02, 0x42, 0x89, 0xef}: true,  // Upub
		{0x02, 0x57, 0x54, 0x83}: true,  // Vpub
	}
)

// ExtendedKey is a BIP32 key together with the path it was derived at. The
// path is absolute when the key was derived from a seed, and relative to the
// parsed key otherwise. An ExtendedKey is immutable; Zero must be called once
// a private key is no longer needed.
type ExtendedKey struct {
	// Path is the derivation path of this key.
	Path DerivationPath

	key *hdkeychain.ExtendedKey
}

// NewMasterKey creates the root key for a seed. The params only select the
// version bytes used by String.
func NewMasterKey(seed []byte, params *chaincfg.Params) (*ExtendedKey,
	error) {

	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, signerr.New(signerr.ErrGetKey,
			"unable to create master key", err)
	}

	return &ExtendedKey{Path: DerivationPath{}, key: master}, nil
}

// ParseExtendedKey parses a base58 extended key. SLIP-132 public key variants
// (ypub, zpub, Ypub, Zpub and their testnet forms) are normalized to xpub or
// tpub. The returned flag reports whether the key belongs to a test network.
func ParseExtendedKey(s string) (*ExtendedKey, bool, error) {
	s = strings.TrimSpace(s)

	decoded := base58.Decode(s)
	if len(decoded) < 4 {
		return nil, false, signerr.New(signerr.ErrBase58,
			"malformed extended key", hdkeychain.ErrInvalidKeyLen)
	}

	var version [4]byte
	copy(version[:], decoded[:4])

	key, err := hdkeychain.NewKeyFromString(s)
	if err != nil {
		return nil, false, signerr.New(signerr.ErrGetKey,
			"invalid extended key", err)
	}

	// Private keys are passed through untouched, their version must be
	// one chaincfg knows about.
	if key.IsPrivate() {
		switch {
		case key.IsForNet(&chaincfg.MainNetParams):
			return &ExtendedKey{key: key}, false, nil

		case key.IsForNet(&chaincfg.TestNet3Params):
			return &ExtendedKey{key: key}, true, nil
		}

		return nil, false, signerr.New(signerr.ErrGetKey,
			"invalid extended key", ErrUnknownKeyVersion)
	}

	testnet, ok := slip132Versions[version]
	if !ok {
		return nil, false, signerr.New(signerr.ErrGetKey,
			fmt.Sprintf("version %x", version[:]),
			ErrUnknownKeyVersion)
	}

	target := xpubVersion
	if testnet {
		target = tpubVersion
	}

	if !bytes.Equal(version[:], target) {
		key, err = key.CloneWithVersion(target)
		if err != nil {
			return nil, false, signerr.New(signerr.ErrGetKey,
				"unable to normalize key version", err)
		}
	}

	return &ExtendedKey{key: key}, testnet, nil
}

// Derive returns the descendant of k at the relative path. Hardened steps
// require k to be private. An empty path returns a key sharing k's material.
func (k *ExtendedKey) Derive(rel DerivationPath) (*ExtendedKey, error) {
	if !k.key.IsPrivate() && rel.HasHardened() {
		return nil, signerr.New(signerr.ErrInvalidHDPath,
			"hardened path "+rel.String()+" from public key",
			ErrHardenedFromPublic)
	}

	current := k.key
	for i, index := range rel {
		child, err := current.Derive(index)

		// Intermediate private keys are not handed out, wipe them as
		// soon as the next level exists.
		if current != k.key {
			current.Zero()
		}
		if err != nil {
			return nil, signerr.New(signerr.ErrGetKey,
				fmt.Sprintf("unable to derive child %d", i),
				err)
		}

		current = child
	}

	log.Tracef("Derived %d levels from depth %d", len(rel), k.key.Depth())

	return &ExtendedKey{Path: k.Path.Child(rel...), key: current}, nil
}

// DeriveFromSeed derives the key at an absolute path from a seed. The master
// key is wiped before returning.
func DeriveFromSeed(seed []byte, path DerivationPath,
	params *chaincfg.Params) (*ExtendedKey, error) {

	master, err := NewMasterKey(seed, params)
	if err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return master, nil
	}
	defer master.Zero()

	return master.Derive(path)
}

// DeriveFromExtendedKey parses an extended public key and derives the key at
// the relative path. Only non-hardened paths are accepted.
func DeriveFromExtendedKey(xpub string, rel DerivationPath) (*ExtendedKey,
	error) {

	key, _, err := ParseExtendedKey(xpub)
	if err != nil {
		return nil, err
	}

	if key.IsPrivate() && len(rel) > 0 {
		defer key.Zero()
	}

	return key.Derive(rel)
}

// DerivePrivKey derives the private key at an absolute path from a seed.
// The caller owns the returned key and must Zero it.
func DerivePrivKey(seed []byte, path DerivationPath) (*btcec.PrivateKey,
	error) {

	key, err := DeriveFromSeed(seed, path, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	return key.PrivKey()
}

// MasterFingerprint returns the fingerprint of a seed's root key in the
// little endian form used by PSBT derivation records.
func MasterFingerprint(seed []byte) (uint32, error) {
	master, err := NewMasterKey(seed, &chaincfg.MainNetParams)
	if err != nil {
		return 0, err
	}
	defer master.Zero()

	pub, err := master.PubKey()
	if err != nil {
		return 0, err
	}

	return Fingerprint(pub), nil
}

// Fingerprint returns the BIP32 fingerprint of a public key in PSBT byte
// order.
func Fingerprint(pub *btcec.PublicKey) uint32 {
	hash := btcutil.Hash160(pub.SerializeCompressed())

	return binary.LittleEndian.Uint32(hash[:4])
}

// ParseFingerprint parses the 8 hex character form of a fingerprint, e.g.
// "73c5da0a", as printed by wallets and descriptor files.
func ParseFingerprint(s string) (uint32, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil || len(raw) != 4 {
		return 0, signerr.Newf(signerr.ErrGetKey,
			"invalid fingerprint %q", s)
	}

	return binary.LittleEndian.Uint32(raw), nil
}

// FormatFingerprint returns the lower case 8 hex character form of a
// fingerprint.
func FormatFingerprint(fp uint32) string {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], fp)

	return hex.EncodeToString(raw[:])
}

// IsPrivate reports whether the key holds private key material.
func (k *ExtendedKey) IsPrivate() bool {
	return k.key.IsPrivate()
}

// Depth returns the number of derivation steps from the root key.
func (k *ExtendedKey) Depth() uint8 {
	return k.key.Depth()
}

// PubKey returns the public key.
func (k *ExtendedKey) PubKey() (*btcec.PublicKey, error) {
	pub, err := k.key.ECPubKey()
	if err != nil {
		return nil, signerr.New(signerr.ErrGetKey,
			"unable to get public key", err)
	}

	return pub, nil
}

// PrivKey returns the private key. The returned key is a copy owned by the
// caller, which must Zero it when done.
func (k *ExtendedKey) PrivKey() (*btcec.PrivateKey, error) {
	priv, err := k.key.ECPrivKey()
	if err != nil {
		return nil, signerr.New(signerr.ErrGetKey,
			"unable to get private key", err)
	}

	return priv, nil
}

// Neuter returns the public version of the key.
func (k *ExtendedKey) Neuter() (*ExtendedKey, error) {
	pub, err := k.key.Neuter()
	if err != nil {
		return nil, signerr.New(signerr.ErrGetKey,
			"unable to neuter key", err)
	}

	return &ExtendedKey{Path: k.Path, key: pub}, nil
}

// String returns the base58 serialization of the key.
func (k *ExtendedKey) String() string {
	return k.key.String()
}

// Zero wipes the key material. The key must not be used afterwards.
func (k *ExtendedKey) Zero() {
	if k == nil || k.key == nil {
		return
	}

	k.key.Zero()
}
