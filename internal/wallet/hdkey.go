package wallet

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip32"

	"github.com/emduc/PrivatePay/pkg/eth"
)

// BIP-44 derivation path constants for Ethereum.
// Session keys live at m/44'/60'/0'/0/<index>.
const (
	// PurposeBIP44 is the BIP-44 purpose field (hardened).
	PurposeBIP44 = bip32.FirstHardenedChild + 44

	// CoinTypeEther is the registered Ethereum coin type (hardened).
	CoinTypeEther = bip32.FirstHardenedChild + 60

	// AccountDefault is the single account the engine uses (hardened).
	AccountDefault = bip32.FirstHardenedChild + 0

	// ChangeExternal is the external (receiving) chain.
	ChangeExternal = 0
)

// HDKey represents a hierarchical deterministic key (BIP-32).
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a BIP-39 seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DerivePath derives a key along a sequence of child indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k.key
	for _, idx := range indices {
		child, err := current.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
		current = child
	}
	return &HDKey{key: current}, nil
}

// DeriveSessionKey derives the key at m/44'/60'/0'/0/<index>.
func (k *HDKey) DeriveSessionKey(index uint32) (*HDKey, error) {
	return k.DerivePath(
		PurposeBIP44,
		CoinTypeEther,
		AccountDefault,
		ChangeExternal,
		index,
	)
}

// PrivateKeyBytes returns the raw 32-byte private key.
// Returns nil if this is a public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 Key.Key is 33 bytes with a leading 0x00 for private keys.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// Signer returns the secp256k1 private key for signing.
// Returns an error if this is a public-only key.
func (k *HDKey) Signer() (*secp256k1.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot create signer from public key")
	}
	if len(priv) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(priv))
	}
	return secp256k1.PrivKeyFromBytes(priv), nil
}

// Address derives the Ethereum address for this key's public key.
func (k *HDKey) Address() (eth.Address, error) {
	signer, err := k.Signer()
	if err != nil {
		return eth.Address{}, err
	}
	return eth.AddressFromPubKey(signer.PubKey()), nil
}
