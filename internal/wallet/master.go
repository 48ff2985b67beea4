package wallet

import (
	"fmt"

	"github.com/emduc/PrivatePay/pkg/eth"
)

// Master is the root identity all session keys derive from. It holds the
// recovery phrase and the BIP-32 root; its address is the key at session
// index 0, which also acts as the funding key.
type Master struct {
	phrase string
	root   *HDKey
	addr   eth.Address
}

// NewMaster builds a master identity from a recovery phrase. The phrase is
// validated by deriving the index-0 key; a malformed phrase fails without
// side effects.
func NewMaster(phrase string) (*Master, error) {
	seed, err := SeedFromMnemonic(phrase)
	if err != nil {
		return nil, err
	}
	root, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	key, err := root.DeriveSessionKey(0)
	if err != nil {
		return nil, fmt.Errorf("derive master address: %w", err)
	}
	addr, err := key.Address()
	if err != nil {
		return nil, err
	}
	return &Master{phrase: phrase, root: root, addr: addr}, nil
}

// Phrase returns the recovery phrase.
func (m *Master) Phrase() string {
	return m.phrase
}

// Address returns the master address (session index 0).
func (m *Master) Address() eth.Address {
	return m.addr
}

// DeriveSession derives the session key for the given index. The same
// (master, index) pair always yields the same key.
func (m *Master) DeriveSession(index uint32) (*SessionKey, error) {
	if m.root == nil {
		return nil, fmt.Errorf("master identity has no root key")
	}
	hd, err := m.root.DeriveSessionKey(index)
	if err != nil {
		return nil, err
	}
	signer, err := hd.Signer()
	if err != nil {
		return nil, err
	}
	return &SessionKey{
		Index: index,
		key:   signer,
		addr:  eth.AddressFromPubKey(signer.PubKey()),
	}, nil
}

// FundingKey returns the master's own session key (index 0), used to move
// value into under-collateralized session keys.
func (m *Master) FundingKey() (*SessionKey, error) {
	return m.DeriveSession(0)
}

// Clear wipes the phrase and root key references so the identity cannot
// derive further keys. Called when the wallet is reset.
func (m *Master) Clear() {
	m.phrase = ""
	m.root = nil
	m.addr = eth.Address{}
}
