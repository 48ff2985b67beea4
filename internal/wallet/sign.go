package wallet

import (
	"fmt"
	"strconv"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/emduc/PrivatePay/pkg/eth"
)

// personalSignPrefix is the EIP-191 prefix for personal_sign messages.
const personalSignPrefix = "\x19Ethereum Signed Message:\n"

// SessionKey is a key derived for one session: it signs messages and
// transactions and exposes its Ethereum address.
type SessionKey struct {
	Index uint32

	key  *secp256k1.PrivateKey
	addr eth.Address
}

// Address returns the session key's Ethereum address.
func (k *SessionKey) Address() eth.Address {
	return k.addr
}

// PersonalSign signs a message per EIP-191 and returns the 65-byte
// r||s||v signature as 0x-prefixed hex (v in {27, 28}).
func (k *SessionKey) PersonalSign(message []byte) (string, error) {
	if k.key == nil {
		return "", fmt.Errorf("session key has been zeroed")
	}
	prefixed := append([]byte(personalSignPrefix+strconv.Itoa(len(message))), message...)
	hash := eth.Keccak256(prefixed)

	// SignCompact yields [v(27+recid), r(32), s(32)]; Ethereum wants v last.
	compact := ecdsa.SignCompact(k.key, hash.Bytes(), false)
	sig := make([]byte, 65)
	copy(sig[0:32], compact[1:33])
	copy(sig[32:64], compact[33:65])
	sig[64] = compact[0]
	return eth.EncodeBytes(sig), nil
}

// SignTx signs an EIP-1559 transaction and returns the raw bytes for
// eth_sendRawTransaction.
func (k *SessionKey) SignTx(tx *eth.DynamicFeeTx) ([]byte, error) {
	if k.key == nil {
		return nil, fmt.Errorf("session key has been zeroed")
	}
	hash := tx.SigningHash()
	compact := ecdsa.SignCompact(k.key, hash.Bytes(), false)
	return tx.Raw(compact)
}

// Zero wipes the private key material.
func (k *SessionKey) Zero() {
	if k.key != nil {
		k.key.Zero()
		k.key = nil
	}
}

// RecoverPersonalSign recovers the signing address from an EIP-191
// signature produced by PersonalSign. Used by tests and diagnostics.
func RecoverPersonalSign(message []byte, sigHex string) (eth.Address, error) {
	sig, err := eth.DecodeBytes(sigHex)
	if err != nil {
		return eth.Address{}, err
	}
	if len(sig) != 65 {
		return eth.Address{}, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	prefixed := append([]byte(personalSignPrefix+strconv.Itoa(len(message))), message...)
	hash := eth.Keccak256(prefixed)

	compact := make([]byte, 65)
	compact[0] = sig[64]
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])
	pub, _, err := ecdsa.RecoverCompact(compact, hash.Bytes())
	if err != nil {
		return eth.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return eth.AddressFromPubKey(pub), nil
}
