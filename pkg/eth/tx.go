package eth

import (
	"fmt"
	"math/big"
)

// DynamicFeeTxType is the EIP-2718 type byte of an EIP-1559 transaction.
const DynamicFeeTxType = 0x02

// DynamicFeeTx is an unsigned EIP-1559 transaction. The access list is
// always empty; the engine never produces one.
type DynamicFeeTx struct {
	ChainID   *big.Int
	Nonce     uint64
	GasTipCap *big.Int // max priority fee per gas
	GasFeeCap *big.Int // max fee per gas
	Gas       uint64
	To        *Address // nil for contract creation
	Value     *big.Int
	Data      []byte
}

// encodeFields RLP-encodes the nine unsigned fields in order.
func (tx *DynamicFeeTx) encodeFields() []byte {
	var payload []byte
	payload = rlpAppendBig(payload, tx.ChainID)
	payload = rlpAppendUint64(payload, tx.Nonce)
	payload = rlpAppendBig(payload, tx.GasTipCap)
	payload = rlpAppendBig(payload, tx.GasFeeCap)
	payload = rlpAppendUint64(payload, tx.Gas)
	if tx.To != nil {
		payload = rlpAppendBytes(payload, tx.To[:])
	} else {
		payload = rlpAppendBytes(payload, nil)
	}
	payload = rlpAppendBig(payload, tx.Value)
	payload = rlpAppendBytes(payload, tx.Data)
	payload = append(payload, 0xc0) // empty access list
	return payload
}

// SigningHash returns the hash the sender signs:
// keccak256(0x02 || rlp([chainId, nonce, tip, feeCap, gas, to, value, data, accessList])).
func (tx *DynamicFeeTx) SigningHash() Hash {
	encoded := rlpWrapList(tx.encodeFields())
	return Keccak256([]byte{DynamicFeeTxType}, encoded)
}

// Raw assembles the signed raw transaction bytes from a 65-byte compact
// recoverable signature in [v(27+recid), r(32), s(32)] layout, ready for
// eth_sendRawTransaction.
func (tx *DynamicFeeTx) Raw(compactSig []byte) ([]byte, error) {
	if len(compactSig) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes, got %d", len(compactSig))
	}
	recovery := compactSig[0]
	if recovery >= 31 {
		// Compressed-pubkey recovery codes are offset by 4.
		recovery -= 4
	}
	if recovery < 27 {
		return nil, fmt.Errorf("invalid recovery code %d", compactSig[0])
	}
	yParity := uint64(recovery - 27)
	r := new(big.Int).SetBytes(compactSig[1:33])
	s := new(big.Int).SetBytes(compactSig[33:65])

	payload := tx.encodeFields()
	payload = rlpAppendUint64(payload, yParity)
	payload = rlpAppendBig(payload, r)
	payload = rlpAppendBig(payload, s)

	encoded := rlpWrapList(payload)
	raw := make([]byte, 0, 1+len(encoded))
	raw = append(raw, DynamicFeeTxType)
	raw = append(raw, encoded...)
	return raw, nil
}

// TxHash returns the transaction hash of signed raw transaction bytes.
func TxHash(raw []byte) Hash {
	return Keccak256(raw)
}
