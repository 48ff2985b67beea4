package eth

import "math/big"

// Minimal ABI call packing for the two fixed contract methods the funding
// resolver uses. Arguments are static types only (address, uint256), so
// every slot is a left-padded 32-byte word after the 4-byte selector.

// MethodID returns the 4-byte selector for a canonical method signature,
// e.g. "balanceOf(address)".
func MethodID(signature string) []byte {
	hash := Keccak256([]byte(signature))
	return hash[:4]
}

// PackCall encodes selector || one 32-byte word per argument.
// Supported argument types: Address, *big.Int.
func PackCall(signature string, args ...interface{}) []byte {
	out := MethodID(signature)
	for _, arg := range args {
		var word [32]byte
		switch v := arg.(type) {
		case Address:
			copy(word[32-AddressSize:], v[:])
		case *big.Int:
			b := v.Bytes()
			copy(word[32-len(b):], b)
		}
		out = append(out, word[:]...)
	}
	return out
}
