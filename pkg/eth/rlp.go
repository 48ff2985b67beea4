package eth

import "math/big"

// Minimal RLP encoder covering the shapes an EIP-1559 transaction needs:
// byte strings, unsigned integers, big integers, and lists. Decoding is
// not required anywhere in the engine.

// rlpAppendBytes appends the RLP encoding of a byte string.
func rlpAppendBytes(dst, b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return append(dst, b[0])
	}
	dst = rlpAppendLength(dst, 0x80, len(b))
	return append(dst, b...)
}

// rlpAppendUint64 appends the RLP encoding of an unsigned integer
// (big-endian, no leading zeros; zero encodes as the empty string).
func rlpAppendUint64(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, 0x80)
	}
	return rlpAppendBytes(dst, beBytes(v))
}

// rlpAppendBig appends the RLP encoding of a non-negative big integer.
// A nil value encodes as zero.
func rlpAppendBig(dst []byte, v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return append(dst, 0x80)
	}
	return rlpAppendBytes(dst, v.Bytes())
}

// rlpWrapList wraps an already-encoded payload as an RLP list.
func rlpWrapList(payload []byte) []byte {
	out := rlpAppendLength(nil, 0xc0, len(payload))
	return append(out, payload...)
}

// rlpAppendLength appends the length header for a string (offset 0x80)
// or list (offset 0xc0) payload.
func rlpAppendLength(dst []byte, offset byte, length int) []byte {
	if length <= 55 {
		return append(dst, offset+byte(length))
	}
	lenBytes := beBytes(uint64(length))
	dst = append(dst, offset+55+byte(len(lenBytes)))
	return append(dst, lenBytes...)
}

// beBytes returns v as big-endian bytes with leading zeros stripped.
func beBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (56 - 8*i))
	}
	start := 0
	for buf[start] == 0 {
		start++
	}
	return buf[start:]
}
