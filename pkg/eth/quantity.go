package eth

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// JSON-RPC quantities are 0x-prefixed hex with no leading zeros ("0x0" for
// zero). Unformatted data (calldata, raw transactions) is 0x-prefixed hex
// with an even number of digits.

// EncodeBig encodes a big integer as a JSON-RPC quantity.
// A nil value encodes as "0x0".
func EncodeBig(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return "0x0"
	}
	return "0x" + v.Text(16)
}

// DecodeBig decodes a JSON-RPC quantity into a big integer.
func DecodeBig(s string) (*big.Int, error) {
	digits, err := stripPrefix(s)
	if err != nil {
		return nil, err
	}
	if digits == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("invalid quantity: %q", s)
	}
	return v, nil
}

// EncodeUint64 encodes an unsigned integer as a JSON-RPC quantity.
func EncodeUint64(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

// DecodeUint64 decodes a JSON-RPC quantity into a uint64.
func DecodeUint64(s string) (uint64, error) {
	v, err := DecodeBig(s)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("quantity %q overflows uint64", s)
	}
	return v.Uint64(), nil
}

// EncodeBytes encodes unformatted data as 0x-prefixed hex.
func EncodeBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeBytes decodes 0x-prefixed hex data.
func DecodeBytes(s string) ([]byte, error) {
	digits, err := stripPrefix(s)
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return b, nil
}

func stripPrefix(s string) (string, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("missing 0x prefix: %q", s)
	}
	return s[2:], nil
}
