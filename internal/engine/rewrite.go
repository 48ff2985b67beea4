package engine

import (
	"strings"

	"github.com/emduc/PrivatePay/pkg/eth"
)

// Rewrite substitutes the decoy address with the real one throughout a
// decoded-JSON value. String leaves that case-insensitively equal the
// decoy become the real address; 0x-prefixed strings that merely contain
// the decoy's bare hex (an address embedded in call data) have that
// substring replaced in place. All other leaves pass through. The result
// contains no trace of the decoy, so applying Rewrite twice equals
// applying it once.
func Rewrite(value interface{}, decoy, real eth.Address) interface{} {
	switch v := value.(type) {
	case string:
		return rewriteString(v, decoy, real)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = Rewrite(item, decoy, real)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = Rewrite(item, decoy, real)
		}
		return out
	default:
		return v
	}
}

func rewriteString(s string, decoy, real eth.Address) string {
	if strings.EqualFold(s, decoy.String()) {
		return real.String()
	}
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		bare := decoy.String()[2:]
		if containsFold(s, bare) {
			return replaceFold(s, bare, strings.ToLower(real.String()[2:]))
		}
	}
	return s
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// replaceFold replaces every case-insensitive occurrence of old with new,
// preserving the rest of the string byte for byte.
func replaceFold(s, old, new string) string {
	lower := strings.ToLower(s)
	needle := strings.ToLower(old)

	var b strings.Builder
	for {
		i := strings.Index(lower, needle)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(new)
		s = s[i+len(old):]
		lower = lower[i+len(needle):]
	}
}
