package tokens

import "strings"

const (
	// ZeroAddress is the chain's native-asset convention in token lists.
	ZeroAddress = "0x0000000000000000000000000000000000000000"
	// NativeSentinel is the aggregator's placeholder address for the native asset.
	NativeSentinel = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
)

// Normalize maps the zero-address native convention to the aggregator's
// sentinel. All other addresses pass through unchanged.
func Normalize(address string) string {
	lower := strings.ToLower(address)
	if lower == ZeroAddress || lower == NativeSentinel {
		return NativeSentinel
	}
	return address
}

// IsNative reports whether the address denotes the chain's native asset under
// either sentinel convention.
func IsNative(address string) bool {
	lower := strings.ToLower(address)
	return lower == ZeroAddress || lower == NativeSentinel
}
