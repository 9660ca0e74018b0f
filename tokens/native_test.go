package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, NativeSentinel, Normalize(ZeroAddress))
	assert.Equal(t, NativeSentinel, Normalize(NativeSentinel))
	assert.Equal(t, Normalize(ZeroAddress), Normalize(NativeSentinel))

	// Mixed case sentinel still normalizes.
	assert.Equal(t, NativeSentinel, Normalize("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"))

	// Regular token addresses pass through untouched, case preserved.
	usdt := "0x55d398326f99059fF775485246999027B3197955"
	assert.Equal(t, usdt, Normalize(usdt))
}

func TestIsNative(t *testing.T) {
	assert.True(t, IsNative(ZeroAddress))
	assert.True(t, IsNative(NativeSentinel))
	assert.True(t, IsNative("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"))
	assert.False(t, IsNative("0x55d398326f99059fF775485246999027B3197955"))
	assert.False(t, IsNative(""))
}
