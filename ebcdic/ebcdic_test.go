package ebcdic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripPrintableSubset(t *testing.T) {
	for e, a := range codePage37Pairs {
		assert.Equal(t, a, ToASCII(e), "EBCDIC 0x%02X should decode to %q", e, a)
		assert.Equal(t, e, FromASCII(a), "%q should encode to EBCDIC 0x%02X", a, e)
		assert.Equal(t, e, FromASCII(ToASCII(e)), "EBCDIC 0x%02X should survive a round trip", e)
	}
}

func TestDecodeIsTotal(t *testing.T) {
	for b := 0; b < 256; b++ {
		decoded := ToASCII(byte(b))
		assert.True(t, decoded >= 0x20 && decoded < 0x7F,
			"EBCDIC 0x%02X decoded to unprintable 0x%02X", b, decoded)
	}
}

func TestEncodeIsTotal(t *testing.T) {
	mapped := make(map[byte]bool)
	for _, a := range codePage37Pairs {
		mapped[a] = true
	}

	for b := 0; b < 256; b++ {
		encoded := FromASCII(byte(b))
		if mapped[byte(b)] {
			assert.Equal(t, byte(b), ToASCII(encoded))
		} else {
			// Anything unmapped rounds to EBCDIC space rather than failing
			assert.Equal(t, Space, encoded)
		}
	}
}

func TestDecodeString(t *testing.T) {
	signOn := []byte{0xE2, 0x89, 0x87, 0x95, 0x40, 0xD6, 0x95}
	assert.Equal(t, "Sign On", DecodeString(signOn))
}

func TestEncodeString(t *testing.T) {
	assert.Equal(t, []byte{0xC4, 0xC5, 0xD4, 0xD6}, EncodeString("DEMO"))
}

func TestEncodeStringRoundsNonASCIIToSpace(t *testing.T) {
	encoded := EncodeString("aéb")
	assert.Equal(t, []byte{0x81, Space, 0x82}, encoded)
}

func TestCodePage37Transformer(t *testing.T) {
	decoded, err := CodePage37.NewDecoder().Bytes([]byte{0xF0, 0xF1, 0xF2})
	require.NoError(t, err)
	assert.Equal(t, "012", string(decoded))

	encoded, err := CodePage37.NewEncoder().Bytes([]byte("012"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF0, 0xF1, 0xF2}, encoded)
}

func TestControlBytesDecodeToSpaces(t *testing.T) {
	assert.Equal(t, "   ", DecodeString([]byte{0x00, 0x04, 0xFF}))
}
