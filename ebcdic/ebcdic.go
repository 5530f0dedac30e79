// Package ebcdic translates between EBCDIC code page 37 and the local
// character set.
//
// 5250 hosts speak EBCDIC on the wire, so every byte of field data and
// literal screen text has to be translated on the way in and out. The
// translation is deliberately total: every one of the 256 byte values has a
// defined mapping in each direction, and anything outside the printable
// subset rounds to a space. That makes the codec safe to run over arbitrary
// garbage without an error path.
//
// The code page is exposed both as a pair of raw table lookups (ToASCII,
// FromASCII) for single-byte hot paths, and as an encoding.Encoding
// (CodePage37) so it can slot into golang.org/x/text pipelines like any
// registered character set.
package ebcdic

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Space is the EBCDIC encoding of a blank cell. It doubles as the safe
// default for any character with no code page 37 mapping.
const Space byte = 0x40

var ebcdicToASCII [256]byte
var asciiToEBCDIC [256]byte

// codePage37Pairs holds the printable subset of EBCDIC code page 37 actually
// used by 5250 field data and literal text: letters, digits, and common
// punctuation.
var codePage37Pairs = map[byte]byte{
	0x40: ' ',
	0x4B: '.',
	0x4C: '<',
	0x4D: '(',
	0x4E: '+',
	0x4F: '|',
	0x50: '&',
	0x5A: '!',
	0x5B: '$',
	0x5C: '*',
	0x5D: ')',
	0x5E: ';',
	0x60: '-',
	0x61: '/',
	0x6B: ',',
	0x6C: '%',
	0x6D: '_',
	0x6E: '>',
	0x6F: '?',
	0x7A: ':',
	0x7B: '#',
	0x7C: '@',
	0x7D: '\'',
	0x7E: '=',
	0x7F: '"',

	0x81: 'a', 0x82: 'b', 0x83: 'c', 0x84: 'd', 0x85: 'e',
	0x86: 'f', 0x87: 'g', 0x88: 'h', 0x89: 'i',
	0x91: 'j', 0x92: 'k', 0x93: 'l', 0x94: 'm', 0x95: 'n',
	0x96: 'o', 0x97: 'p', 0x98: 'q', 0x99: 'r',
	0xA2: 's', 0xA3: 't', 0xA4: 'u', 0xA5: 'v', 0xA6: 'w',
	0xA7: 'x', 0xA8: 'y', 0xA9: 'z',

	0xC1: 'A', 0xC2: 'B', 0xC3: 'C', 0xC4: 'D', 0xC5: 'E',
	0xC6: 'F', 0xC7: 'G', 0xC8: 'H', 0xC9: 'I',
	0xD1: 'J', 0xD2: 'K', 0xD3: 'L', 0xD4: 'M', 0xD5: 'N',
	0xD6: 'O', 0xD7: 'P', 0xD8: 'Q', 0xD9: 'R',
	0xE2: 'S', 0xE3: 'T', 0xE4: 'U', 0xE5: 'V', 0xE6: 'W',
	0xE7: 'X', 0xE8: 'Y', 0xE9: 'Z',

	0xF0: '0', 0xF1: '1', 0xF2: '2', 0xF3: '3', 0xF4: '4',
	0xF5: '5', 0xF6: '6', 0xF7: '7', 0xF8: '8', 0xF9: '9',
}

func init() {
	for i := range ebcdicToASCII {
		ebcdicToASCII[i] = ' '
		asciiToEBCDIC[i] = Space
	}

	for e, a := range codePage37Pairs {
		ebcdicToASCII[e] = a
		asciiToEBCDIC[a] = e
	}
}

// ToASCII translates a single EBCDIC byte to its ASCII equivalent. Bytes
// outside the supported printable subset translate to a space.
func ToASCII(b byte) byte {
	return ebcdicToASCII[b]
}

// FromASCII translates a single ASCII byte to its EBCDIC equivalent. Bytes
// outside the supported printable subset translate to an EBCDIC space.
func FromASCII(b byte) byte {
	return asciiToEBCDIC[b]
}

// DecodeString translates a whole EBCDIC buffer to a string.
func DecodeString(data []byte) string {
	decoded, err := CodePage37.NewDecoder().Bytes(data)
	if err != nil {
		// The decoder is total over its input domain; no byte can fail.
		panic(err)
	}

	return string(decoded)
}

// EncodeString translates a string to its EBCDIC encoding. Runes with no
// code page 37 mapping encode as EBCDIC spaces.
func EncodeString(text string) []byte {
	encoded, err := CodePage37.NewEncoder().Bytes([]byte(text))
	if err != nil {
		panic(err)
	}

	return encoded
}

// CodePage37 is the EBCDIC code page 37 subset as an encoding.Encoding. It
// can be used anywhere a golang.org/x/text character set is expected.
var CodePage37 encoding.Encoding = codePage37{}

type codePage37 struct{}

func (codePage37) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: cp37Decoder{}}
}

func (codePage37) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: cp37Encoder{}}
}

type cp37Decoder struct {
	transform.NopResetter
}

func (cp37Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		// Every mapped character is in the ASCII range, so each EBCDIC byte
		// decodes to exactly one UTF-8 byte.
		dst[nDst] = ebcdicToASCII[src[nSrc]]
		nDst++
		nSrc++
	}

	return nDst, nSrc, nil
}

type cp37Encoder struct {
	transform.NopResetter
}

func (cp37Encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 && !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		if r < utf8.RuneSelf {
			dst[nDst] = asciiToEBCDIC[byte(r)]
		} else {
			dst[nDst] = Space
		}

		nDst++
		nSrc += size
	}

	return nDst, nSrc, nil
}
