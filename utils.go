package schnorrkel

import (
	"encoding/hex"
	"strings"
)

// divideScalarBytesByCofactor shifts a little-endian 256-bit integer right
// by three bits.
func divideScalarBytesByCofactor(s []byte) {
	var low byte
	for i := len(s) - 1; i >= 0; i-- {
		r := s[i] & 0x07
		s[i] >>= 3
		s[i] += low
		low = r << 5
	}
}

// multiplyScalarBytesByCofactor shifts a little-endian 256-bit integer left
// by three bits.
func multiplyScalarBytesByCofactor(s []byte) {
	var high byte
	for i := range s {
		r := s[i] & 0xe0
		s[i] <<= 3
		s[i] += high
		high = r >> 5
	}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// parseHex decodes a hex string with an optional 0x prefix and checks the
// decoded length.
func parseHex(what, s string, size int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidHex.WithCause(err).WithContext("type", what)
	}
	if len(b) != size {
		return nil, lengthError(what, len(b), size)
	}
	return b, nil
}
