package adapters

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/canopy-network/canopy/lib/schnorrkel"
)

// Well-known SS58 network prefixes.
const (
	PrefixPolkadot  uint16 = 0
	PrefixKusama    uint16 = 2
	PrefixSubstrate uint16 = 42

	maxSS58Prefix = 1<<14 - 1
)

var ss58Preimage = []byte("SS58PRE")

// checksumLength is fixed for 32-byte account payloads.
const checksumLength = 2

func ss58Checksum(data []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Preimage)
	h.Write(data)
	return h.Sum(nil)[:checksumLength]
}

// encodePrefix writes the one or two byte identifier.
func encodePrefix(prefix uint16) ([]byte, error) {
	switch {
	case prefix < 64:
		return []byte{byte(prefix)}, nil
	case prefix <= maxSS58Prefix:
		first := byte((prefix&0b0000_0000_1111_1100)>>2) | 0b0100_0000
		second := byte(prefix>>8) | byte((prefix&0b0000_0000_0000_0011)<<6)
		return []byte{first, second}, nil
	default:
		return nil, fmt.Errorf("ss58 prefix %d out of range", prefix)
	}
}

func decodePrefix(data []byte) (uint16, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("empty ss58 payload")
	}
	switch {
	case data[0] < 64:
		return uint16(data[0]), 1, nil
	case data[0] < 128:
		if len(data) < 2 {
			return 0, 0, fmt.Errorf("truncated ss58 prefix")
		}
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0b0011_1111
		return uint16(lower) | uint16(upper)<<8, 2, nil
	default:
		return 0, 0, fmt.Errorf("reserved ss58 prefix byte %#x", data[0])
	}
}

// EncodeAddress renders pk as an SS58 address for the given network.
func EncodeAddress(pk schnorrkel.PublicKey, prefix uint16) (string, error) {
	ident, err := encodePrefix(prefix)
	if err != nil {
		return "", err
	}
	payload := append(ident, pk[:]...)
	payload = append(payload, ss58Checksum(payload)...)
	return base58.Encode(payload), nil
}

// DecodeAddress parses an SS58 address and returns the public key and
// network prefix. The checksum is verified.
func DecodeAddress(address string) (schnorrkel.PublicKey, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return schnorrkel.PublicKey{}, 0, fmt.Errorf("invalid base58: %w", err)
	}

	prefix, offset, err := decodePrefix(raw)
	if err != nil {
		return schnorrkel.PublicKey{}, 0, err
	}
	if len(raw) != offset+schnorrkel.PublicKeyLength+checksumLength {
		return schnorrkel.PublicKey{}, 0, fmt.Errorf("invalid ss58 address length %d", len(raw))
	}

	body := raw[:offset+schnorrkel.PublicKeyLength]
	if !bytes.Equal(ss58Checksum(body), raw[len(body):]) {
		return schnorrkel.PublicKey{}, 0, fmt.Errorf("ss58 checksum mismatch")
	}

	pk, err := schnorrkel.PublicKeyFromBytes(body[offset:])
	if err != nil {
		return schnorrkel.PublicKey{}, 0, err
	}
	return pk, prefix, nil
}
