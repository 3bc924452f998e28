package schnorrkel

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// TestLengthValidation checks that every fixed-size type rejects buffers of
// the wrong length instead of padding or truncating them.
func TestLengthValidation(t *testing.T) {
	constructors := map[string]struct {
		size int
		fn   func([]byte) error
	}{
		"MiniSecretKey": {MiniSecretKeyLength, func(b []byte) error { _, err := MiniSecretKeyFromBytes(b); return err }},
		"SecretKey":     {SecretKeyLength, func(b []byte) error { _, err := SecretKeyFromBytes(b); return err }},
		"PublicKey":     {PublicKeyLength, func(b []byte) error { _, err := PublicKeyFromBytes(b); return err }},
		"KeyPair":       {KeyPairLength, func(b []byte) error { _, err := KeyPairFromBytes(b); return err }},
		"ChainCode":     {ChainCodeLength, func(b []byte) error { _, err := ChainCodeFromBytes(b); return err }},
		"Signature":     {SignatureLength, func(b []byte) error { _, err := SignatureFromBytes(b); return err }},
		"VrfOutput":     {VrfOutputLength, func(b []byte) error { _, err := VrfOutputFromBytes(b); return err }},
		"VrfProof":      {VrfProofLength, func(b []byte) error { _, err := VrfProofFromBytes(b); return err }},
		"VrfOutputAndProof": {VrfOutputAndProofLength, func(b []byte) error {
			_, err := VrfOutputAndProofFromBytes(b)
			return err
		}},
	}

	for name, c := range constructors {
		t.Run(name, func(t *testing.T) {
			if err := c.fn(make([]byte, c.size)); err != nil {
				t.Fatalf("exact length rejected: %v", err)
			}
			for _, size := range []int{0, c.size - 1, c.size + 1, 2 * c.size} {
				err := c.fn(make([]byte, size))
				if !errors.Is(err, ErrInvalidLength) {
					t.Fatalf("length %d: expected ErrInvalidLength, got %v", size, err)
				}
				if !IsErrorCategory(err, ErrorCategoryValidation) {
					t.Fatalf("length %d: expected validation category", size)
				}
			}
		})
	}
}

func TestLengthConstants(t *testing.T) {
	if KeyPairLength != SecretKeyLength+PublicKeyLength {
		t.Fatal("KeyPairLength must be the sum of its halves")
	}
	if VrfOutputAndProofLength != VrfOutputLength+VrfProofLength {
		t.Fatal("VrfOutputAndProofLength must be the sum of its halves")
	}
}

func TestKeyPairBytesRoundTrip(t *testing.T) {
	kp, err := KeyPairFromSeed(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}

	raw := kp.Bytes()
	if len(raw) != KeyPairLength {
		t.Fatalf("unexpected length %d", len(raw))
	}
	back, err := KeyPairFromBytes(raw)
	if err != nil {
		t.Fatalf("KeyPairFromBytes: %v", err)
	}
	if !back.Secret.Equal(kp.Secret) || back.Public != kp.Public {
		t.Fatal("split key pair differs")
	}
	if !bytes.Equal(raw[SecretKeyLength:], kp.Public[:]) {
		t.Fatal("public key must be the trailing half")
	}
}

func TestVrfOutputAndProofRoundTrip(t *testing.T) {
	raw := make([]byte, VrfOutputAndProofLength)
	for i := range raw {
		raw[i] = byte(i)
	}
	v, err := VrfOutputAndProofFromBytes(raw)
	if err != nil {
		t.Fatalf("VrfOutputAndProofFromBytes: %v", err)
	}
	if !bytes.Equal(v.Bytes(), raw) {
		t.Fatal("concatenation does not restore the buffer")
	}
	if v.Output[0] != 0 || v.Proof[0] != VrfOutputLength {
		t.Fatal("split at the wrong offset")
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	kp, err := KeyPairFromSeed(bytes.Repeat([]byte{0xab}, 32))
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	mini, _ := MiniSecretKeyFromBytes(bytes.Repeat([]byte{0xab}, 32))

	for _, s := range []string{kp.Secret.String(), mini.String(), kp.String()} {
		if strings.Contains(s, "abab") {
			t.Fatalf("secret material leaked in %q", s)
		}
	}
	if !strings.Contains(kp.String(), kp.Public.String()) {
		t.Fatal("key pair should print its public key")
	}
}

func TestHexParsing(t *testing.T) {
	pk, err := PublicKeyFromHex("0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	if err != nil {
		t.Fatalf("PublicKeyFromHex: %v", err)
	}
	bare, err := PublicKeyFromHex("d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	if err != nil {
		t.Fatalf("PublicKeyFromHex: %v", err)
	}
	if !pk.Equal(bare) {
		t.Fatal("0x prefix changed the key")
	}

	text, _ := pk.MarshalText()
	var back PublicKey
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if back != pk {
		t.Fatal("text round trip failed")
	}

	if _, err := PublicKeyFromHex("0xzz"); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("expected ErrInvalidHex, got %v", err)
	}
	if _, err := SignatureFromHex("0x00"); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := ChainCodeFromHex(strings.Repeat("00", 33)); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestZeroize(t *testing.T) {
	kp, err := KeyPairFromSeed(bytes.Repeat([]byte{1}, 32))
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	kp.Zeroize()
	if kp.Secret != (SecretKey{}) {
		t.Fatal("secret not cleared")
	}
	if kp.Public == (PublicKey{}) {
		t.Fatal("public half should survive Zeroize")
	}
}
