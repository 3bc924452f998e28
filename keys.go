package schnorrkel

import (
	"bytes"
	"crypto/subtle"
	"encoding/hex"
)

// Protocol byte lengths.
const (
	MiniSecretKeyLength     = 32
	SecretKeyLength         = 64
	PublicKeyLength         = 32
	KeyPairLength           = SecretKeyLength + PublicKeyLength
	ChainCodeLength         = 32
	SignatureLength         = 64
	VrfOutputLength         = 32
	VrfProofLength          = 64
	VrfOutputAndProofLength = VrfOutputLength + VrfProofLength
)

// MiniSecretKey is the 32-byte seed a secret key is expanded from.
type MiniSecretKey [MiniSecretKeyLength]byte

// MiniSecretKeyFromBytes copies b into a MiniSecretKey.
func MiniSecretKeyFromBytes(b []byte) (MiniSecretKey, error) {
	var m MiniSecretKey
	if len(b) != MiniSecretKeyLength {
		return m, lengthError("mini secret key", len(b), MiniSecretKeyLength)
	}
	copy(m[:], b)
	return m, nil
}

// MiniSecretKeyFromHex parses a 0x-prefixed or bare hex seed.
func MiniSecretKeyFromHex(s string) (MiniSecretKey, error) {
	b, err := parseHex("mini secret key", s, MiniSecretKeyLength)
	if err != nil {
		return MiniSecretKey{}, err
	}
	defer zeroBytes(b)
	return MiniSecretKeyFromBytes(b)
}

func (m MiniSecretKey) String() string { return "MiniSecretKey(redacted)" }

// Zeroize clears the seed in place.
func (m *MiniSecretKey) Zeroize() { zeroBytes(m[:]) }

// SecretKey uses the ed25519-compatible layout: the secret scalar multiplied
// by the cofactor (32 bytes, little-endian) followed by the 32-byte nonce seed.
type SecretKey [SecretKeyLength]byte

// SecretKeyFromBytes copies b into a SecretKey.
func SecretKeyFromBytes(b []byte) (SecretKey, error) {
	var sk SecretKey
	if len(b) != SecretKeyLength {
		return sk, lengthError("secret key", len(b), SecretKeyLength)
	}
	copy(sk[:], b)
	return sk, nil
}

// Nonce returns the nonce seed half of the key.
func (sk SecretKey) Nonce() []byte {
	n := make([]byte, 32)
	copy(n, sk[32:])
	return n
}

// Equal compares two secret keys in constant time.
func (sk SecretKey) Equal(other SecretKey) bool {
	return subtle.ConstantTimeCompare(sk[:], other[:]) == 1
}

func (sk SecretKey) String() string { return "SecretKey(redacted)" }

// Zeroize clears the key in place.
func (sk *SecretKey) Zeroize() { zeroBytes(sk[:]) }

// PublicKey is a compressed ristretto255 point.
type PublicKey [PublicKeyLength]byte

// PublicKeyFromBytes copies b into a PublicKey. The point is not decoded
// here; operations that need the group element reject undecodable keys.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeyLength {
		return pk, lengthError("public key", len(b), PublicKeyLength)
	}
	copy(pk[:], b)
	return pk, nil
}

// PublicKeyFromHex parses a 0x-prefixed or bare hex public key.
func PublicKeyFromHex(s string) (PublicKey, error) {
	b, err := parseHex("public key", s, PublicKeyLength)
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKeyFromBytes(b)
}

func (pk PublicKey) Bytes() []byte { return append([]byte(nil), pk[:]...) }
func (pk PublicKey) String() string { return hex.EncodeToString(pk[:]) }
func (pk PublicKey) Equal(o PublicKey) bool { return pk == o }

// MarshalText encodes the key as 0x-prefixed hex.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(pk[:])), nil
}

// UnmarshalText decodes a hex public key.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := PublicKeyFromHex(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// KeyPair holds a secret key and the public key it corresponds to. Raw
// construction does not check the correspondence.
type KeyPair struct {
	Secret SecretKey
	Public PublicKey
}

// KeyPairFromBytes splits a secret ‖ public buffer.
func KeyPairFromBytes(b []byte) (KeyPair, error) {
	var kp KeyPair
	if len(b) != KeyPairLength {
		return kp, lengthError("keypair", len(b), KeyPairLength)
	}
	copy(kp.Secret[:], b[:SecretKeyLength])
	copy(kp.Public[:], b[SecretKeyLength:])
	return kp, nil
}

// Bytes concatenates secret ‖ public.
func (kp KeyPair) Bytes() []byte {
	out := make([]byte, 0, KeyPairLength)
	out = append(out, kp.Secret[:]...)
	return append(out, kp.Public[:]...)
}

func (kp KeyPair) String() string { return "KeyPair(" + kp.Public.String() + ")" }

// Zeroize clears the secret half in place.
func (kp *KeyPair) Zeroize() { kp.Secret.Zeroize() }

// ChainCode is the auxiliary input of a derivation step.
type ChainCode [ChainCodeLength]byte

// ChainCodeFromBytes copies b into a ChainCode.
func ChainCodeFromBytes(b []byte) (ChainCode, error) {
	var cc ChainCode
	if len(b) != ChainCodeLength {
		return cc, lengthError("chain code", len(b), ChainCodeLength)
	}
	copy(cc[:], b)
	return cc, nil
}

// ChainCodeFromHex parses a 0x-prefixed or bare hex chain code.
func ChainCodeFromHex(s string) (ChainCode, error) {
	b, err := parseHex("chain code", s, ChainCodeLength)
	if err != nil {
		return ChainCode{}, err
	}
	return ChainCodeFromBytes(b)
}

func (cc ChainCode) String() string { return hex.EncodeToString(cc[:]) }

// Signature is R ‖ s. Byte 63 carries the schnorrkel marker bit 0x80 that
// distinguishes it from an ed25519 signature.
type Signature [SignatureLength]byte

// SignatureFromBytes copies b into a Signature. Only the length is checked;
// the contents stay opaque until verification.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureLength {
		return sig, lengthError("signature", len(b), SignatureLength)
	}
	copy(sig[:], b)
	return sig, nil
}

// SignatureFromHex parses a 0x-prefixed or bare hex signature.
func SignatureFromHex(s string) (Signature, error) {
	b, err := parseHex("signature", s, SignatureLength)
	if err != nil {
		return Signature{}, err
	}
	return SignatureFromBytes(b)
}

func (sig Signature) Bytes() []byte { return append([]byte(nil), sig[:]...) }
func (sig Signature) String() string { return hex.EncodeToString(sig[:]) }

// VrfOutput is the compressed VRF output point.
type VrfOutput [VrfOutputLength]byte

// VrfOutputFromBytes copies b into a VrfOutput.
func VrfOutputFromBytes(b []byte) (VrfOutput, error) {
	var out VrfOutput
	if len(b) != VrfOutputLength {
		return out, lengthError("vrf output", len(b), VrfOutputLength)
	}
	copy(out[:], b)
	return out, nil
}

func (out VrfOutput) String() string { return hex.EncodeToString(out[:]) }

// VrfProof is the DLEQ proof c ‖ s.
type VrfProof [VrfProofLength]byte

// VrfProofFromBytes copies b into a VrfProof.
func VrfProofFromBytes(b []byte) (VrfProof, error) {
	var proof VrfProof
	if len(b) != VrfProofLength {
		return proof, lengthError("vrf proof", len(b), VrfProofLength)
	}
	copy(proof[:], b)
	return proof, nil
}

func (proof VrfProof) String() string { return hex.EncodeToString(proof[:]) }

// VrfOutputAndProof is what VrfSign produces.
type VrfOutputAndProof struct {
	Output VrfOutput
	Proof  VrfProof
}

// VrfOutputAndProofFromBytes splits output ‖ proof.
func VrfOutputAndProofFromBytes(b []byte) (VrfOutputAndProof, error) {
	var v VrfOutputAndProof
	if len(b) != VrfOutputAndProofLength {
		return v, lengthError("vrf output and proof", len(b), VrfOutputAndProofLength)
	}
	copy(v.Output[:], b[:VrfOutputLength])
	copy(v.Proof[:], b[VrfOutputLength:])
	return v, nil
}

// Bytes concatenates output ‖ proof.
func (v VrfOutputAndProof) Bytes() []byte {
	return bytes.Join([][]byte{v.Output[:], v.Proof[:]}, nil)
}
