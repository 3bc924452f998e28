package schnorrkel

import (
	"crypto/rand"
	"crypto/sha512"
	"io"
)

// ExpansionMode selects how a mini secret key is expanded into a secret
// key.
type ExpansionMode int

const (
	// ExpansionModeEd25519 hashes the seed with SHA-512 and clamps the
	// lower half like ed25519. Substrate uses this mode.
	ExpansionModeEd25519 ExpansionMode = iota
	// ExpansionModeUniform derives the scalar and nonce from a Merlin
	// transcript over the seed.
	ExpansionModeUniform
)

func (m ExpansionMode) String() string {
	switch m {
	case ExpansionModeEd25519:
		return "ed25519"
	case ExpansionModeUniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// ParseExpansionMode maps "ed25519" or "uniform" to a mode.
func ParseExpansionMode(s string) (ExpansionMode, error) {
	switch s {
	case "ed25519", "":
		return ExpansionModeEd25519, nil
	case "uniform":
		return ExpansionModeUniform, nil
	default:
		return 0, ErrInvalidConfiguration.WithDetails("unknown expansion mode %q", s)
	}
}

// ExpandMiniSecret turns a seed into a secret key using mode.
func (s *Schnorrkel) ExpandMiniSecret(mini MiniSecretKey, mode ExpansionMode) (SecretKey, error) {
	var (
		key   Scalar
		nonce []byte
		err   error
	)
	switch mode {
	case ExpansionModeEd25519:
		key, nonce, err = s.expandEd25519(mini)
	case ExpansionModeUniform:
		key, nonce, err = s.expandUniform(mini)
	default:
		return SecretKey{}, ErrInvalidConfiguration.WithDetails("unknown expansion mode %d", mode)
	}
	if err != nil {
		return SecretKey{}, err
	}
	defer key.Zeroize()
	defer zeroBytes(nonce)

	return encodeSecretKey(key, nonce), nil
}

func (s *Schnorrkel) expandEd25519(mini MiniSecretKey) (Scalar, []byte, error) {
	h := sha512.Sum512(mini[:])
	defer zeroBytes(h[:])

	key := make([]byte, 32)
	defer zeroBytes(key)
	copy(key, h[:32])
	key[0] &= 248
	key[31] &= 63
	key[31] |= 64
	divideScalarBytesByCofactor(key)

	scalar, err := s.curve.ScalarFromUniformBytes(key)
	if err != nil {
		return nil, nil, ErrCryptographicOperation.WithCause(err).WithContext("operation", "expand_ed25519")
	}

	nonce := make([]byte, 32)
	copy(nonce, h[32:])
	return scalar, nonce, nil
}

func (s *Schnorrkel) expandUniform(mini MiniSecretKey) (Scalar, []byte, error) {
	t := NewTranscript([]byte("ExpandSecretKeys")).begin(s.curve)
	t.commitBytes("mini", mini[:])

	scalar, err := t.challengeScalar("sk")
	if err != nil {
		return nil, nil, ErrCryptographicOperation.WithCause(err).WithContext("operation", "expand_uniform")
	}
	return scalar, t.challengeBytes("no", 32), nil
}

// encodeSecretKey writes the ed25519-compatible layout: key×8 ‖ nonce.
func encodeSecretKey(key Scalar, nonce []byte) SecretKey {
	var sk SecretKey
	kb := key.Bytes()
	defer zeroBytes(kb)
	multiplyScalarBytesByCofactor(kb)
	copy(sk[:32], kb)
	copy(sk[32:], nonce)
	return sk
}

// secretScalar recovers the secret scalar from the ed25519-compatible layout.
func (s *Schnorrkel) secretScalar(sk SecretKey) (Scalar, error) {
	key := make([]byte, 32)
	defer zeroBytes(key)
	copy(key, sk[:32])
	divideScalarBytesByCofactor(key)

	scalar, err := s.curve.ScalarFromUniformBytes(key)
	if err != nil {
		return nil, ErrCryptographicOperation.WithCause(err).WithContext("operation", "secret_scalar")
	}
	return scalar, nil
}

// PublicKeyOf computes the public key x·G for sk.
func (s *Schnorrkel) PublicKeyOf(sk SecretKey) (PublicKey, error) {
	x, err := s.secretScalar(sk)
	if err != nil {
		return PublicKey{}, err
	}
	defer x.Zeroize()
	return publicKeyFromPoint(s.curve.ScalarBaseMult(x)), nil
}

func publicKeyFromPoint(p Point) PublicKey {
	var pk PublicKey
	copy(pk[:], p.Bytes())
	return pk
}

// KeyPairFromSecret pairs sk with its public key.
func (s *Schnorrkel) KeyPairFromSecret(sk SecretKey) (KeyPair, error) {
	pk, err := s.PublicKeyOf(sk)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Secret: sk, Public: pk}, nil
}

// KeyPairFromMiniSecret expands mini with the configured expansion mode.
func (s *Schnorrkel) KeyPairFromMiniSecret(mini MiniSecretKey) (KeyPair, error) {
	return s.keyPairFromMiniSecret(mini, s.expansion)
}

func (s *Schnorrkel) keyPairFromMiniSecret(mini MiniSecretKey, mode ExpansionMode) (KeyPair, error) {
	sk, err := s.ExpandMiniSecret(mini, mode)
	if err != nil {
		return KeyPair{}, err
	}
	return s.KeyPairFromSecret(sk)
}

// KeyPairFromSeed expands a 32-byte seed. The same seed always yields the
// same key pair.
func (s *Schnorrkel) KeyPairFromSeed(seed []byte) (KeyPair, error) {
	mini, err := MiniSecretKeyFromBytes(seed)
	if err != nil {
		return KeyPair{}, err
	}
	defer mini.Zeroize()

	kp, err := s.KeyPairFromMiniSecret(mini)
	if err != nil {
		return KeyPair{}, err
	}

	s.audit.OnKeyGeneration(NewAuditEventBuilder(AuditEventKeyGeneration, ReasonSeedExpansion).
		WithCurve(s.curve.Name()).
		WithPublicKey(kp.Public).
		WithMetadata("expansion_mode", s.expansion.String()).
		Build())
	return kp, nil
}

// GenerateKeyPair creates a key pair from crypto/rand.
func (s *Schnorrkel) GenerateKeyPair() (KeyPair, error) {
	return s.GenerateKeyPairFrom(rand.Reader)
}

// GenerateKeyPairFrom creates a key pair from 32 bytes read from r. A short
// read or read error is reported as ErrEntropyUnavailable and is not
// retried.
func (s *Schnorrkel) GenerateKeyPairFrom(r io.Reader) (KeyPair, error) {
	var mini MiniSecretKey
	defer mini.Zeroize()

	if _, err := io.ReadFull(r, mini[:]); err != nil {
		entropyErr := ErrEntropyUnavailable.WithCause(err)
		s.audit.OnKeyGeneration(NewAuditEventBuilder(AuditEventKeyGeneration, ReasonRandomGeneration).
			WithCurve(s.curve.Name()).
			WithError(entropyErr).
			Build())
		return KeyPair{}, entropyErr
	}

	kp, err := s.KeyPairFromMiniSecret(mini)
	if err != nil {
		return KeyPair{}, err
	}

	s.audit.OnKeyGeneration(NewAuditEventBuilder(AuditEventKeyGeneration, ReasonRandomGeneration).
		WithCurve(s.curve.Name()).
		WithPublicKey(kp.Public).
		Build())
	return kp, nil
}
