// Package schnorrkel implements Schnorr signatures, hierarchical key
// derivation and a verifiable random function over the ristretto255 group,
// compatible with the sr25519 scheme used by Substrate based chains.
//
// Every challenge and nonce is derived from a Merlin transcript, so the
// labels and the order in which values are committed are part of the
// protocol. All operations are pure functions over fixed-size byte values.
package schnorrkel

import (
	"strings"
)

// Schnorrkel binds the protocol operations to a curve engine and the
// contexts they sign under. It holds no mutable state and is safe for
// concurrent use.
type Schnorrkel struct {
	curve          Curve
	signingContext *SigningContext
	contextBytes   []byte
	vrfContext     []byte
	vrfBytesLength int
	expansion      ExpansionMode
	audit          AuditEventHandler
	validator      *ConfigurationValidator
}

// New validates cfg and returns an instance bound to it.
func New(cfg Config) (*Schnorrkel, error) {
	validator := NewDefaultConfigurationValidator()
	result := validator.ValidateCompleteConfiguration(cfg)
	if !result.Valid {
		if cfg.AuditHandler != nil {
			curveName := ""
			if cfg.Curve != nil {
				curveName = cfg.Curve.Name()
			}
			event := NewAuditEventBuilder(AuditEventValidationFailure, ReasonInvalidConfiguration).
				WithCurve(curveName).
				WithError(ErrInvalidConfiguration).
				BuildValidationFailure("configuration", strings.Join(result.Errors, "; "), map[string]interface{}{
					"vrf_bytes_length": cfg.VRFBytesLength,
					"expansion_mode":   cfg.ExpansionMode.String(),
				})
			cfg.AuditHandler.OnValidationFailure(event)
		}
		return nil, ErrInvalidConfiguration.WithDetails("%s", strings.Join(result.Errors, "; "))
	}

	s := &Schnorrkel{
		curve:          cfg.Curve,
		signingContext: NewSigningContext(cfg.SigningContext),
		contextBytes:   append([]byte(nil), cfg.SigningContext...),
		vrfContext:     append([]byte(nil), cfg.VRFContext...),
		vrfBytesLength: cfg.VRFBytesLength,
		expansion:      cfg.ExpansionMode,
		audit:          cfg.AuditHandler,
		validator:      validator,
	}

	s.audit.OnConfigurationChange(NewAuditEventBuilder(AuditEventInitialization, ReasonInitialization).
		WithCurve(cfg.Curve.Name()).
		WithMetadata("signing_context", string(cfg.SigningContext)).
		WithMetadata("vrf_context", string(cfg.VRFContext)).
		WithMetadata("security_level", string(result.SecurityLevel)).
		Build())

	return s, nil
}

func mustNew(cfg Config) *Schnorrkel {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

var defaultInstance = mustNew(DefaultConfig())

// Default returns the shared instance configured with DefaultConfig.
func Default() *Schnorrkel { return defaultInstance }

// Curve returns the group engine.
func (s *Schnorrkel) Curve() Curve { return s.curve }

// SigningContext returns the context bound into Sign and Verify.
func (s *Schnorrkel) SigningContext() []byte { return append([]byte(nil), s.contextBytes...) }

// GenerateKeyPair creates a key pair from fresh system entropy using the
// default instance.
func GenerateKeyPair() (KeyPair, error) { return defaultInstance.GenerateKeyPair() }

// KeyPairFromSeed expands a 32-byte seed using the default instance.
func KeyPairFromSeed(seed []byte) (KeyPair, error) { return defaultInstance.KeyPairFromSeed(seed) }

// KeyPairFromURI resolves a secret URI using the default instance.
func KeyPairFromURI(uri string) (KeyPair, error) { return defaultInstance.KeyPairFromURI(uri) }

// Sign signs message under the "substrate" context.
func Sign(message []byte, kp KeyPair) (Signature, error) { return defaultInstance.Sign(message, kp) }

// Verify checks a signature made by Sign.
func Verify(sig Signature, message []byte, pk PublicKey) (bool, error) {
	return defaultInstance.Verify(sig, message, pk)
}

// VerifyDeprecated checks a signature produced by the pre-audit protocol.
func VerifyDeprecated(sig Signature, message []byte, pk PublicKey) (bool, error) {
	return defaultInstance.VerifyDeprecated(sig, message, pk)
}

func DeriveHard(kp KeyPair, cc ChainCode) (KeyPair, ChainCode, error) {
	return defaultInstance.DeriveHard(kp, cc)
}

func DeriveSoft(kp KeyPair, cc ChainCode) (KeyPair, ChainCode, error) {
	return defaultInstance.DeriveSoft(kp, cc)
}

func DerivePublicSoft(pk PublicKey, cc ChainCode) (PublicKey, ChainCode, error) {
	return defaultInstance.DerivePublicSoft(pk, cc)
}

func VrfSign(sk SecretKey, t *Transcript) (VrfOutputAndProof, error) {
	return defaultInstance.VrfSign(sk, t)
}

func VrfVerify(pk PublicKey, t *Transcript, out VrfOutput, proof VrfProof) (bool, error) {
	return defaultInstance.VrfVerify(pk, t, out, proof)
}

func MakeBytes(pk PublicKey, t *Transcript, out VrfOutput) ([]byte, error) {
	return defaultInstance.MakeBytes(pk, t, out)
}
