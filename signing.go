package schnorrkel

// Signature transcript labels.
const (
	sigProtoName  = "Schnorr-sig"
	labelSignPK   = "sign:pk"
	labelSignR    = "sign:R"
	labelSignC    = "sign:c"
	labelSigning  = "signing"
	signatureMark = 0x80
	schemeSR25519 = "sr25519"
)

// Sign signs message under the instance's signing context.
func (s *Schnorrkel) Sign(message []byte, kp KeyPair) (Signature, error) {
	return s.SignTranscript(s.signingContext.Bytes(message), kp)
}

// SignTranscript signs an arbitrary transcript. t is not modified.
//
// The nonce is a witness over the transcript and the key's nonce seed, so
// signing the same transcript twice with the same key gives the same
// signature.
func (s *Schnorrkel) SignTranscript(t *Transcript, kp KeyPair) (Signature, error) {
	x, err := s.secretScalar(kp.Secret)
	if err != nil {
		return Signature{}, err
	}
	defer x.Zeroize()

	session := t.begin(s.curve)
	session.protoName(sigProtoName)
	session.commitBytes(labelSignPK, kp.Public[:])

	r, err := session.witnessScalar(labelSigning, kp.Secret[32:])
	if err != nil {
		return Signature{}, ErrCryptographicOperation.WithCause(err).WithContext("operation", "sign_witness")
	}
	defer r.Zeroize()

	R := s.curve.ScalarBaseMult(r)
	session.commitPoint(labelSignR, R)

	k, err := session.challengeScalar(labelSignC)
	if err != nil {
		return Signature{}, ErrCryptographicOperation.WithCause(err).WithContext("operation", "sign_challenge")
	}

	// s = k·x + r
	response := k.Mul(x).Add(r)

	var sig Signature
	copy(sig[:32], R.Bytes())
	copy(sig[32:], response.Bytes())
	sig[63] |= signatureMark
	return sig, nil
}

// Verify checks sig over message under the instance's signing context.
// It returns an error only when pk does not decode; every other rejection
// is a false result.
func (s *Schnorrkel) Verify(sig Signature, message []byte, pk PublicKey) (bool, error) {
	return s.VerifyTranscript(s.signingContext.Bytes(message), sig, pk)
}

// VerifyTranscript checks sig over an arbitrary transcript.
func (s *Schnorrkel) VerifyTranscript(t *Transcript, sig Signature, pk PublicKey) (bool, error) {
	A, err := s.decodePublicKey(pk)
	if err != nil {
		return false, err
	}

	if sig[63]&signatureMark == 0 {
		s.rejected(pk, ErrNotMarkedSchnorrkel, false)
		return false, nil
	}

	response, err := s.responseScalar(sig)
	if err != nil {
		s.rejected(pk, err, false)
		return false, nil
	}

	session := t.begin(s.curve)
	session.protoName(sigProtoName)
	session.commitBytes(labelSignPK, pk[:])
	session.commitBytes(labelSignR, sig[:32])

	k, err := session.challengeScalar(labelSignC)
	if err != nil {
		return false, ErrCryptographicOperation.WithCause(err).WithContext("operation", "verify_challenge")
	}

	// R' = s·G − k·A
	R := s.curve.ScalarBaseMult(response).Sub(A.Mul(k))
	if !equalBytes(R.Bytes(), sig[:32]) {
		s.rejected(pk, nil, false)
		return false, nil
	}
	return true, nil
}

// responseScalar reads s from the upper half with the marker bit cleared.
// Non-canonical encodings are rejected.
func (s *Schnorrkel) responseScalar(sig Signature) (Scalar, error) {
	upper := make([]byte, 32)
	copy(upper, sig[32:])
	upper[31] &^= signatureMark

	scalar, err := s.curve.ScalarFromBytes(upper)
	if err != nil {
		return nil, ErrScalarFormat.WithCause(err)
	}
	return scalar, nil
}

func (s *Schnorrkel) rejected(pk PublicKey, cause error, deprecated bool) {
	b := NewAuditEventBuilder(AuditEventVerificationFailure, ReasonSignatureRejected).
		WithCurve(s.curve.Name()).
		WithPublicKey(pk)
	if cause != nil {
		b.WithError(cause)
	}
	scheme := schemeSR25519
	if deprecated {
		scheme = schemeSR25519 + "-deprecated"
	}
	s.audit.OnVerificationFailure(b.BuildVerificationFailure(scheme, deprecated))
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
