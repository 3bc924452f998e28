package schnorrkel

// Pre-audit signature labels. Signatures made before the schnorrkel audit
// committed the key and nonce under these names, with no protocol name and
// an empty challenge label. Keep this path separate from VerifyTranscript.
const (
	preauditLabelPK        = "pk"
	preauditLabelNonce     = "no"
	preauditLabelChallenge = ""
)

// VerifyDeprecated checks a signature produced by the pre-audit protocol
// under the instance's signing context. The marker bit is ignored, so
// signatures indistinguishable from ed25519 ones are accepted.
func (s *Schnorrkel) VerifyDeprecated(sig Signature, message []byte, pk PublicKey) (bool, error) {
	return s.VerifyTranscriptDeprecated(s.signingContext.Bytes(message), sig, pk)
}

// VerifyTranscriptDeprecated is VerifyDeprecated over an arbitrary
// transcript.
func (s *Schnorrkel) VerifyTranscriptDeprecated(t *Transcript, sig Signature, pk PublicKey) (bool, error) {
	A, err := s.decodePublicKey(pk)
	if err != nil {
		return false, err
	}

	response, err := s.responseScalar(sig)
	if err != nil {
		s.rejected(pk, err, true)
		return false, nil
	}

	session := t.begin(s.curve)
	session.commitBytes(preauditLabelPK, pk[:])
	session.commitBytes(preauditLabelNonce, sig[:32])

	k, err := session.challengeScalar(preauditLabelChallenge)
	if err != nil {
		return false, ErrCryptographicOperation.WithCause(err).WithContext("operation", "verify_deprecated_challenge")
	}

	R := s.curve.ScalarBaseMult(response).Sub(A.Mul(k))
	if !equalBytes(R.Bytes(), sig[:32]) {
		s.rejected(pk, nil, true)
		return false, nil
	}
	return true, nil
}
