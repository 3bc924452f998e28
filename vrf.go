package schnorrkel

// VRF transcript labels. The proof commits the public key after h^r, the
// ordering Kusama and Polkadot BABE use.
const (
	labelVRFPK      = "vrf-nm-pk"
	labelVRFHash    = "VRFHash"
	vrfProofDomain  = "VRF"
	dleqProtoName   = "DLEQProof"
	labelDLEQH      = "vrf:h"
	labelDLEQR      = "vrf:R=g^r"
	labelDLEQHr     = "vrf:h^r"
	labelDLEQPK     = "vrf:pk"
	labelDLEQOutput = "vrf:h^sk"
	labelDLEQC      = "prove"
	labelProving    = "proving\x000"
	vrfResultDomain = "VRFResult"
	labelVRFIn      = "vrf-in"
	labelVRFOut     = "vrf-out"
	schemeVRF       = "vrf"
)

// vrfInput hashes the transcript, bound to pk, onto the group.
func (s *Schnorrkel) vrfInput(pk PublicKey, t *Transcript) (Point, error) {
	session := t.begin(s.curve)
	session.commitBytes(labelVRFPK, pk[:])
	H, err := session.challengePoint(labelVRFHash)
	if err != nil {
		return nil, ErrCryptographicOperation.WithCause(err).WithContext("operation", "vrf_hash")
	}
	return H, nil
}

// VrfSign evaluates the VRF on t with sk and proves the result. The public
// key is recomputed from sk. t is not modified.
func (s *Schnorrkel) VrfSign(sk SecretKey, t *Transcript) (VrfOutputAndProof, error) {
	x, err := s.secretScalar(sk)
	if err != nil {
		return VrfOutputAndProof{}, err
	}
	defer x.Zeroize()

	pk := publicKeyFromPoint(s.curve.ScalarBaseMult(x))

	H, err := s.vrfInput(pk, t)
	if err != nil {
		return VrfOutputAndProof{}, err
	}
	out := H.Mul(x)

	proof := NewTranscript([]byte(vrfProofDomain)).begin(s.curve)
	proof.protoName(dleqProtoName)
	proof.commitPoint(labelDLEQH, H)

	r, err := proof.witnessScalar(labelProving, sk[32:])
	if err != nil {
		return VrfOutputAndProof{}, ErrCryptographicOperation.WithCause(err).WithContext("operation", "vrf_witness")
	}
	defer r.Zeroize()

	proof.commitPoint(labelDLEQR, s.curve.ScalarBaseMult(r))
	proof.commitPoint(labelDLEQHr, H.Mul(r))
	proof.commitBytes(labelDLEQPK, pk[:])
	proof.commitPoint(labelDLEQOutput, out)

	c, err := proof.challengeScalar(labelDLEQC)
	if err != nil {
		return VrfOutputAndProof{}, ErrCryptographicOperation.WithCause(err).WithContext("operation", "vrf_challenge")
	}
	// s = r − c·x
	response := r.Sub(c.Mul(x))

	var result VrfOutputAndProof
	copy(result.Output[:], out.Bytes())
	copy(result.Proof[:32], c.Bytes())
	copy(result.Proof[32:], response.Bytes())
	return result, nil
}

// decodeVrfOutput rejects outputs that do not decode or decode to the
// identity.
func (s *Schnorrkel) decodeVrfOutput(out VrfOutput) (Point, error) {
	P, err := s.curve.PointFromBytes(out[:])
	if err != nil {
		return nil, ErrInvalidVrfOutput.WithCause(err)
	}
	if P.IsIdentity() {
		return nil, ErrInvalidVrfOutput.WithDetails("identity element")
	}
	return P, nil
}

// VrfVerify checks that out and proof were produced by the secret key of pk
// on t. An undecodable public key or output is an error; a proof that does
// not check out is a false result.
func (s *Schnorrkel) VrfVerify(pk PublicKey, t *Transcript, out VrfOutput, proof VrfProof) (bool, error) {
	A, err := s.decodePublicKey(pk)
	if err != nil {
		return false, err
	}
	output, err := s.decodeVrfOutput(out)
	if err != nil {
		return false, err
	}

	c, err := s.curve.ScalarFromBytes(proof[:32])
	if err != nil {
		s.vrfRejected(pk, ErrScalarFormat.WithCause(err))
		return false, nil
	}
	response, err := s.curve.ScalarFromBytes(proof[32:])
	if err != nil {
		s.vrfRejected(pk, ErrScalarFormat.WithCause(err))
		return false, nil
	}

	H, err := s.vrfInput(pk, t)
	if err != nil {
		return false, err
	}

	session := NewTranscript([]byte(vrfProofDomain)).begin(s.curve)
	session.protoName(dleqProtoName)
	session.commitPoint(labelDLEQH, H)

	// R = c·A + s·G, Hr = c·out + s·H
	session.commitPoint(labelDLEQR, A.Mul(c).Add(s.curve.ScalarBaseMult(response)))
	session.commitPoint(labelDLEQHr, output.Mul(c).Add(H.Mul(response)))
	session.commitBytes(labelDLEQPK, pk[:])
	session.commitBytes(labelDLEQOutput, out[:])

	expected, err := session.challengeScalar(labelDLEQC)
	if err != nil {
		return false, ErrCryptographicOperation.WithCause(err).WithContext("operation", "vrf_verify_challenge")
	}
	if !expected.Equal(c) {
		s.vrfRejected(pk, nil)
		return false, nil
	}
	return true, nil
}

// MakeBytes extracts the instance's default number of bytes under its
// default VRF context. out should already have been verified.
func (s *Schnorrkel) MakeBytes(pk PublicKey, t *Transcript, out VrfOutput) ([]byte, error) {
	return s.MakeBytesWithContext(pk, t, out, s.vrfContext, s.vrfBytesLength)
}

// MakeBytesWithContext extracts n pseudorandom bytes from a VRF output. The
// result depends only on the arguments.
func (s *Schnorrkel) MakeBytesWithContext(pk PublicKey, t *Transcript, out VrfOutput, context []byte, n int) ([]byte, error) {
	if n <= 0 || n > MaxVRFBytesLength {
		return nil, ErrInvalidLength.WithDetails("vrf bytes: %d not in 1..%d", n, MaxVRFBytesLength)
	}
	if _, err := s.decodeVrfOutput(out); err != nil {
		return nil, err
	}

	H, err := s.vrfInput(pk, t)
	if err != nil {
		return nil, err
	}

	result := NewTranscript([]byte(vrfResultDomain)).
		Append(nil, context).
		Append([]byte(labelVRFIn), H.Bytes()).
		Append([]byte(labelVRFOut), out[:]).
		begin(s.curve)
	return result.challengeBytes("", n), nil
}

func (s *Schnorrkel) vrfRejected(pk PublicKey, cause error) {
	b := NewAuditEventBuilder(AuditEventVerificationFailure, ReasonVRFProofRejected).
		WithCurve(s.curve.Name()).
		WithPublicKey(pk)
	if cause != nil {
		b.WithError(cause)
	}
	s.audit.OnVerificationFailure(b.BuildVerificationFailure(schemeVRF, false))
}

// MakeBytesWithContext runs MakeBytesWithContext on the default instance.
func MakeBytesWithContext(pk PublicKey, t *Transcript, out VrfOutput, context []byte, n int) ([]byte, error) {
	return defaultInstance.MakeBytesWithContext(pk, t, out, context, n)
}
