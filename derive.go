package schnorrkel

// Derivation transcript labels.
const (
	hdkdDomain      = "SchnorrRistrettoHDKD"
	labelChainCode  = "chain-code"
	labelSecretKey  = "secret-key"
	labelPublicKey  = "public-key"
	labelHardMini   = "HDKD-hard"
	labelHDKDScalar = "HDKD-scalar"
	labelHDKDChain  = "HDKD-chaincode"
	labelHDKDNonce  = "HDKD-nonce"
)

// hdkdTranscript is the transcript every derivation step starts from. The
// junction travels in the chain code, so the message is empty.
func hdkdTranscript() *Transcript {
	return NewTranscript([]byte(hdkdDomain)).Append(labelSignBytes, nil)
}

func chainCodeFrom(b []byte) ChainCode {
	var cc ChainCode
	copy(cc[:], b)
	return cc
}

// DeriveHard derives a child key pair from the secret half of kp. The
// child public key is unrelated to kp.Public; no public-only counterpart
// exists. The second result is the child's chain code.
func (s *Schnorrkel) DeriveHard(kp KeyPair, cc ChainCode) (KeyPair, ChainCode, error) {
	x, err := s.secretScalar(kp.Secret)
	if err != nil {
		return KeyPair{}, ChainCode{}, err
	}
	defer x.Zeroize()

	xb := x.Bytes()
	defer zeroBytes(xb)

	t := hdkdTranscript().begin(s.curve)
	t.commitBytes(labelChainCode, cc[:])
	t.commitBytes(labelSecretKey, xb)

	var mini MiniSecretKey
	defer mini.Zeroize()
	copy(mini[:], t.challengeBytes(labelHardMini, MiniSecretKeyLength))
	next := chainCodeFrom(t.challengeBytes(labelHDKDChain, ChainCodeLength))

	// Hard junctions always expand ed25519 style so derived accounts match
	// across implementations.
	child, err := s.keyPairFromMiniSecret(mini, ExpansionModeEd25519)
	if err != nil {
		return KeyPair{}, ChainCode{}, err
	}

	s.audit.OnDerivation(NewAuditEventBuilder(AuditEventKeyDerivation, ReasonHardJunction).
		WithCurve(s.curve.Name()).
		WithPublicKey(child.Public).
		BuildDerivation(kp.Public, cc, true))
	return child, next, nil
}

// softOffset commits the parent public key and chain code and returns the
// scalar offset, the child chain code, and the session for further
// witnesses.
func (s *Schnorrkel) softOffset(pk PublicKey, cc ChainCode) (Scalar, ChainCode, *transcriptSession, error) {
	t := hdkdTranscript().begin(s.curve)
	t.commitBytes(labelChainCode, cc[:])
	t.commitBytes(labelPublicKey, pk[:])

	offset, err := t.challengeScalar(labelHDKDScalar)
	if err != nil {
		return nil, ChainCode{}, nil, ErrCryptographicOperation.WithCause(err).WithContext("operation", "soft_offset")
	}
	next := chainCodeFrom(t.challengeBytes(labelHDKDChain, ChainCodeLength))
	return offset, next, t, nil
}

// DeriveSoft derives a child key pair whose public key can also be computed
// from kp.Public alone with DerivePublicSoft.
func (s *Schnorrkel) DeriveSoft(kp KeyPair, cc ChainCode) (KeyPair, ChainCode, error) {
	x, err := s.secretScalar(kp.Secret)
	if err != nil {
		return KeyPair{}, ChainCode{}, err
	}
	defer x.Zeroize()

	// The offset is bound to the public key of the secret, not to whatever
	// kp.Public holds.
	parent := publicKeyFromPoint(s.curve.ScalarBaseMult(x))

	offset, next, t, err := s.softOffset(parent, cc)
	if err != nil {
		return KeyPair{}, ChainCode{}, err
	}
	defer offset.Zeroize()

	childKey := x.Add(offset)
	defer childKey.Zeroize()

	nonce := t.witnessBytes(labelHDKDNonce, 32, kp.Secret[32:], kp.Secret[:])
	defer zeroBytes(nonce)

	child := KeyPair{
		Secret: encodeSecretKey(childKey, nonce),
		Public: publicKeyFromPoint(s.curve.ScalarBaseMult(childKey)),
	}

	s.audit.OnDerivation(NewAuditEventBuilder(AuditEventKeyDerivation, ReasonSoftJunction).
		WithCurve(s.curve.Name()).
		WithPublicKey(child.Public).
		BuildDerivation(parent, cc, false))
	return child, next, nil
}

// DerivePublicSoft computes the public key DeriveSoft would produce, from
// the parent public key only.
func (s *Schnorrkel) DerivePublicSoft(pk PublicKey, cc ChainCode) (PublicKey, ChainCode, error) {
	A, err := s.decodePublicKey(pk)
	if err != nil {
		return PublicKey{}, ChainCode{}, err
	}

	offset, next, _, err := s.softOffset(pk, cc)
	if err != nil {
		return PublicKey{}, ChainCode{}, err
	}

	child := publicKeyFromPoint(A.Add(s.curve.ScalarBaseMult(offset)))

	s.audit.OnDerivation(NewAuditEventBuilder(AuditEventKeyDerivation, ReasonPublicSoftJunction).
		WithCurve(s.curve.Name()).
		WithPublicKey(child).
		BuildDerivation(pk, cc, false))
	return child, next, nil
}

// DerivePath applies each junction in order. Junction chain codes come from
// the path; the chain codes returned by individual steps are not chained.
func (s *Schnorrkel) DerivePath(kp KeyPair, path []Junction) (KeyPair, error) {
	if err := s.checkDerivationPath(path); err != nil {
		return KeyPair{}, err
	}

	var err error
	for _, j := range path {
		if j.Hard {
			kp, _, err = s.DeriveHard(kp, j.ChainCode)
		} else {
			kp, _, err = s.DeriveSoft(kp, j.ChainCode)
		}
		if err != nil {
			return KeyPair{}, err
		}
	}
	return kp, nil
}

// DerivePublicPath applies soft junctions to a public key. A hard junction
// anywhere in path fails with ErrHardDerivationFromPublic.
func (s *Schnorrkel) DerivePublicPath(pk PublicKey, path []Junction) (PublicKey, error) {
	if err := s.checkDerivationPath(path); err != nil {
		return PublicKey{}, err
	}

	for i, j := range path {
		if j.Hard {
			return PublicKey{}, ErrHardDerivationFromPublic.WithContext("junction_index", i)
		}
	}

	var err error
	for _, j := range path {
		pk, _, err = s.DerivePublicSoft(pk, j.ChainCode)
		if err != nil {
			return PublicKey{}, err
		}
	}
	return pk, nil
}

func (s *Schnorrkel) checkDerivationPath(path []Junction) error {
	result := s.validator.ValidateDerivationPath(path)
	if result.Valid {
		return nil
	}

	event := NewAuditEventBuilder(AuditEventValidationFailure, ReasonInvalidInput).
		WithCurve(s.curve.Name()).
		BuildValidationFailure("derivation_path", result.Errors[0], map[string]interface{}{
			"depth": len(path),
		})
	s.audit.OnValidationFailure(event)
	return ErrInvalidJunction.WithDetails("%s", result.Errors[0])
}

// decodePublicKey decompresses pk, mapping failures to ErrInvalidPublicKey.
func (s *Schnorrkel) decodePublicKey(pk PublicKey) (Point, error) {
	A, err := s.curve.PointFromBytes(pk[:])
	if err != nil {
		return nil, ErrInvalidPublicKey.WithCause(err).WithContext("public_key", pk.String())
	}
	return A, nil
}
