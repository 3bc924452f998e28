package schnorrkel

import (
	"testing"
)

// signDeprecated produces a pre-audit signature so the deprecated verifier
// has something to check.
func signDeprecated(t *testing.T, s *Schnorrkel, tr *Transcript, kp KeyPair) Signature {
	t.Helper()

	x, err := s.secretScalar(kp.Secret)
	if err != nil {
		t.Fatalf("secretScalar: %v", err)
	}

	session := tr.begin(s.curve)
	session.commitBytes(preauditLabelPK, kp.Public[:])

	r, err := session.witnessScalar(labelSigning, kp.Secret[32:])
	if err != nil {
		t.Fatalf("witnessScalar: %v", err)
	}

	R := s.curve.ScalarBaseMult(r)
	session.commitPoint(preauditLabelNonce, R)

	k, err := session.challengeScalar(preauditLabelChallenge)
	if err != nil {
		t.Fatalf("challengeScalar: %v", err)
	}

	var sig Signature
	copy(sig[:32], R.Bytes())
	copy(sig[32:], k.Mul(x).Add(r).Bytes())
	return sig
}

func TestVerifyDeprecated(t *testing.T) {
	s := Default()
	kp := testKeyPair(t, 11)
	msg := []byte("signed before the audit")

	sig := signDeprecated(t, s, s.signingContext.Bytes(msg), kp)

	ok, err := VerifyDeprecated(sig, msg, kp.Public)
	if err != nil || !ok {
		t.Fatalf("deprecated signature rejected: %v, %v", ok, err)
	}

	// The marker bit is ignored on this path.
	marked := sig
	marked[63] |= 0x80
	if ok, _ := VerifyDeprecated(marked, msg, kp.Public); !ok {
		t.Fatal("marker bit should be ignored by the deprecated verifier")
	}

	if ok, _ := VerifyDeprecated(sig, []byte("different"), kp.Public); ok {
		t.Fatal("deprecated verifier accepted a different message")
	}
}

// TestDeprecatedPathIsSeparate checks that neither verifier accepts the
// other's signatures.
func TestDeprecatedPathIsSeparate(t *testing.T) {
	s := Default()
	kp := testKeyPair(t, 12)
	msg := []byte("two conventions")

	current, _ := Sign(msg, kp)
	if ok, _ := VerifyDeprecated(current, msg, kp.Public); ok {
		t.Fatal("deprecated verifier accepted a current signature")
	}

	old := signDeprecated(t, s, s.signingContext.Bytes(msg), kp)
	old[63] |= 0x80
	if ok, _ := Verify(old, msg, kp.Public); ok {
		t.Fatal("current verifier accepted a pre-audit signature")
	}
}

func TestVerifyDeprecatedUndecodableKey(t *testing.T) {
	var bad PublicKey
	bad[0] = 1
	if _, err := VerifyDeprecated(Signature{}, []byte("m"), bad); err == nil {
		t.Fatal("expected an error for an undecodable public key")
	}
}

// TestVerifyDeprecatedKnownSignature checks a pre-audit signature made by
// schnorrkel-js for the all-zero seed, as used by Substrate's compatibility
// tests.
func TestVerifyDeprecatedKnownSignature(t *testing.T) {
	kp, err := KeyPairFromSeed(make([]byte, 32))
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	sig, err := SignatureFromHex("28a854d54903e056f89581c691c1f7d2ff39f8f896c9e9c22475e60902cc2b3547199e0e91fa32902028f2ca2355e8cdd16cfe19ba5e8b658c94aa80f3b81a00")
	if err != nil {
		t.Fatalf("SignatureFromHex: %v", err)
	}

	ok, err := VerifyDeprecated(sig, []byte("SUBSTRATE"), kp.Public)
	if err != nil || !ok {
		t.Fatalf("pre-audit signature rejected: %v, %v", ok, err)
	}
	if ok, _ := Verify(sig, []byte("SUBSTRATE"), kp.Public); ok {
		t.Fatal("current verifier accepted a pre-audit signature")
	}
}
