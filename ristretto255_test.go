package schnorrkel

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// TestRistrettoGeneratorMultiples checks the encodings of small multiples of
// the generator against the published test vectors.
func TestRistrettoGeneratorMultiples(t *testing.T) {
	curve := NewRistretto255Curve()

	vectors := []string{
		"0000000000000000000000000000000000000000000000000000000000000000",
		"e2f2ae0a6abc4e71a884a961c500515f58e30b6aa582dd8db6a65945e08d2d76",
		"6a493210f7499cd17fecb510ae0cea23a110e8d5b901f8acadd3095c73a3b919",
		"94741f5d5d52755ece4f23f044ee27d5d1ea1e2bd196b462166b16152a9d0259",
		"da80862773358b466ffadfe0b3293ab3d9fd53c5ea6c955358f568322daf6a57",
	}

	acc := curve.PointIdentity()
	for i, want := range vectors {
		if got := hex.EncodeToString(acc.Bytes()); got != want {
			t.Fatalf("%d·B: got %s, want %s", i, got, want)
		}

		decoded, err := curve.PointFromBytes(mustHex(t, want))
		if err != nil {
			t.Fatalf("%d·B: decode failed: %v", i, err)
		}
		if !decoded.Equal(acc) {
			t.Fatalf("%d·B: decoded point not equal to accumulator", i)
		}
		if !bytes.Equal(decoded.Bytes(), mustHex(t, want)) {
			t.Fatalf("%d·B: re-encoding differs", i)
		}

		acc = acc.Add(curve.BasePoint())
	}
}

func TestRistrettoRejectsBadEncodings(t *testing.T) {
	curve := NewRistretto255Curve()

	bad := map[string]string{
		"negative":      "0100000000000000000000000000000000000000000000000000000000000000",
		"field modulus": "edffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff7f",
		"non-canonical": "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff7f",
		"high bit set":  "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	}
	for name, enc := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := curve.PointFromBytes(mustHex(t, enc))
			if !errors.Is(err, ErrInvalidPoint) {
				t.Fatalf("expected ErrInvalidPoint, got %v", err)
			}
		})
	}

	if _, err := curve.PointFromBytes(make([]byte, 31)); !errors.Is(err, ErrInvalidPointLength) {
		t.Fatalf("expected ErrInvalidPointLength, got %v", err)
	}
}

// TestRistrettoHashToGroupVectors checks the one-way map against the
// published hash-to-group vectors.
func TestRistrettoHashToGroupVectors(t *testing.T) {
	curve := NewRistretto255Curve()

	vectors := []struct {
		input string
		want  string
	}{
		{"Ristretto is traditionally a short shot of espresso coffee", "3066f82a1a747d45120d1740f14358531a8f04bbffe6a819f86dfe50f44a0a46"},
		{"made with the normal amount of ground coffee but extracted with", "f26e5b6f7d362d2d2a94c5d0e7602cb4773c95a2e5c31a64f133189fa76ed61b"},
		{"about half the amount of water in the same amount of time", "006ccd2a9e6867e6a2c5cea83d3302cc9de128dd2a9a57dd8ee7b9d7ffe02826"},
		{"by using a finer grind.", "f8f0c87cf237953c5890aec3998169005dae3eca1fbb04548c635953c817f92a"},
	}
	for _, v := range vectors {
		h := sha512.Sum512([]byte(v.input))
		p, err := curve.PointFromUniformBytes(h[:])
		if err != nil {
			t.Fatalf("PointFromUniformBytes(%q): %v", v.input, err)
		}
		if got := hex.EncodeToString(p.Bytes()); got != v.want {
			t.Fatalf("hash of %q: got %s, want %s", v.input, got, v.want)
		}
	}
}

// TestRistrettoEqualityIgnoresPath checks that elements reached through
// different operations compare and encode alike.
func TestRistrettoEqualityIgnoresPath(t *testing.T) {
	curve := NewRistretto255Curve()

	h := sha512.Sum512([]byte("equality"))
	P, _ := curve.PointFromUniformBytes(h[:])
	B := curve.BasePoint()

	roundabout := P.Add(B).Add(B.Negate().Negate()).Sub(B).Sub(B)
	if !roundabout.Equal(P) {
		t.Fatal("P + 2B - 2B should equal P")
	}
	if !bytes.Equal(roundabout.Bytes(), P.Bytes()) {
		t.Fatal("P + 2B - 2B should encode like P")
	}
	if P.Equal(B) {
		t.Fatal("distinct elements compared equal")
	}
}

func TestRistrettoFromUniformBytes(t *testing.T) {
	curve := NewRistretto255Curve()

	h := sha512.Sum512([]byte("ristretto255 hash to group"))
	p1, err := curve.PointFromUniformBytes(h[:])
	if err != nil {
		t.Fatalf("PointFromUniformBytes: %v", err)
	}
	p2, err := curve.PointFromUniformBytes(h[:])
	if err != nil {
		t.Fatalf("PointFromUniformBytes: %v", err)
	}
	if !p1.Equal(p2) {
		t.Fatal("hash to group is not deterministic")
	}

	decoded, err := curve.PointFromBytes(p1.Bytes())
	if err != nil {
		t.Fatalf("mapped point does not round-trip: %v", err)
	}
	if !decoded.Equal(p1) {
		t.Fatal("decoded mapped point differs")
	}

	h[0] ^= 1
	p3, _ := curve.PointFromUniformBytes(h[:])
	if p3.Equal(p1) {
		t.Fatal("different inputs mapped to the same point")
	}

	if _, err := curve.PointFromUniformBytes(h[:32]); !errors.Is(err, ErrInvalidPointLength) {
		t.Fatalf("expected ErrInvalidPointLength, got %v", err)
	}
}

func TestRistrettoScalarArithmetic(t *testing.T) {
	curve := NewRistretto255Curve()

	a, err := curve.ScalarRandom()
	if err != nil {
		t.Fatalf("ScalarRandom: %v", err)
	}
	defer a.Zeroize()
	b, err := curve.ScalarRandom()
	if err != nil {
		t.Fatalf("ScalarRandom: %v", err)
	}
	defer b.Zeroize()

	// (a+b)·G == a·G + b·G
	lhs := curve.ScalarBaseMult(a.Add(b))
	rhs := curve.ScalarBaseMult(a).Add(curve.ScalarBaseMult(b))
	if !lhs.Equal(rhs) {
		t.Fatal("scalar multiplication is not linear")
	}

	if !a.Sub(a).IsZero() {
		t.Fatal("a - a != 0")
	}
	if !a.Add(a.Negate()).IsZero() {
		t.Fatal("a + (-a) != 0")
	}
	if !curve.ScalarBaseMult(a).Sub(curve.ScalarBaseMult(a)).IsIdentity() {
		t.Fatal("aG - aG is not the identity")
	}

	// The group order does not decode canonically.
	order := mustHex(t, "edd3f55c1a631258d69cf7a2def9de1400000000000000000000000000000010")
	if err := curve.ValidateScalar(order); !errors.Is(err, ErrInvalidScalar) {
		t.Fatalf("expected ErrInvalidScalar for l, got %v", err)
	}
}

func TestNewCurve(t *testing.T) {
	curve, err := NewCurve(Ristretto255)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	if curve.Name() != "ristretto255" {
		t.Fatalf("unexpected curve name %s", curve.Name())
	}
	if err := checkEngineSizes(curve); err != nil {
		t.Fatalf("checkEngineSizes: %v", err)
	}

	_, err = NewCurve("secp256k1")
	if !errors.Is(err, ErrInvalidCurve) || !errors.Is(err, ErrUnsupportedCurve) {
		t.Fatalf("expected ErrInvalidCurve wrapping ErrUnsupportedCurve, got %v", err)
	}
	if !IsErrorCategory(err, ErrorCategoryConfiguration) {
		t.Fatalf("unsupported curve should be a configuration error, got %v", err)
	}

	if err := checkEngineSizes(wideCurve{curve}); !errors.Is(err, ErrInvalidCurve) {
		t.Fatalf("expected ErrInvalidCurve for a 64-byte scalar engine, got %v", err)
	}
}

func TestRistrettoScalarZeroize(t *testing.T) {
	curve := NewRistretto255Curve()
	s, err := curve.ScalarRandom()
	if err != nil {
		t.Fatalf("ScalarRandom: %v", err)
	}
	if s.IsZero() {
		t.Fatal("random scalar is zero")
	}
	s.Zeroize()
	if !s.IsZero() || !bytes.Equal(s.Bytes(), make([]byte, 32)) {
		t.Fatal("Zeroize left key material behind")
	}
}

// wideCurve reports a scalar size the fixed encodings cannot hold.
type wideCurve struct{ Curve }

func (wideCurve) ScalarSize() int { return 64 }
