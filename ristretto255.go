package schnorrkel

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/gtank/ristretto255"
)

// Ristretto255Curve implements the Curve interface for the ristretto255
// prime-order group.
type Ristretto255Curve struct{}

// NewRistretto255Curve creates a new ristretto255 curve instance
func NewRistretto255Curve() *Ristretto255Curve {
	return &Ristretto255Curve{}
}

func (c *Ristretto255Curve) Name() string { return string(Ristretto255) }
func (c *Ristretto255Curve) ScalarSize() int { return 32 }
func (c *Ristretto255Curve) PointSize() int { return 32 }

func (c *Ristretto255Curve) ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != 32 {
		return nil, ErrInvalidScalarLength
	}

	scalar := ristretto255.NewScalar()
	if err := scalar.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}

	return &Ristretto255Scalar{inner: scalar}, nil
}

// ScalarFromUniformBytes reduces 32 to 64 little-endian bytes modulo the
// group order. Shorter inputs are zero extended.
func (c *Ristretto255Curve) ScalarFromUniformBytes(data []byte) (Scalar, error) {
	if len(data) < 32 || len(data) > 64 {
		return nil, ErrInvalidScalarLength
	}

	wide := make([]byte, 64)
	copy(wide, data)
	defer zeroBytes(wide)

	return &Ristretto255Scalar{inner: ristretto255.NewScalar().FromUniformBytes(wide)}, nil
}

func (c *Ristretto255Curve) ScalarRandom() (Scalar, error) {
	wide := make([]byte, 64)
	if _, err := rand.Read(wide); err != nil {
		return nil, err
	}
	defer zeroBytes(wide)

	return NewRistretto255Scalar(ristretto255.NewScalar().FromUniformBytes(wide)), nil
}

// NewRistretto255Scalar wraps a scalar and registers a finalizer that
// clears it if the caller never calls Zeroize.
func NewRistretto255Scalar(inner *ristretto255.Scalar) *Ristretto255Scalar {
	s := &Ristretto255Scalar{inner: inner}
	runtime.SetFinalizer(s, (*Ristretto255Scalar).finalize)
	return s
}

func (s *Ristretto255Scalar) finalize() {
	if s.inner != nil {
		s.Zeroize()
	}
}

func (c *Ristretto255Curve) ScalarZero() Scalar {
	return &Ristretto255Scalar{inner: ristretto255.NewScalar()}
}

// PointFromBytes decodes a compressed ristretto255 element. Non-canonical
// encodings are rejected.
func (c *Ristretto255Curve) PointFromBytes(data []byte) (Point, error) {
	if len(data) != 32 {
		return nil, ErrInvalidPointLength
	}

	point := ristretto255.NewElement()
	if err := point.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return &Ristretto255Point{inner: point}, nil
}

// PointFromUniformBytes is the one-way map from 64 uniform bytes to a group
// element.
func (c *Ristretto255Curve) PointFromUniformBytes(data []byte) (Point, error) {
	if len(data) != 64 {
		return nil, ErrInvalidPointLength
	}
	return &Ristretto255Point{inner: ristretto255.NewElement().FromUniformBytes(data)}, nil
}

func (c *Ristretto255Curve) ScalarBaseMult(s Scalar) Point {
	result := ristretto255.NewElement()
	result.ScalarBaseMult(s.(*Ristretto255Scalar).inner)
	return &Ristretto255Point{inner: result}
}

func (c *Ristretto255Curve) BasePoint() Point {
	return &Ristretto255Point{inner: ristretto255.NewElement().Base()}
}

func (c *Ristretto255Curve) PointIdentity() Point {
	return &Ristretto255Point{inner: ristretto255.NewElement()}
}

func (c *Ristretto255Curve) ValidateScalar(data []byte) error {
	_, err := c.ScalarFromBytes(data)
	return err
}

func (c *Ristretto255Curve) ValidatePoint(data []byte) error {
	_, err := c.PointFromBytes(data)
	return err
}

// Ristretto255Scalar implements the Scalar interface
type Ristretto255Scalar struct {
	inner *ristretto255.Scalar
}

func (s *Ristretto255Scalar) Bytes() []byte {
	return s.inner.Encode(nil)
}

func (s *Ristretto255Scalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *Ristretto255Scalar) Add(other Scalar) Scalar {
	result := ristretto255.NewScalar()
	result.Add(s.inner, other.(*Ristretto255Scalar).inner)
	return &Ristretto255Scalar{inner: result}
}

func (s *Ristretto255Scalar) Sub(other Scalar) Scalar {
	result := ristretto255.NewScalar()
	result.Subtract(s.inner, other.(*Ristretto255Scalar).inner)
	return &Ristretto255Scalar{inner: result}
}

func (s *Ristretto255Scalar) Mul(other Scalar) Scalar {
	result := ristretto255.NewScalar()
	result.Multiply(s.inner, other.(*Ristretto255Scalar).inner)
	return &Ristretto255Scalar{inner: result}
}

func (s *Ristretto255Scalar) Negate() Scalar {
	result := ristretto255.NewScalar()
	result.Negate(s.inner)
	return &Ristretto255Scalar{inner: result}
}

func (s *Ristretto255Scalar) Equal(other Scalar) bool {
	return s.inner.Equal(other.(*Ristretto255Scalar).inner) == 1
}

func (s *Ristretto255Scalar) IsZero() bool {
	return s.inner.Equal(ristretto255.NewScalar()) == 1
}

// Zeroize clears the scalar in place.
func (s *Ristretto255Scalar) Zeroize() {
	s.inner.Zero()
	runtime.SetFinalizer(s, nil)
}

// Ristretto255Point implements the Point interface
type Ristretto255Point struct {
	inner *ristretto255.Element
}

func (p *Ristretto255Point) Bytes() []byte {
	return p.inner.Encode(nil)
}

func (p *Ristretto255Point) String() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *Ristretto255Point) Add(other Point) Point {
	result := ristretto255.NewElement()
	result.Add(p.inner, other.(*Ristretto255Point).inner)
	return &Ristretto255Point{inner: result}
}

func (p *Ristretto255Point) Sub(other Point) Point {
	result := ristretto255.NewElement()
	result.Subtract(p.inner, other.(*Ristretto255Point).inner)
	return &Ristretto255Point{inner: result}
}

func (p *Ristretto255Point) Mul(scalar Scalar) Point {
	result := ristretto255.NewElement()
	result.ScalarMult(scalar.(*Ristretto255Scalar).inner, p.inner)
	return &Ristretto255Point{inner: result}
}

func (p *Ristretto255Point) Negate() Point {
	result := ristretto255.NewElement()
	result.Negate(p.inner)
	return &Ristretto255Point{inner: result}
}

func (p *Ristretto255Point) Equal(other Point) bool {
	return p.inner.Equal(other.(*Ristretto255Point).inner) == 1
}

func (p *Ristretto255Point) IsIdentity() bool {
	return p.inner.Equal(ristretto255.NewElement()) == 1
}
