package schnorrkel

import (
	"errors"
	"fmt"
)

// Curve defines the group operations the protocol layer consumes.
// Signing, derivation and VRF code never touch a concrete curve type.
type Curve interface {
	// Metadata
	Name() string
	ScalarSize() int
	PointSize() int

	// Scalar operations
	ScalarFromBytes([]byte) (Scalar, error)
	ScalarFromUniformBytes([]byte) (Scalar, error)
	ScalarRandom() (Scalar, error)
	ScalarZero() Scalar

	// Point operations
	PointFromBytes([]byte) (Point, error)
	PointFromUniformBytes([]byte) (Point, error)
	ScalarBaseMult(Scalar) Point
	BasePoint() Point
	PointIdentity() Point

	// Validation
	ValidateScalar([]byte) error
	ValidatePoint([]byte) error
}

// Scalar represents an element of the group's scalar field
type Scalar interface {
	// Serialization
	Bytes() []byte
	String() string

	// Arithmetic operations
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Negate() Scalar

	// Comparison
	Equal(Scalar) bool
	IsZero() bool

	// Security
	Zeroize()
}

// Point represents a group element. Bytes returns the compressed encoding.
type Point interface {
	// Serialization
	Bytes() []byte
	String() string

	// Arithmetic operations
	Add(Point) Point
	Sub(Point) Point
	Mul(Scalar) Point
	Negate() Point

	// Comparison
	Equal(Point) bool
	IsIdentity() bool
}

// CurveType represents supported curve types
type CurveType string

const (
	Ristretto255 CurveType = "ristretto255"
)

// Encoding sizes every engine must report. The byte layouts of keys,
// signatures and VRF proofs are fixed to them.
const (
	engineScalarSize = 32
	enginePointSize  = 32
)

// Common errors
var (
	ErrInvalidScalarLength = errors.New("invalid scalar length")
	ErrInvalidPointLength  = errors.New("invalid point length")
	ErrInvalidScalar       = errors.New("invalid scalar")
	ErrInvalidPoint        = errors.New("invalid point")
	ErrUnsupportedCurve    = errors.New("unsupported curve type")
)

// NewCurve creates a new curve instance. Unknown types fail with
// ErrInvalidCurve wrapping ErrUnsupportedCurve.
func NewCurve(curveType CurveType) (Curve, error) {
	switch curveType {
	case Ristretto255:
		return NewRistretto255Curve(), nil
	default:
		return nil, ErrInvalidCurve.
			WithCause(fmt.Errorf("%w: %s", ErrUnsupportedCurve, curveType)).
			WithContext("curve", string(curveType))
	}
}

// checkEngineSizes rejects engines whose encodings do not match the
// protocol's fixed-length buffers.
func checkEngineSizes(curve Curve) error {
	if curve.ScalarSize() != engineScalarSize {
		return ErrInvalidCurve.WithDetails("curve %s: scalar size %d, want %d", curve.Name(), curve.ScalarSize(), engineScalarSize)
	}
	if curve.PointSize() != enginePointSize {
		return ErrInvalidCurve.WithDetails("curve %s: point size %d, want %d", curve.Name(), curve.PointSize(), enginePointSize)
	}
	return nil
}
