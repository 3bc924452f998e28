package schnorrkel

import (
	"encoding/binary"
	"math/big"

	"github.com/gtank/merlin"
)

// Protocol labels shared by signing, derivation and the VRF.
var (
	labelProtoName = []byte("proto-name")
	labelSignBytes = []byte("sign-bytes")
)

// Transcript is an append-only, domain-separated list of labeled messages.
// Signing, derivation and VRF operations replay it into a Merlin transcript
// to derive their challenges. They work on a private copy, so a Transcript
// handed to Sign can be handed unchanged to Verify.
//
// A Transcript is not safe for concurrent appends.
type Transcript struct {
	domain   []byte
	labels   [][]byte
	messages [][]byte
}

// NewTranscript starts a transcript under the given domain-separation label.
func NewTranscript(domain []byte) *Transcript {
	return &Transcript{domain: append([]byte(nil), domain...)}
}

// Append adds a labeled message. Order is significant.
func (t *Transcript) Append(label, message []byte) *Transcript {
	t.labels = append(t.labels, append([]byte(nil), label...))
	t.messages = append(t.messages, append([]byte(nil), message...))
	return t
}

// AppendString appends a label and message given as strings.
func (t *Transcript) AppendString(label, message string) *Transcript {
	return t.Append([]byte(label), []byte(message))
}

// AppendU64 appends v as 8 little-endian bytes.
func (t *Transcript) AppendU64(label []byte, v uint64) *Transcript {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return t.Append(label, buf[:])
}

// AppendBigU64 appends the low-order 8 bytes of v's two's complement
// representation, little-endian. Wider values are truncated, not rejected.
// A nil v is appended as zero.
func (t *Transcript) AppendBigU64(label []byte, v *big.Int) *Transcript {
	if v == nil {
		return t.AppendU64(label, 0)
	}
	low := new(big.Int).Mod(v, new(big.Int).Lsh(big.NewInt(1), 64))
	return t.AppendU64(label, low.Uint64())
}

// Clone returns an independent copy.
func (t *Transcript) Clone() *Transcript {
	c := &Transcript{
		domain:   append([]byte(nil), t.domain...),
		labels:   make([][]byte, len(t.labels)),
		messages: make([][]byte, len(t.messages)),
	}
	copy(c.labels, t.labels)
	copy(c.messages, t.messages)
	return c
}

// Domain returns the domain-separation label.
func (t *Transcript) Domain() []byte { return append([]byte(nil), t.domain...) }

// Len returns the number of appended messages.
func (t *Transcript) Len() int { return len(t.labels) }

func (t *Transcript) merlin() *merlin.Transcript {
	m := merlin.NewTranscript(string(t.domain))
	for i := range t.labels {
		m.AppendMessage(t.labels[i], t.messages[i])
	}
	return m
}

// begin starts a protocol run over a private copy of t.
func (t *Transcript) begin(curve Curve) *transcriptSession {
	state := t.Clone()
	return &transcriptSession{
		curve: curve,
		state: state,
		live:  state.merlin(),
	}
}

// transcriptSession keeps a live Merlin transcript in step with the list of
// messages fed to it, so witnesses can fork from the same message history.
type transcriptSession struct {
	curve Curve
	state *Transcript
	live  *merlin.Transcript
}

func (s *transcriptSession) appendMessage(label, message []byte) {
	s.state.Append(label, message)
	s.live.AppendMessage(label, message)
}

func (s *transcriptSession) protoName(name string) {
	s.appendMessage(labelProtoName, []byte(name))
}

func (s *transcriptSession) commitPoint(label string, p Point) {
	s.appendMessage([]byte(label), p.Bytes())
}

func (s *transcriptSession) commitBytes(label string, b []byte) {
	s.appendMessage([]byte(label), b)
}

func (s *transcriptSession) challengeBytes(label string, n int) []byte {
	return s.live.ExtractBytes([]byte(label), n)
}

// challengeScalar is hash_to_scalar over 64 challenge bytes.
func (s *transcriptSession) challengeScalar(label string) (Scalar, error) {
	return s.curve.ScalarFromUniformBytes(s.challengeBytes(label, 64))
}

func (s *transcriptSession) challengePoint(label string) (Point, error) {
	return s.curve.PointFromUniformBytes(s.challengeBytes(label, 64))
}

// witnessBytes forks the message history, binds the secret seeds under
// label and extracts n bytes. The live transcript is not touched and no
// randomness is used.
func (s *transcriptSession) witnessBytes(label string, n int, seeds ...[]byte) []byte {
	fork := s.state.Clone().merlin()
	for _, seed := range seeds {
		fork.AppendMessage([]byte(label), seed)
	}
	return fork.ExtractBytes([]byte(label), n)
}

func (s *transcriptSession) witnessScalar(label string, seeds ...[]byte) (Scalar, error) {
	wide := s.witnessBytes(label, 64, seeds...)
	defer zeroBytes(wide)
	return s.curve.ScalarFromUniformBytes(wide)
}

// SigningContext seeds transcripts for simple message signing.
type SigningContext struct {
	base *Transcript
}

// NewSigningContext builds the "SigningContext" transcript for ctx.
func NewSigningContext(ctx []byte) *SigningContext {
	t := NewTranscript([]byte("SigningContext"))
	t.Append([]byte{}, ctx)
	return &SigningContext{base: t}
}

// Bytes returns a transcript binding message under this context.
func (c *SigningContext) Bytes(message []byte) *Transcript {
	t := c.base.Clone()
	return t.Append(labelSignBytes, message)
}
