package schnorrkel

import (
	"encoding/binary"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Junction is one step of a derivation path: a chain code and whether the
// step is hard.
type Junction struct {
	Hard      bool
	ChainCode ChainCode
}

// String renders the junction's chain code with its path prefix.
func (j Junction) String() string {
	if j.Hard {
		return "//0x" + j.ChainCode.String()
	}
	return "/0x" + j.ChainCode.String()
}

// NewJunction encodes a path segment. Decimal segments, optionally led by a
// single '+', become an unsigned 64-bit little-endian integer; anything else
// is SCALE-encoded as a string.
// Encodings longer than 32 bytes are hashed with BLAKE2b-256, shorter ones
// are zero padded.
func NewJunction(segment string, hard bool) Junction {
	var encoded []byte
	if n, err := strconv.ParseUint(strings.TrimPrefix(segment, "+"), 10, 64); err == nil {
		encoded = make([]byte, 8)
		binary.LittleEndian.PutUint64(encoded, n)
	} else {
		encoded = append(scaleCompactLength(len(segment)), segment...)
	}
	return JunctionFromBytes(encoded, hard)
}

// JunctionFromBytes builds a junction from raw chain code material.
func JunctionFromBytes(data []byte, hard bool) Junction {
	j := Junction{Hard: hard}
	if len(data) > ChainCodeLength {
		j.ChainCode = blake2b.Sum256(data)
	} else {
		copy(j.ChainCode[:], data)
	}
	return j
}

// scaleCompactLength is the SCALE compact encoding of n.
func scaleCompactLength(n int) []byte {
	v := uint64(n)
	switch {
	case v < 1<<6:
		return []byte{byte(v << 2)}
	case v < 1<<14:
		out := make([]byte, 2)
		binary.LittleEndian.PutUint16(out, uint16(v<<2|0b01))
		return out
	case v < 1<<30:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, uint32(v<<2|0b10))
		return out
	default:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v)
		size := 8
		for size > 4 && buf[size-1] == 0 {
			size--
		}
		return append([]byte{byte((size-4)<<2 | 0b11)}, buf[:size]...)
	}
}

// ParseDerivationPath parses "//hard/soft//42" style paths. An empty string
// is an empty path.
func ParseDerivationPath(path string) ([]Junction, error) {
	var junctions []Junction
	rest := path
	for rest != "" {
		if rest[0] != '/' {
			return nil, ErrInvalidJunction.WithDetails("path %q: expected '/'", path)
		}
		hard := strings.HasPrefix(rest, "//")
		if hard {
			rest = rest[2:]
		} else {
			rest = rest[1:]
		}

		end := strings.IndexByte(rest, '/')
		if end < 0 {
			end = len(rest)
		}
		segment := rest[:end]
		if segment == "" {
			return nil, ErrInvalidJunction.WithDetails("path %q: empty junction", path)
		}
		junctions = append(junctions, NewJunction(segment, hard))
		rest = rest[end:]
	}
	return junctions, nil
}

// SecretURI is a parsed "phrase//hard/soft///password" string. Phrase is
// either a BIP-39 mnemonic or a 0x-prefixed 32-byte hex seed; an empty
// phrase stands for DevPhrase.
type SecretURI struct {
	Phrase   string
	Path     []Junction
	Password string
}

// ParseSecretURI splits uri into phrase, junctions and password.
func ParseSecretURI(uri string) (*SecretURI, error) {
	parsed := &SecretURI{}

	body := uri
	if idx := strings.Index(uri, "///"); idx >= 0 {
		body = uri[:idx]
		parsed.Password = uri[idx+3:]
	}

	pathStart := strings.IndexByte(body, '/')
	if pathStart < 0 {
		pathStart = len(body)
	}
	parsed.Phrase = strings.TrimSpace(body[:pathStart])

	path, err := ParseDerivationPath(body[pathStart:])
	if err != nil {
		return nil, ErrInvalidSecretURI.WithCause(err)
	}
	parsed.Path = path

	if parsed.Phrase == "" {
		parsed.Phrase = DevPhrase
	}
	return parsed, nil
}

// IsHexSeed reports whether the phrase is a raw seed rather than a mnemonic.
func (u *SecretURI) IsHexSeed() bool {
	return strings.HasPrefix(u.Phrase, "0x") || strings.HasPrefix(u.Phrase, "0X")
}

// MiniSecret resolves the phrase to a seed. The password only applies to
// mnemonics.
func (u *SecretURI) MiniSecret() (MiniSecretKey, error) {
	if u.IsHexSeed() {
		return MiniSecretKeyFromHex(u.Phrase)
	}
	return MiniSecretFromMnemonic(u.Phrase, u.Password)
}

// KeyPairFromURI resolves a secret URI: the phrase is expanded with the
// configured mode and the path applied on top.
func (s *Schnorrkel) KeyPairFromURI(uri string) (KeyPair, error) {
	parsed, err := ParseSecretURI(uri)
	if err != nil {
		s.audit.OnValidationFailure(NewAuditEventBuilder(AuditEventValidationFailure, ReasonInvalidInput).
			WithCurve(s.curve.Name()).
			BuildValidationFailure("secret_uri", err.Error(), nil))
		return KeyPair{}, err
	}

	mini, err := parsed.MiniSecret()
	if err != nil {
		return KeyPair{}, err
	}
	defer mini.Zeroize()

	root, err := s.KeyPairFromMiniSecret(mini)
	if err != nil {
		return KeyPair{}, err
	}

	kp, err := s.DerivePath(root, parsed.Path)
	if err != nil {
		return KeyPair{}, err
	}

	s.audit.OnKeyGeneration(NewAuditEventBuilder(AuditEventKeyGeneration, ReasonSecretURI).
		WithCurve(s.curve.Name()).
		WithPublicKey(kp.Public).
		WithMetadata("junctions", len(parsed.Path)).
		Build())
	return kp, nil
}
