package schnorrkel

import (
	"crypto/sha512"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

// DevPhrase is the well-known development mnemonic. A secret URI without a
// phrase resolves against it.
const DevPhrase = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"

const mnemonicPBKDF2Rounds = 2048

// NewMnemonic returns a fresh English BIP-39 phrase. bits must be a
// multiple of 32 between 128 and 256 (12 to 24 words).
func NewMnemonic(bits int) (string, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		if bits%32 != 0 || bits < 128 || bits > 256 {
			return "", ErrInvalidMnemonic.WithCause(err).WithContext("bits", bits)
		}
		return "", ErrEntropyUnavailable.WithCause(err)
	}
	defer zeroBytes(entropy)

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", ErrInvalidMnemonic.WithCause(err)
	}
	return phrase, nil
}

// MiniSecretFromMnemonic derives a seed the way Substrate does: the
// phrase's entropy, not the BIP-39 seed, is stretched with
// PBKDF2-HMAC-SHA512 salted by "mnemonic"+password, and the first 32 bytes
// are kept.
func MiniSecretFromMnemonic(phrase, password string) (MiniSecretKey, error) {
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return MiniSecretKey{}, ErrInvalidMnemonic.WithCause(err)
	}
	defer zeroBytes(entropy)

	if len(entropy) < 16 || len(entropy) > 32 || len(entropy)%4 != 0 {
		return MiniSecretKey{}, ErrInvalidMnemonic.WithDetails("entropy length %d", len(entropy))
	}

	seed := pbkdf2.Key(entropy, []byte("mnemonic"+password), mnemonicPBKDF2Rounds, 64, sha512.New)
	defer zeroBytes(seed)

	var mini MiniSecretKey
	copy(mini[:], seed[:MiniSecretKeyLength])
	return mini, nil
}

// KeyPairFromMnemonic expands the seed of phrase with the configured mode.
func (s *Schnorrkel) KeyPairFromMnemonic(phrase, password string) (KeyPair, error) {
	mini, err := MiniSecretFromMnemonic(phrase, password)
	if err != nil {
		return KeyPair{}, err
	}
	defer mini.Zeroize()
	return s.KeyPairFromMiniSecret(mini)
}
