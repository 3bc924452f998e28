package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"gopkg.in/yaml.v3"

	"github.com/canopy-network/canopy/lib/schnorrkel"
)

const (
	keystoreVersion = 1
	keystoreKDF     = "argon2id"
	saltSize        = 16
)

var (
	ErrKeystoreAuth = schnorrkel.NewSchnorrkelError(
		schnorrkel.ErrorCategoryKeystore, schnorrkel.ErrorSeverityHigh, "KEYSTORE_AUTH_FAILED",
		"keystore authentication failed")
	ErrKeystoreInvalid = schnorrkel.NewSchnorrkelError(
		schnorrkel.ErrorCategoryKeystore, schnorrkel.ErrorSeverityHigh, "KEYSTORE_INVALID",
		"keystore file is invalid")
)

// keystoreFile is the on-disk layout. Account names and public keys stay
// readable; they are bound to the ciphertext as associated data.
type keystoreFile struct {
	Version    uint32         `yaml:"version"`
	KDF        string         `yaml:"kdf"`
	KDFParams  KDFParams      `yaml:"kdf_params"`
	Salt       string         `yaml:"salt"`
	Nonce      string         `yaml:"nonce"`
	Accounts   []accountEntry `yaml:"accounts"`
	Ciphertext string         `yaml:"ciphertext"`
}

type accountEntry struct {
	Name      string `yaml:"name"`
	PublicKey string `yaml:"public_key"`
	Address   string `yaml:"address,omitempty"`
}

// secretEntries is the plaintext: name to hex encoded key pair bytes.
type secretEntries map[string]string

func deriveKey(passphrase string, salt []byte, params KDFParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, params.Time, params.MemoryKB, params.Threads, chacha20poly1305.KeySize)
}

func associatedData(accounts []accountEntry) ([]byte, error) {
	return yaml.Marshal(accounts)
}

// sealKeystore encrypts keys under passphrase. addresses maps names to the
// display address stored next to each public key.
func sealKeystore(passphrase string, params KDFParams, keys map[string]schnorrkel.KeyPair, addresses map[string]string) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, schnorrkel.ErrInvalidConfiguration.WithCause(err)
	}

	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)

	accounts := make([]accountEntry, 0, len(names))
	secrets := make(secretEntries, len(names))
	for _, name := range names {
		kp := keys[name]
		accounts = append(accounts, accountEntry{Name: name, PublicKey: kp.Public.String(), Address: addresses[name]})
		secrets[name] = hex.EncodeToString(kp.Bytes())
	}

	plaintext, err := yaml.Marshal(secrets)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(plaintext)

	ad, err := associatedData(accounts)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, schnorrkel.ErrEntropyUnavailable.WithCause(err)
	}
	key := deriveKey(passphrase, salt, params)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, schnorrkel.ErrEntropyUnavailable.WithCause(err)
	}

	file := keystoreFile{
		Version:    keystoreVersion,
		KDF:        keystoreKDF,
		KDFParams:  params,
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		Accounts:   accounts,
		Ciphertext: hex.EncodeToString(aead.Seal(nil, nonce, plaintext, ad)),
	}
	return yaml.Marshal(&file)
}

// openKeystore decrypts data produced by sealKeystore.
func openKeystore(passphrase string, data []byte) (map[string]schnorrkel.KeyPair, error) {
	var file keystoreFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, ErrKeystoreInvalid.WithCause(err)
	}
	if file.Version != keystoreVersion || file.KDF != keystoreKDF {
		return nil, ErrKeystoreInvalid.WithDetails("version %d kdf %q", file.Version, file.KDF)
	}
	if err := file.KDFParams.validate(); err != nil {
		return nil, ErrKeystoreInvalid.WithCause(err)
	}

	salt, errSalt := hex.DecodeString(file.Salt)
	nonce, errNonce := hex.DecodeString(file.Nonce)
	ciphertext, errCipher := hex.DecodeString(file.Ciphertext)
	if errSalt != nil || errNonce != nil || errCipher != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrKeystoreInvalid.WithDetails("malformed envelope")
	}

	ad, err := associatedData(file.Accounts)
	if err != nil {
		return nil, ErrKeystoreInvalid.WithCause(err)
	}

	key := deriveKey(passphrase, salt, file.KDFParams)
	defer zeroBytes(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrKeystoreAuth
	}
	defer zeroBytes(plaintext)

	var secrets secretEntries
	if err := yaml.Unmarshal(plaintext, &secrets); err != nil {
		return nil, ErrKeystoreInvalid.WithCause(err)
	}

	keys := make(map[string]schnorrkel.KeyPair, len(secrets))
	for _, account := range file.Accounts {
		encoded, ok := secrets[account.Name]
		if !ok {
			return nil, ErrKeystoreInvalid.WithDetails("no secret for %q", account.Name)
		}
		raw, err := hex.DecodeString(encoded)
		if err != nil {
			return nil, ErrKeystoreInvalid.WithCause(err)
		}
		kp, err := schnorrkel.KeyPairFromBytes(raw)
		zeroBytes(raw)
		if err != nil {
			return nil, ErrKeystoreInvalid.WithCause(err)
		}
		if kp.Public.String() != account.PublicKey {
			return nil, ErrKeystoreInvalid.WithDetails("public key mismatch for %q", account.Name)
		}
		keys[account.Name] = kp
	}
	return keys, nil
}

// writeFileAtomic replaces path with data through a temporary file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace keystore: %w", err)
	}
	return nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
