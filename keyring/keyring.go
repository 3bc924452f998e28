// Package keyring keeps named sr25519 key pairs in memory, signs and
// proves with them by name, and persists them to an encrypted keystore.
package keyring

import (
	"os"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/canopy-network/canopy/lib/schnorrkel"
	"github.com/canopy-network/canopy/lib/schnorrkel/adapters"
)

var (
	ErrKeyNotFound = schnorrkel.NewSchnorrkelError(
		schnorrkel.ErrorCategoryKeystore, schnorrkel.ErrorSeverityMedium, "KEY_NOT_FOUND",
		"no key pair with that name")
	ErrKeyExists = schnorrkel.NewSchnorrkelError(
		schnorrkel.ErrorCategoryKeystore, schnorrkel.ErrorSeverityMedium, "KEY_EXISTS",
		"a key pair with that name already exists")
	ErrInvalidName = schnorrkel.NewSchnorrkelError(
		schnorrkel.ErrorCategoryKeystore, schnorrkel.ErrorSeverityMedium, "INVALID_NAME",
		"key pair names must be non-empty")
)

// Keyring is a concurrency-safe set of named key pairs.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]*schnorrkel.KeyPair

	cfg     Config
	scheme  *schnorrkel.Schnorrkel
	adapter *adapters.SubstrateAdapter
	log     *logrus.Entry
	metrics *Metrics
}

// New builds an empty keyring. logger may be nil. Metrics are registered
// with reg when cfg.Metrics is set; a nil reg means the default registerer.
func New(cfg Config, logger *logrus.Logger, reg prometheus.Registerer) (*Keyring, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var metrics *Metrics
	if cfg.Metrics {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		var err error
		if metrics, err = NewMetrics(reg); err != nil {
			return nil, err
		}
	}

	handler := &auditHandler{LogAuditHandler: NewLogAuditHandler(logger), metrics: metrics}
	schnorrkelCfg, err := cfg.SchnorrkelConfig(handler)
	if err != nil {
		return nil, err
	}
	scheme, err := schnorrkel.New(schnorrkelCfg)
	if err != nil {
		return nil, err
	}
	adapter, err := adapters.NewSubstrateAdapter(scheme, cfg.SS58Prefix)
	if err != nil {
		return nil, schnorrkel.ErrInvalidConfiguration.WithCause(err)
	}

	return &Keyring{
		keys:    make(map[string]*schnorrkel.KeyPair),
		cfg:     cfg,
		scheme:  scheme,
		adapter: adapter,
		log:     logger.WithField("module", logModule),
		metrics: metrics,
	}, nil
}

// Scheme returns the configured schnorrkel instance.
func (k *Keyring) Scheme() *schnorrkel.Schnorrkel { return k.scheme }

func (k *Keyring) insert(name string, kp schnorrkel.KeyPair, overwrite bool) error {
	if name == "" {
		return ErrInvalidName
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	old, ok := k.keys[name]
	if ok && !overwrite {
		return ErrKeyExists.WithContext("name", name)
	}
	if ok {
		old.Zeroize()
	}
	stored := kp
	k.keys[name] = &stored
	k.metrics.setKeys(len(k.keys))
	return nil
}

func (k *Keyring) get(name string) (schnorrkel.KeyPair, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	kp, ok := k.keys[name]
	if !ok {
		return schnorrkel.KeyPair{}, ErrKeyNotFound.WithContext("name", name)
	}
	return *kp, nil
}

// AddURI resolves a secret URI and stores the result under name.
func (k *Keyring) AddURI(name, uri string) (schnorrkel.PublicKey, error) {
	kp, err := k.scheme.KeyPairFromURI(uri)
	if err == nil {
		err = k.insert(name, kp, false)
	}
	k.metrics.observe("add_uri", err)
	if err != nil {
		return schnorrkel.PublicKey{}, err
	}
	k.log.WithFields(logrus.Fields{"name": name, "public_key": kp.Public}).Info("added key pair from secret uri")
	return kp.Public, nil
}

// AddSeed expands a 32-byte seed and stores the result under name.
func (k *Keyring) AddSeed(name string, seed []byte) (schnorrkel.PublicKey, error) {
	kp, err := k.scheme.KeyPairFromSeed(seed)
	if err == nil {
		err = k.insert(name, kp, false)
	}
	k.metrics.observe("add_seed", err)
	if err != nil {
		return schnorrkel.PublicKey{}, err
	}
	k.log.WithFields(logrus.Fields{"name": name, "public_key": kp.Public}).Info("added key pair from seed")
	return kp.Public, nil
}

// Generate creates a key pair from a fresh mnemonic of the given entropy
// size and returns the phrase. The phrase is not stored.
func (k *Keyring) Generate(name string, bits int) (string, schnorrkel.PublicKey, error) {
	phrase, err := schnorrkel.NewMnemonic(bits)
	var kp schnorrkel.KeyPair
	if err == nil {
		kp, err = k.scheme.KeyPairFromMnemonic(phrase, "")
	}
	if err == nil {
		err = k.insert(name, kp, false)
	}
	k.metrics.observe("generate", err)
	if err != nil {
		return "", schnorrkel.PublicKey{}, err
	}
	k.log.WithFields(logrus.Fields{"name": name, "public_key": kp.Public, "bits": bits}).Info("generated key pair")
	return phrase, kp.Public, nil
}

// Derive applies a derivation path such as "//polkadot/0" to the key pair
// called parent and stores the child as child.
func (k *Keyring) Derive(parent, child, path string) (schnorrkel.PublicKey, error) {
	kp, err := k.derive(parent, child, path)
	k.metrics.observe("derive", err)
	if err != nil {
		return schnorrkel.PublicKey{}, err
	}
	k.log.WithFields(logrus.Fields{"parent": parent, "name": child, "path": path}).Info("derived key pair")
	return kp.Public, nil
}

func (k *Keyring) derive(parent, child, path string) (schnorrkel.KeyPair, error) {
	junctions, err := schnorrkel.ParseDerivationPath(path)
	if err != nil {
		return schnorrkel.KeyPair{}, err
	}
	root, err := k.get(parent)
	if err != nil {
		return schnorrkel.KeyPair{}, err
	}
	kp, err := k.scheme.DerivePath(root, junctions)
	if err != nil {
		return schnorrkel.KeyPair{}, err
	}
	return kp, k.insert(child, kp, false)
}

// Remove deletes name and wipes the keyring's copy of its secret. Key pairs
// already returned to callers are theirs to zeroize.
func (k *Keyring) Remove(name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	kp, ok := k.keys[name]
	if !ok {
		return ErrKeyNotFound.WithContext("name", name)
	}
	kp.Zeroize()
	delete(k.keys, name)
	k.metrics.setKeys(len(k.keys))
	return nil
}

// Names lists the stored key pairs in sorted order.
func (k *Keyring) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, len(k.keys))
	for name := range k.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PublicKey returns the public key stored under name.
func (k *Keyring) PublicKey(name string) (schnorrkel.PublicKey, error) {
	kp, err := k.get(name)
	if err != nil {
		return schnorrkel.PublicKey{}, err
	}
	return kp.Public, nil
}

// Address returns the SS58 address of name on the configured network.
func (k *Keyring) Address(name string) (string, error) {
	pk, err := k.PublicKey(name)
	if err != nil {
		return "", err
	}
	return k.adapter.Address(pk)
}

// Sign signs message with the key pair called name.
func (k *Keyring) Sign(name string, message []byte) (schnorrkel.Signature, error) {
	kp, err := k.get(name)
	var sig schnorrkel.Signature
	if err == nil {
		sig, err = k.adapter.SignMessage(message, kp)
	}
	k.metrics.observe("sign", err)
	return sig, err
}

// Verify checks sig against an explicit public key.
func (k *Keyring) Verify(sig schnorrkel.Signature, message []byte, pk schnorrkel.PublicKey) (bool, error) {
	ok, err := k.scheme.Verify(sig, message, pk)
	k.metrics.observe("verify", err)
	return ok, err
}

// VerifyAddress checks sig against an SS58 address of the configured
// network.
func (k *Keyring) VerifyAddress(sig schnorrkel.Signature, message []byte, address string) (bool, error) {
	ok, err := k.adapter.VerifySignature(sig, message, address)
	k.metrics.observe("verify", err)
	return ok, err
}

// VrfSign evaluates the VRF of name on t.
func (k *Keyring) VrfSign(name string, t *schnorrkel.Transcript) (schnorrkel.VrfOutputAndProof, error) {
	kp, err := k.get(name)
	var result schnorrkel.VrfOutputAndProof
	if err == nil {
		result, err = k.scheme.VrfSign(kp.Secret, t)
	}
	k.metrics.observe("vrf_sign", err)
	return result, err
}

// VrfVerify checks a VRF proof and, when it holds, returns the configured
// number of output bytes.
func (k *Keyring) VrfVerify(pk schnorrkel.PublicKey, t *schnorrkel.Transcript, out schnorrkel.VrfOutput, proof schnorrkel.VrfProof) ([]byte, bool, error) {
	ok, err := k.scheme.VrfVerify(pk, t, out, proof)
	var randomness []byte
	if err == nil && ok {
		randomness, err = k.scheme.MakeBytes(pk, t, out)
	}
	k.metrics.observe("vrf_verify", err)
	return randomness, ok && err == nil, err
}

// Save encrypts every key pair to the configured keystore path.
func (k *Keyring) Save(passphrase string) error {
	err := k.save(passphrase)
	k.metrics.observe("save", err)
	if err != nil {
		return err
	}
	k.log.WithFields(logrus.Fields{"path": k.cfg.KeystorePath, "keys": len(k.Names())}).Info("keystore saved")
	return nil
}

func (k *Keyring) save(passphrase string) error {
	k.mu.RLock()
	keys := make(map[string]schnorrkel.KeyPair, len(k.keys))
	addresses := make(map[string]string, len(k.keys))
	for name, kp := range k.keys {
		keys[name] = *kp
		if addr, err := k.adapter.Address(kp.Public); err == nil {
			addresses[name] = addr
		}
	}
	k.mu.RUnlock()

	data, err := sealKeystore(passphrase, k.cfg.KDF, keys, addresses)
	if err != nil {
		return err
	}
	return writeFileAtomic(k.cfg.KeystorePath, data)
}

// Load decrypts the configured keystore and adds its key pairs, replacing
// any held under the same names. A missing file loads nothing.
func (k *Keyring) Load(passphrase string) error {
	n, err := k.load(passphrase)
	k.metrics.observe("load", err)
	if err != nil {
		k.log.WithFields(logrus.Fields{"path": k.cfg.KeystorePath, "err": err}).Error("failed to load keystore")
		return err
	}
	k.log.WithFields(logrus.Fields{"path": k.cfg.KeystorePath, "keys": n}).Info("keystore loaded")
	return nil
}

func (k *Keyring) load(passphrase string) (int, error) {
	data, err := os.ReadFile(k.cfg.KeystorePath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, ErrKeystoreInvalid.WithCause(err)
	}

	keys, err := openKeystore(passphrase, data)
	if err != nil {
		return 0, err
	}
	for name, kp := range keys {
		if err := k.insert(name, kp, true); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
