package keyring

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/canopy-network/canopy/lib/schnorrkel"
	"github.com/canopy-network/canopy/lib/schnorrkel/adapters"
)

// KDFParams are the argon2id cost parameters for keystore encryption.
type KDFParams struct {
	Time     uint32 `yaml:"time"`
	MemoryKB uint32 `yaml:"memory_kb"`
	Threads  uint8  `yaml:"threads"`
}

// maxKDFMemoryKB caps argon2id memory at 1 GiB.
const maxKDFMemoryKB = 1 << 20

// DefaultKDFParams matches the interactive argon2id recommendation.
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 2, MemoryKB: 64 * 1024, Threads: 1}
}

// validate rejects parameters argon2id panics on or that would exhaust
// memory. Each lane needs at least 8 KiB.
func (p KDFParams) validate() error {
	switch {
	case p.Time < 1:
		return fmt.Errorf("kdf time %d: must be at least 1", p.Time)
	case p.Threads < 1:
		return fmt.Errorf("kdf threads %d: must be at least 1", p.Threads)
	case uint64(p.MemoryKB) < 8*uint64(p.Threads):
		return fmt.Errorf("kdf memory_kb %d: must be at least %d for %d threads", p.MemoryKB, 8*uint64(p.Threads), p.Threads)
	case p.MemoryKB > maxKDFMemoryKB:
		return fmt.Errorf("kdf memory_kb %d: exceeds the %d limit", p.MemoryKB, maxKDFMemoryKB)
	}
	return nil
}

// Config is the YAML configuration shared by the keyring and the CLI.
type Config struct {
	KeystorePath   string    `yaml:"keystore"`
	SS58Prefix     uint16    `yaml:"ss58_prefix"`
	SigningContext string    `yaml:"signing_context"`
	VRFContext     string    `yaml:"vrf_context"`
	VRFBytesLength int       `yaml:"vrf_bytes_length"`
	Expansion      string    `yaml:"expansion"`
	LogLevel       string    `yaml:"log_level"`
	Metrics        bool      `yaml:"metrics"`
	KDF            KDFParams `yaml:"kdf"`
}

// DefaultConfig returns a Substrate development configuration.
func DefaultConfig() Config {
	return Config{
		KeystorePath:   "keystore.yaml",
		SS58Prefix:     adapters.PrefixSubstrate,
		SigningContext: schnorrkel.DefaultSigningContext,
		VRFContext:     schnorrkel.DefaultVRFContext,
		VRFBytesLength: schnorrkel.DefaultVRFBytesLength,
		Expansion:      schnorrkel.ExpansionModeEd25519.String(),
		LogLevel:       logrus.InfoLevel.String(),
		Metrics:        true,
		KDF:            DefaultKDFParams(),
	}
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the
// file keep their default values. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, schnorrkel.ErrInvalidConfiguration.WithCause(err).WithContext("path", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, schnorrkel.ErrInvalidConfiguration.WithCause(err).WithContext("path", path)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// SchnorrkelConfig converts c into a library configuration that reports to
// handler.
func (c Config) SchnorrkelConfig(handler schnorrkel.AuditEventHandler) (schnorrkel.Config, error) {
	if err := c.KDF.validate(); err != nil {
		return schnorrkel.Config{}, schnorrkel.ErrInvalidConfiguration.WithCause(err)
	}
	mode, err := schnorrkel.ParseExpansionMode(c.Expansion)
	if err != nil {
		return schnorrkel.Config{}, err
	}

	cfg := schnorrkel.DefaultConfig()
	cfg.SigningContext = []byte(c.SigningContext)
	cfg.VRFContext = []byte(c.VRFContext)
	cfg.VRFBytesLength = c.VRFBytesLength
	cfg.ExpansionMode = mode
	if handler != nil {
		cfg.AuditHandler = handler
	}
	return cfg, nil
}
