package keyring

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/canopy-network/canopy/lib/schnorrkel"
)

const (
	alicePublic  = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bobPublic    = "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
)

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.KeystorePath = filepath.Join(t.TempDir(), "keystore.yaml")
	cfg.KDF = KDFParams{Time: 1, MemoryKB: 64, Threads: 1}
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestKeyring(t *testing.T, cfg Config) (*Keyring, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	kr, err := New(cfg, quietLogger(), reg)
	require.NoError(t, err)
	return kr, reg
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestAddURIAndAddress(t *testing.T) {
	kr, _ := newTestKeyring(t, testConfig(t))

	pk, err := kr.AddURI("alice", "//Alice")
	require.NoError(t, err)
	require.Equal(t, alicePublic, pk.String())

	addr, err := kr.Address("alice")
	require.NoError(t, err)
	require.Equal(t, aliceAddress, addr)

	_, err = kr.AddURI("alice", "//Bob")
	require.True(t, errors.Is(err, ErrKeyExists))

	_, err = kr.AddURI("", "//Bob")
	require.True(t, errors.Is(err, ErrInvalidName))

	_, err = kr.Address("carol")
	require.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestDerive(t *testing.T) {
	kr, _ := newTestKeyring(t, testConfig(t))

	_, err := kr.AddURI("dev", "")
	require.NoError(t, err)

	pk, err := kr.Derive("dev", "bob", "//Bob")
	require.NoError(t, err)
	require.Equal(t, bobPublic, pk.String())

	_, err = kr.Derive("missing", "x", "//Bob")
	require.True(t, errors.Is(err, ErrKeyNotFound))

	_, err = kr.Derive("dev", "bad", "Bob")
	require.Error(t, err)

	require.Equal(t, []string{"bob", "dev"}, kr.Names())
}

func TestSignVerifyByName(t *testing.T) {
	kr, reg := newTestKeyring(t, testConfig(t))

	_, err := kr.AddURI("alice", "//Alice")
	require.NoError(t, err)

	msg := []byte("transfer 10")
	sig, err := kr.Sign("alice", msg)
	require.NoError(t, err)

	ok, err := kr.VerifyAddress(sig, msg, aliceAddress)
	require.NoError(t, err)
	require.True(t, ok)

	pk, err := kr.PublicKey("alice")
	require.NoError(t, err)
	ok, err = kr.Verify(sig, []byte("transfer 11"), pk)
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, 1.0, counterValue(t, reg, "schnorrkel_keyring_operations_total", map[string]string{"operation": "sign", "result": "ok"}))
	require.Equal(t, 1.0, counterValue(t, reg, "schnorrkel_keyring_verification_failures_total", map[string]string{"scheme": "sr25519"}))

	_, err = kr.Sign("nobody", msg)
	require.Error(t, err)
	require.Equal(t, 1.0, counterValue(t, reg, "schnorrkel_keyring_operations_total", map[string]string{"operation": "sign", "result": "error"}))
}

func TestVRFByName(t *testing.T) {
	kr, _ := newTestKeyring(t, testConfig(t))

	_, err := kr.AddURI("alice", "//Alice")
	require.NoError(t, err)
	pk, err := kr.PublicKey("alice")
	require.NoError(t, err)

	transcript := func() *schnorrkel.Transcript {
		return schnorrkel.NewTranscript([]byte("BABE")).AppendU64([]byte("slot"), 42)
	}

	result, err := kr.VrfSign("alice", transcript())
	require.NoError(t, err)

	randomness, ok, err := kr.VrfVerify(pk, transcript(), result.Output, result.Proof)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, randomness, schnorrkel.DefaultVRFBytesLength)

	other := schnorrkel.NewTranscript([]byte("BABE")).AppendU64([]byte("slot"), 43)
	randomness, ok, err = kr.VrfVerify(pk, other, result.Output, result.Proof)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, randomness)
}

func TestGenerate(t *testing.T) {
	kr, _ := newTestKeyring(t, testConfig(t))

	phrase, pk, err := kr.Generate("fresh", 128)
	require.NoError(t, err)
	require.Len(t, strings.Fields(phrase), 12)

	restored, err := kr.Scheme().KeyPairFromMnemonic(phrase, "")
	require.NoError(t, err)
	require.Equal(t, pk, restored.Public)

	_, _, err = kr.Generate("odd", 100)
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	kr, _ := newTestKeyring(t, testConfig(t))

	_, err := kr.AddSeed("seeded", bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	held := kr.keys["seeded"]
	require.NotEqual(t, schnorrkel.SecretKey{}, held.Secret)

	require.NoError(t, kr.Remove("seeded"))
	require.Equal(t, schnorrkel.SecretKey{}, held.Secret, "removed secret was not wiped")
	require.Empty(t, kr.Names())
	require.True(t, errors.Is(kr.Remove("seeded"), ErrKeyNotFound))
}

func TestSaveLoad(t *testing.T) {
	cfg := testConfig(t)
	kr, _ := newTestKeyring(t, cfg)

	_, err := kr.AddURI("alice", "//Alice")
	require.NoError(t, err)
	_, err = kr.AddURI("bob", "//Bob")
	require.NoError(t, err)
	require.NoError(t, kr.Save("correct horse"))

	info, err := os.Stat(cfg.KeystorePath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(cfg.KeystorePath)
	require.NoError(t, err)
	require.Contains(t, string(raw), aliceAddress, "public listing stays readable")

	restored, _ := newTestKeyring(t, cfg)
	require.True(t, errors.Is(restored.Load("wrong"), ErrKeystoreAuth))
	require.Empty(t, restored.Names())

	require.NoError(t, restored.Load("correct horse"))
	require.Equal(t, []string{"alice", "bob"}, restored.Names())

	sig, err := restored.Sign("bob", []byte("hi"))
	require.NoError(t, err)
	pk, err := kr.PublicKey("bob")
	require.NoError(t, err)
	ok, err := kr.Verify(sig, []byte("hi"), pk)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoadDetectsTampering(t *testing.T) {
	cfg := testConfig(t)
	kr, _ := newTestKeyring(t, cfg)

	_, err := kr.AddURI("alice", "//Alice")
	require.NoError(t, err)
	require.NoError(t, kr.Save("pw"))

	raw, err := os.ReadFile(cfg.KeystorePath)
	require.NoError(t, err)
	tampered := strings.Replace(string(raw), "name: alice", "name: mallory", 1)
	require.NotEqual(t, string(raw), tampered)
	require.NoError(t, os.WriteFile(cfg.KeystorePath, []byte(tampered), 0o600))

	restored, _ := newTestKeyring(t, cfg)
	require.True(t, errors.Is(restored.Load("pw"), ErrKeystoreAuth))

	require.NoError(t, os.WriteFile(cfg.KeystorePath, []byte("version: 9\n"), 0o600))
	require.True(t, errors.Is(restored.Load("pw"), ErrKeystoreInvalid))
}

func TestLoadRejectsUnsafeKDFParams(t *testing.T) {
	cfg := testConfig(t)
	kr, _ := newTestKeyring(t, cfg)
	_, err := kr.AddURI("alice", "//Alice")
	require.NoError(t, err)
	require.NoError(t, kr.Save("pw"))

	raw, err := os.ReadFile(cfg.KeystorePath)
	require.NoError(t, err)

	for name, edit := range map[string][2]string{
		"zero threads": {"threads: 1", "threads: 0"},
		"zero time":    {"time: 1", "time: 0"},
		"huge memory":  {"memory_kb: 64", "memory_kb: 4000000000"},
		"tiny memory":  {"memory_kb: 64", "memory_kb: 4"},
	} {
		t.Run(name, func(t *testing.T) {
			tampered := strings.Replace(string(raw), edit[0], edit[1], 1)
			require.NotEqual(t, string(raw), tampered)
			require.NoError(t, os.WriteFile(cfg.KeystorePath, []byte(tampered), 0o600))

			restored, _ := newTestKeyring(t, cfg)
			require.NotPanics(t, func() { err = restored.Load("pw") })
			require.True(t, errors.Is(err, ErrKeystoreInvalid), "got %v", err)
			require.Empty(t, restored.Names())
		})
	}
}

func TestUnsafeKDFConfig(t *testing.T) {
	for name, params := range map[string]KDFParams{
		"zero time":    {Time: 0, MemoryKB: 64, Threads: 1},
		"zero threads": {Time: 1, MemoryKB: 64, Threads: 0},
		"tiny memory":  {Time: 1, MemoryKB: 15, Threads: 2},
		"huge memory":  {Time: 1, MemoryKB: maxKDFMemoryKB + 1, Threads: 1},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.KDF = params
			_, err := New(cfg, quietLogger(), prometheus.NewRegistry())
			require.True(t, errors.Is(err, schnorrkel.ErrInvalidConfiguration), "got %v", err)

			keys := map[string]schnorrkel.KeyPair{}
			require.NotPanics(t, func() { _, err = sealKeystore("pw", params, keys, nil) })
			require.True(t, errors.Is(err, schnorrkel.ErrInvalidConfiguration), "got %v", err)
		})
	}

	require.NoError(t, DefaultKDFParams().validate())
	require.NoError(t, KDFParams{Time: 1, MemoryKB: 16, Threads: 2}.validate())
}

func TestLoadMissingFile(t *testing.T) {
	kr, _ := newTestKeyring(t, testConfig(t))
	require.NoError(t, kr.Load("anything"))
	require.Empty(t, kr.Names())
}

func TestConcurrentAccess(t *testing.T) {
	kr, _ := newTestKeyring(t, testConfig(t))
	_, err := kr.AddURI("alice", "//Alice")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := kr.Sign("alice", []byte("concurrent"))
			errs <- err
		}()
		go func(i int) {
			defer wg.Done()
			_, err := kr.AddSeed(string(rune('a'+i)), bytes.Repeat([]byte{byte(i)}, 32))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, kr.Names(), 9)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics = false
	reg := prometheus.NewRegistry()
	kr, err := New(cfg, quietLogger(), reg)
	require.NoError(t, err)

	_, err = kr.AddURI("alice", "//Alice")
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Empty(t, families)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Expansion = "sideways"
	_, err := New(cfg, quietLogger(), prometheus.NewRegistry())
	require.True(t, errors.Is(err, schnorrkel.ErrInvalidConfiguration))

	cfg = testConfig(t)
	cfg.SS58Prefix = 1 << 15
	_, err = New(cfg, quietLogger(), prometheus.NewRegistry())
	require.Error(t, err)
}
