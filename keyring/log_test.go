package keyring

import (
	"encoding/hex"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/canopy-network/canopy/lib/schnorrkel"
)

func TestLogAuditHandlerForwardsEvents(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := schnorrkel.DefaultConfig()
	cfg.AuditHandler = NewLogAuditHandler(logger)
	scheme, err := schnorrkel.New(cfg)
	require.NoError(t, err)

	kp, err := scheme.KeyPairFromURI("//Alice")
	require.NoError(t, err)

	var created *logrus.Entry
	for _, entry := range hook.AllEntries() {
		require.Equal(t, logModule, entry.Data["module"])
		if entry.Message == "key pair created" {
			created = entry
		}
	}
	require.NotNil(t, created)
	require.Equal(t, logrus.InfoLevel, created.Level)
	require.Equal(t, kp.Public.String(), created.Data["public_key"])

	hook.Reset()
	sig, err := scheme.Sign([]byte("a"), kp)
	require.NoError(t, err)
	ok, err := scheme.Verify(sig, []byte("b"), kp.Public)
	require.NoError(t, err)
	require.False(t, ok)

	last := hook.LastEntry()
	require.NotNil(t, last)
	require.Equal(t, logrus.WarnLevel, last.Level)
	require.Equal(t, "sr25519", last.Data["scheme"])
}

func TestLogAuditHandlerNeverLogsSecrets(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	kr, err := New(DefaultConfig(), logger, prometheus.NewRegistry())
	require.NoError(t, err)
	_, err = kr.AddURI("alice", "//Alice")
	require.NoError(t, err)

	kp, err := schnorrkel.KeyPairFromURI("//Alice")
	require.NoError(t, err)
	secret := hex.EncodeToString(kp.Secret[:32])

	for _, entry := range hook.AllEntries() {
		line, err := entry.String()
		require.NoError(t, err)
		require.NotContains(t, line, secret)
	}
}
