package keyring

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "schnorrkel_keyring"

// Metrics counts keyring operations. A nil *Metrics records nothing.
type Metrics struct {
	operations           *prometheus.CounterVec
	verificationFailures *prometheus.CounterVec
	keys                 prometheus.Gauge
}

// NewMetrics creates the keyring collectors and registers them with reg.
// A collector that is already registered is reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Keyring operations by kind and outcome.",
		}, []string{"operation", "result"}),
		verificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "verification_failures_total",
			Help:      "Rejected signatures and VRF proofs by scheme.",
		}, []string{"scheme"}),
		keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "keys",
			Help:      "Number of key pairs held by the keyring.",
		}),
	}

	var err error
	if m.operations, err = registerCounterVec(reg, m.operations); err != nil {
		return nil, err
	}
	if m.verificationFailures, err = registerCounterVec(reg, m.verificationFailures); err != nil {
		return nil, err
	}
	if err = reg.Register(m.keys); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		m.keys = already.ExistingCollector.(prometheus.Gauge)
	}
	return m, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) verificationFailed(scheme string) {
	if m == nil {
		return
	}
	m.verificationFailures.WithLabelValues(scheme).Inc()
}

func (m *Metrics) setKeys(n int) {
	if m == nil {
		return
	}
	m.keys.Set(float64(n))
}
