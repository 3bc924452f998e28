package keyring

import (
	"github.com/sirupsen/logrus"

	"github.com/canopy-network/canopy/lib/schnorrkel"
)

const logModule = "keyring"

// LogAuditHandler forwards library audit events to logrus.
type LogAuditHandler struct {
	entry *logrus.Entry
}

// NewLogAuditHandler logs through logger, or the standard logger if nil.
func NewLogAuditHandler(logger *logrus.Logger) *LogAuditHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogAuditHandler{entry: logger.WithField("module", logModule)}
}

func eventFields(event *schnorrkel.AuditEvent) logrus.Fields {
	fields := logrus.Fields{
		"event_id": event.EventID,
		"event":    event.EventType,
		"reason":   event.Reason,
	}
	if event.CurveName != "" {
		fields["curve"] = event.CurveName
	}
	if event.PublicKey != "" {
		fields["public_key"] = event.PublicKey
	}
	if event.Error != "" {
		fields["err"] = event.Error
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}
	return fields
}

func (h *LogAuditHandler) OnKeyGeneration(event *schnorrkel.AuditEvent) {
	h.entry.WithFields(eventFields(event)).Info("key pair created")
}

func (h *LogAuditHandler) OnDerivation(event *schnorrkel.DerivationEvent) {
	h.entry.WithFields(eventFields(&event.AuditEvent)).WithFields(logrus.Fields{
		"parent":     event.ParentPublicKey,
		"chain_code": event.ChainCode,
		"hard":       event.Hard,
	}).Debug("key derived")
}

func (h *LogAuditHandler) OnVerificationFailure(event *schnorrkel.VerificationFailureEvent) {
	h.entry.WithFields(eventFields(&event.AuditEvent)).WithFields(logrus.Fields{
		"scheme":     event.Scheme,
		"deprecated": event.Deprecated,
	}).Warn("verification failed")
}

func (h *LogAuditHandler) OnValidationFailure(event *schnorrkel.ValidationFailureEvent) {
	h.entry.WithFields(eventFields(&event.AuditEvent)).WithFields(logrus.Fields{
		"validation": event.ValidationType,
		"failure":    event.FailureReason,
	}).Warn("validation failed")
}

func (h *LogAuditHandler) OnConfigurationChange(event *schnorrkel.AuditEvent) {
	h.entry.WithFields(eventFields(event)).Debug("schnorrkel configured")
}

// auditHandler logs every event and counts verification failures.
type auditHandler struct {
	*LogAuditHandler
	metrics *Metrics
}

func (h *auditHandler) OnVerificationFailure(event *schnorrkel.VerificationFailureEvent) {
	h.metrics.verificationFailed(event.Scheme)
	h.LogAuditHandler.OnVerificationFailure(event)
}
