package schnorrkel

import (
	"crypto/rand"
	"fmt"
	"time"
)

// AuditEventType represents the type of audit event
type AuditEventType string

const (
	// Key lifecycle events
	AuditEventKeyGeneration AuditEventType = "key_generation"
	AuditEventKeyDerivation AuditEventType = "key_derivation"

	// Configuration events
	AuditEventConfigurationChange AuditEventType = "configuration_change"
	AuditEventInitialization      AuditEventType = "initialization"

	// Failure events
	AuditEventVerificationFailure AuditEventType = "verification_failure"
	AuditEventValidationFailure   AuditEventType = "validation_failure"
)

// AuditEventReason represents why an event occurred
type AuditEventReason string

const (
	ReasonRandomGeneration     AuditEventReason = "random_generation"
	ReasonSeedExpansion        AuditEventReason = "seed_expansion"
	ReasonSecretURI            AuditEventReason = "secret_uri"
	ReasonHardJunction         AuditEventReason = "hard_junction"
	ReasonSoftJunction         AuditEventReason = "soft_junction"
	ReasonPublicSoftJunction   AuditEventReason = "public_soft_junction"
	ReasonSignatureRejected    AuditEventReason = "signature_rejected"
	ReasonVRFProofRejected     AuditEventReason = "vrf_proof_rejected"
	ReasonInvalidConfiguration AuditEventReason = "invalid_configuration"
	ReasonInvalidInput         AuditEventReason = "invalid_input"
	ReasonInitialization       AuditEventReason = "initialization"
)

// AuditEvent represents a single audit event. Events only ever carry
// public material: public keys, chain codes and junction metadata.
type AuditEvent struct {
	// Event metadata
	EventID   string           `json:"event_id"`
	Timestamp time.Time        `json:"timestamp"`
	EventType AuditEventType   `json:"event_type"`
	Reason    AuditEventReason `json:"reason"`

	CurveName string `json:"curve_name,omitempty"`
	PublicKey string `json:"public_key,omitempty"`

	// Success/failure information
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Additional context
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// DerivationEvent describes one derivation step.
type DerivationEvent struct {
	AuditEvent

	ParentPublicKey string `json:"parent_public_key"`
	ChainCode       string `json:"chain_code"`
	Hard            bool   `json:"hard"`
}

// VerificationFailureEvent is emitted when a signature or VRF proof is
// rejected.
type VerificationFailureEvent struct {
	AuditEvent

	Scheme     string `json:"scheme"` // "sr25519", "sr25519-deprecated", "vrf"
	Deprecated bool   `json:"deprecated"`
}

// ValidationFailureEvent contains details about validation failures
type ValidationFailureEvent struct {
	AuditEvent

	// Validation-specific fields
	ValidationType string                 `json:"validation_type"` // "configuration", "derivation_path", "secret_uri"
	FailureReason  string                 `json:"failure_reason"`
	InputValues    map[string]interface{} `json:"input_values,omitempty"`
}

// AuditEventHandler defines the interface for handling audit events
// Applications implement this interface to record events according to their needs
type AuditEventHandler interface {
	// OnKeyGeneration is called when a key pair is created from entropy,
	// a seed or a secret URI
	OnKeyGeneration(event *AuditEvent)

	// OnDerivation is called for every derivation step
	OnDerivation(event *DerivationEvent)

	// OnVerificationFailure is called when a signature or proof is rejected
	OnVerificationFailure(event *VerificationFailureEvent)

	// OnValidationFailure is called when validation fails
	OnValidationFailure(event *ValidationFailureEvent)

	// OnConfigurationChange is called when an instance is configured
	OnConfigurationChange(event *AuditEvent)
}

// NullAuditHandler is a no-op implementation of AuditEventHandler
// Used when no audit handling is needed
type NullAuditHandler struct{}

func (n *NullAuditHandler) OnKeyGeneration(event *AuditEvent)                     {}
func (n *NullAuditHandler) OnDerivation(event *DerivationEvent)                   {}
func (n *NullAuditHandler) OnVerificationFailure(event *VerificationFailureEvent) {}
func (n *NullAuditHandler) OnValidationFailure(event *ValidationFailureEvent)     {}
func (n *NullAuditHandler) OnConfigurationChange(event *AuditEvent)               {}

// AuditEventBuilder helps construct audit events with proper defaults
type AuditEventBuilder struct {
	event *AuditEvent
}

// NewAuditEventBuilder creates a new audit event builder
func NewAuditEventBuilder(eventType AuditEventType, reason AuditEventReason) *AuditEventBuilder {
	return &AuditEventBuilder{
		event: &AuditEvent{
			EventID:   generateEventID(),
			Timestamp: time.Now(),
			EventType: eventType,
			Reason:    reason,
			Success:   true, // Default to success, can be overridden
			Metadata:  make(map[string]interface{}),
		},
	}
}

// WithCurve sets the curve name for the event
func (b *AuditEventBuilder) WithCurve(curveName string) *AuditEventBuilder {
	b.event.CurveName = curveName
	return b
}

// WithPublicKey records the public key the event is about
func (b *AuditEventBuilder) WithPublicKey(pk PublicKey) *AuditEventBuilder {
	b.event.PublicKey = pk.String()
	return b
}

// WithError marks the event as failed and sets error information
func (b *AuditEventBuilder) WithError(err error) *AuditEventBuilder {
	b.event.Success = false
	if err != nil {
		b.event.Error = err.Error()
	}
	return b
}

// WithMetadata adds metadata to the event
func (b *AuditEventBuilder) WithMetadata(key string, value interface{}) *AuditEventBuilder {
	b.event.Metadata[key] = value
	return b
}

// Build returns the constructed audit event
func (b *AuditEventBuilder) Build() *AuditEvent {
	return b.event
}

// BuildDerivation returns a DerivationEvent
func (b *AuditEventBuilder) BuildDerivation(parent PublicKey, cc ChainCode, hard bool) *DerivationEvent {
	return &DerivationEvent{
		AuditEvent:      *b.event,
		ParentPublicKey: parent.String(),
		ChainCode:       cc.String(),
		Hard:            hard,
	}
}

// BuildVerificationFailure returns a VerificationFailureEvent
func (b *AuditEventBuilder) BuildVerificationFailure(scheme string, deprecated bool) *VerificationFailureEvent {
	b.event.Success = false
	return &VerificationFailureEvent{
		AuditEvent: *b.event,
		Scheme:     scheme,
		Deprecated: deprecated,
	}
}

// BuildValidationFailure returns a ValidationFailureEvent
func (b *AuditEventBuilder) BuildValidationFailure(validationType, failureReason string, inputValues map[string]interface{}) *ValidationFailureEvent {
	b.event.Success = false
	return &ValidationFailureEvent{
		AuditEvent:     *b.event,
		ValidationType: validationType,
		FailureReason:  failureReason,
		InputValues:    inputValues,
	}
}

// generateEventID generates a unique event ID
// Uses a combination of timestamp and random bytes to ensure uniqueness
func generateEventID() string {
	timestamp := time.Now().Format("20060102150405.000000")

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("%s.%d", timestamp, time.Now().UnixNano()%10000)
	}

	return fmt.Sprintf("%s.%x", timestamp, randomBytes)
}
