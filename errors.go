package schnorrkel

import (
	"fmt"
)

// ErrorCategory represents the category of a schnorrkel error
type ErrorCategory string

const (
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryDecode        ErrorCategory = "decode"
	ErrorCategoryCryptographic ErrorCategory = "cryptographic"
	ErrorCategoryEntropy       ErrorCategory = "entropy"
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryDerivation    ErrorCategory = "derivation"
	ErrorCategoryKeystore      ErrorCategory = "keystore"
	ErrorCategoryInternal      ErrorCategory = "internal"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"      // Non-critical, operation can continue
	ErrorSeverityMedium   ErrorSeverity = "medium"   // Important, may affect functionality
	ErrorSeverityHigh     ErrorSeverity = "high"     // Critical, operation should stop
	ErrorSeverityCritical ErrorSeverity = "critical" // System-level failure
)

// SchnorrkelError represents a structured error in the schnorrkel library
type SchnorrkelError struct {
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Cause       error                  `json:"-"` // Original error, not serialized
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// Error implements the error interface
func (e *SchnorrkelError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Code, e.Message, e.Details)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SchnorrkelError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same error code, so copies made by
// WithContext, WithCause and WithDetails still match their sentinel.
func (e *SchnorrkelError) Is(target error) bool {
	t, ok := target.(*SchnorrkelError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *SchnorrkelError) clone() *SchnorrkelError {
	newError := &SchnorrkelError{
		Category:    e.Category,
		Severity:    e.Severity,
		Code:        e.Code,
		Message:     e.Message,
		Details:     e.Details,
		Recoverable: e.Recoverable,
		Cause:       e.Cause,
		Context:     make(map[string]interface{}, len(e.Context)+1),
	}
	for k, v := range e.Context {
		newError.Context[k] = v
	}
	return newError
}

// WithContext adds context information to a copy of the error
func (e *SchnorrkelError) WithContext(key string, value interface{}) *SchnorrkelError {
	newError := e.clone()
	newError.Context[key] = value
	return newError
}

// WithCause sets the underlying cause on a copy of the error
func (e *SchnorrkelError) WithCause(cause error) *SchnorrkelError {
	newError := e.clone()
	newError.Cause = cause
	return newError
}

// WithDetails returns a copy of the error with formatted details
func (e *SchnorrkelError) WithDetails(format string, args ...interface{}) *SchnorrkelError {
	newError := e.clone()
	newError.Details = fmt.Sprintf(format, args...)
	return newError
}

// IsRecoverable returns whether the error is recoverable
func (e *SchnorrkelError) IsRecoverable() bool {
	return e.Recoverable
}

// NewSchnorrkelError creates a new schnorrkel error
func NewSchnorrkelError(category ErrorCategory, severity ErrorSeverity, code, message string) *SchnorrkelError {
	return &SchnorrkelError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		Context:     make(map[string]interface{}),
		Recoverable: severity != ErrorSeverityCritical,
	}
}

// Validation Errors
var (
	ErrInvalidLength = NewSchnorrkelError(
		ErrorCategoryValidation, ErrorSeverityMedium, "INVALID_LENGTH",
		"byte buffer has the wrong length")

	ErrInvalidHex = NewSchnorrkelError(
		ErrorCategoryValidation, ErrorSeverityMedium, "INVALID_HEX",
		"value is not valid hex")

	ErrInvalidJunction = NewSchnorrkelError(
		ErrorCategoryValidation, ErrorSeverityMedium, "INVALID_JUNCTION",
		"derivation junction is invalid")

	ErrInvalidSecretURI = NewSchnorrkelError(
		ErrorCategoryValidation, ErrorSeverityMedium, "INVALID_SECRET_URI",
		"secret URI is malformed")

	ErrInvalidMnemonic = NewSchnorrkelError(
		ErrorCategoryValidation, ErrorSeverityMedium, "INVALID_MNEMONIC",
		"mnemonic phrase is invalid")
)

// Decode Errors
var (
	ErrInvalidPublicKey = NewSchnorrkelError(
		ErrorCategoryDecode, ErrorSeverityMedium, "INVALID_PUBLIC_KEY",
		"public key does not decode to a group element")

	ErrInvalidVrfOutput = NewSchnorrkelError(
		ErrorCategoryDecode, ErrorSeverityMedium, "INVALID_VRF_OUTPUT",
		"VRF output does not decode to a non-identity group element")

	ErrNotMarkedSchnorrkel = NewSchnorrkelError(
		ErrorCategoryDecode, ErrorSeverityLow, "NOT_MARKED_SCHNORRKEL",
		"signature is not marked as a schnorrkel signature")

	ErrScalarFormat = NewSchnorrkelError(
		ErrorCategoryDecode, ErrorSeverityLow, "SCALAR_FORMAT",
		"scalar is not canonically encoded")
)

// Derivation Errors
var (
	ErrHardDerivationFromPublic = NewSchnorrkelError(
		ErrorCategoryDerivation, ErrorSeverityMedium, "HARD_DERIVATION_FROM_PUBLIC",
		"hard junctions cannot be derived from a public key")
)

// Configuration Errors
var (
	ErrInvalidCurve = NewSchnorrkelError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "INVALID_CURVE",
		"curve engine is invalid or unsupported")

	ErrInvalidConfiguration = NewSchnorrkelError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "INVALID_CONFIGURATION",
		"configuration parameters are invalid")
)

// Entropy Errors
var (
	ErrEntropyUnavailable = NewSchnorrkelError(
		ErrorCategoryEntropy, ErrorSeverityCritical, "ENTROPY_UNAVAILABLE",
		"secure random source is unavailable")
)

// Cryptographic Errors
var (
	ErrCryptographicOperation = NewSchnorrkelError(
		ErrorCategoryCryptographic, ErrorSeverityHigh, "CRYPTOGRAPHIC_OPERATION_FAILED",
		"cryptographic operation failed")
)

// Error helper functions

// WrapError wraps an existing error with schnorrkel error context
func WrapError(err error, category ErrorCategory, severity ErrorSeverity, code, message string) *SchnorrkelError {
	return NewSchnorrkelError(category, severity, code, message).WithCause(err)
}

// IsErrorCategory checks if an error belongs to a specific category
func IsErrorCategory(err error, category ErrorCategory) bool {
	if schErr, ok := err.(*SchnorrkelError); ok {
		return schErr.Category == category
	}
	return false
}

// IsErrorSeverity checks if an error has a specific severity
func IsErrorSeverity(err error, severity ErrorSeverity) bool {
	if schErr, ok := err.(*SchnorrkelError); ok {
		return schErr.Severity == severity
	}
	return false
}

// IsRecoverableError checks if an error is recoverable
func IsRecoverableError(err error) bool {
	if schErr, ok := err.(*SchnorrkelError); ok {
		return schErr.IsRecoverable()
	}
	return true
}

// GetErrorContext extracts context from a schnorrkel error
func GetErrorContext(err error) map[string]interface{} {
	if schErr, ok := err.(*SchnorrkelError); ok {
		return schErr.Context
	}
	return nil
}

func lengthError(what string, got, want int) error {
	return ErrInvalidLength.
		WithDetails("%s: got %d bytes, want %d", what, got, want).
		WithContext("type", what)
}
