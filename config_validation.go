package schnorrkel

import (
	"fmt"
)

// Configuration validation constants
const (
	DefaultSigningContext     = "substrate"
	DefaultVRFContext         = "substrate-babe-vrf"
	DefaultVRFBytesLength     = 32
	MaxVRFBytesLength         = 1024
	DefaultMaxDerivationDepth = 32
)

// SecurityLevel represents the assessed security level of a configuration
type SecurityLevel string

const (
	SecurityLevelLow    SecurityLevel = "low"
	SecurityLevelMedium SecurityLevel = "medium"
	SecurityLevelHigh   SecurityLevel = "high"
)

// ValidationResult contains the result of configuration validation
type ValidationResult struct {
	Valid           bool          `json:"valid"`
	SecurityLevel   SecurityLevel `json:"security_level"`
	Warnings        []string      `json:"warnings,omitempty"`
	Errors          []string      `json:"errors,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

func newValidationResult(level SecurityLevel) *ValidationResult {
	return &ValidationResult{
		Valid:           true,
		SecurityLevel:   level,
		Warnings:        []string{},
		Errors:          []string{},
		Recommendations: []string{},
	}
}

func (r *ValidationResult) merge(other *ValidationResult) {
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Recommendations = append(r.Recommendations, other.Recommendations...)
}

// Config parameterizes a Schnorrkel instance.
type Config struct {
	// Curve is the group engine. Defaults to ristretto255.
	Curve Curve
	// SigningContext is bound into every Sign/Verify transcript.
	SigningContext []byte
	// VRFContext and VRFBytesLength are the MakeBytes defaults.
	VRFContext     []byte
	VRFBytesLength int
	// ExpansionMode turns mini secret keys into secret keys.
	ExpansionMode ExpansionMode
	// AuditHandler receives key lifecycle and verification events.
	AuditHandler AuditEventHandler
}

// DefaultConfig returns the Substrate-compatible configuration.
func DefaultConfig() Config {
	return Config{
		Curve:          NewRistretto255Curve(),
		SigningContext: []byte(DefaultSigningContext),
		VRFContext:     []byte(DefaultVRFContext),
		VRFBytesLength: DefaultVRFBytesLength,
		ExpansionMode:  ExpansionModeEd25519,
		AuditHandler:   &NullAuditHandler{},
	}
}

// ConfigurationValidator provides validation for schnorrkel configuration parameters
type ConfigurationValidator struct {
	supportedCurves    map[string]bool
	maxVRFBytesLength  int
	maxDerivationDepth int
}

// NewDefaultConfigurationValidator creates a validator with secure defaults
func NewDefaultConfigurationValidator() *ConfigurationValidator {
	return &ConfigurationValidator{
		supportedCurves: map[string]bool{
			string(Ristretto255): true,
		},
		maxVRFBytesLength:  MaxVRFBytesLength,
		maxDerivationDepth: DefaultMaxDerivationDepth,
	}
}

// ValidateCurve validates that a curve is supported and encodes to the
// protocol's fixed sizes
func (cv *ConfigurationValidator) ValidateCurve(curve Curve) *ValidationResult {
	result := newValidationResult(SecurityLevelMedium)

	if curve == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "curve cannot be nil")
		return result
	}

	curveName := curve.Name()
	if curveName == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "curve name cannot be empty")
		return result
	}

	if !cv.supportedCurves[curveName] {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unsupported curve: %s", curveName))
		result.Recommendations = append(result.Recommendations, "use the ristretto255 curve")
		return result
	}

	if err := checkEngineSizes(curve); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.SecurityLevel = SecurityLevelHigh
	return result
}

// ValidateSigningContext checks the context bound into signatures
func (cv *ConfigurationValidator) ValidateSigningContext(ctx []byte) *ValidationResult {
	result := newValidationResult(SecurityLevelHigh)

	if len(ctx) == 0 {
		result.Warnings = append(result.Warnings, "empty signing context - signatures are not bound to an application")
		result.SecurityLevel = SecurityLevelMedium
	}
	if string(ctx) != DefaultSigningContext {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("signatures under context %q do not verify on Substrate chains", ctx))
	}
	return result
}

// ValidateVRFParameters checks the MakeBytes defaults
func (cv *ConfigurationValidator) ValidateVRFParameters(ctx []byte, length int) *ValidationResult {
	result := newValidationResult(SecurityLevelHigh)

	if length <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("VRF output length must be positive, got %d", length))
		return result
	}
	if length > cv.maxVRFBytesLength {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("VRF output length %d exceeds maximum %d", length, cv.maxVRFBytesLength))
		return result
	}
	if length < 16 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("VRF output length %d gives less than 128 bits of randomness", length))
		result.SecurityLevel = SecurityLevelLow
	}
	if len(ctx) == 0 {
		result.Warnings = append(result.Warnings, "empty VRF context")
	}
	return result
}

// ValidateDerivationPath checks a junction path before derivation
func (cv *ConfigurationValidator) ValidateDerivationPath(path []Junction) *ValidationResult {
	result := newValidationResult(SecurityLevelMedium)

	if len(path) == 0 {
		result.Warnings = append(result.Warnings, "empty derivation path - using root key")
		return result
	}

	if len(path) > cv.maxDerivationDepth {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("derivation path too deep: %d (max: %d)", len(path), cv.maxDerivationDepth))
		return result
	}

	hasHard := false
	for _, j := range path {
		if j.Hard {
			hasHard = true
			break
		}
	}
	if !hasHard {
		result.Warnings = append(result.Warnings, "no hard junction - every derived public key is linkable to the root")
		result.Recommendations = append(result.Recommendations, "start account paths with a hard junction (//name)")
	} else {
		result.SecurityLevel = SecurityLevelHigh
	}
	return result
}

// ValidateCompleteConfiguration validates a complete configuration
func (cv *ConfigurationValidator) ValidateCompleteConfiguration(cfg Config) *ValidationResult {
	result := newValidationResult(SecurityLevelHigh)

	curveResult := cv.ValidateCurve(cfg.Curve)
	result.merge(curveResult)

	contextResult := cv.ValidateSigningContext(cfg.SigningContext)
	result.merge(contextResult)

	vrfResult := cv.ValidateVRFParameters(cfg.VRFContext, cfg.VRFBytesLength)
	result.merge(vrfResult)

	switch cfg.ExpansionMode {
	case ExpansionModeEd25519, ExpansionModeUniform:
	default:
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unknown expansion mode %d", cfg.ExpansionMode))
	}

	if cfg.AuditHandler == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "audit handler cannot be nil (use NullAuditHandler)")
	}

	result.SecurityLevel = getMinimumSecurityLevel([]SecurityLevel{
		curveResult.SecurityLevel,
		contextResult.SecurityLevel,
		vrfResult.SecurityLevel,
	})

	return result
}

// getMinimumSecurityLevel returns the minimum security level from a slice
func getMinimumSecurityLevel(levels []SecurityLevel) SecurityLevel {
	if len(levels) == 0 {
		return SecurityLevelMedium
	}

	minLevel := SecurityLevelHigh
	for _, level := range levels {
		switch level {
		case SecurityLevelLow:
			return SecurityLevelLow
		case SecurityLevelMedium:
			minLevel = SecurityLevelMedium
		}
	}

	return minLevel
}
