package core

import "fmt"

// -----------------------------------------------------------------------------
// Privacy Level
// -----------------------------------------------------------------------------

// PrivacyLevel controls retention and redaction of a persisted reading.
type PrivacyLevel string

const (
	PrivacyMinimal   PrivacyLevel = "minimal"
	PrivacyStandard  PrivacyLevel = "standard"
	PrivacyEnhanced  PrivacyLevel = "enhanced"
	PrivacyBiometric PrivacyLevel = "biometric"
)

func (p PrivacyLevel) String() string {
	return string(p)
}

// IsBiometric reports whether the reading carries derived biometric
// features and falls under the 30-day retention cap.
func (p PrivacyLevel) IsBiometric() bool {
	return p == PrivacyBiometric
}

// ParsePrivacyLevel validates a raw privacy level, defaulting to standard
// for the empty string.
func ParsePrivacyLevel(s string) (PrivacyLevel, error) {
	switch PrivacyLevel(s) {
	case PrivacyMinimal, PrivacyStandard, PrivacyEnhanced, PrivacyBiometric:
		return PrivacyLevel(s), nil
	case "":
		return PrivacyStandard, nil
	default:
		return "", fmt.Errorf("invalid privacy_level %q", s)
	}
}

// -----------------------------------------------------------------------------
// Run Mode
// -----------------------------------------------------------------------------

// RunMode selects how a multi-engine batch executes.
type RunMode string

const (
	ModeParallel   RunMode = "parallel"
	ModeSequential RunMode = "sequential"
)

func (m RunMode) String() string {
	return string(m)
}

func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(s) {
	case ModeParallel, ModeSequential:
		return RunMode(s), nil
	case "":
		return ModeParallel, nil
	default:
		return "", fmt.Errorf("invalid run mode %q", s)
	}
}
