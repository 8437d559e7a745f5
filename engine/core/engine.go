package core

import (
	"context"

	"github.com/auralab/aura/engine/schema"
)

// Engine is the uniform contract every divination engine satisfies.
// Calculate is a pure computation from validated input to a raw result;
// engines never start timers, touch caches, or know about storage.
type Engine interface {
	Name() string
	Description() string
	InputSchema() *schema.Schema
	OutputSchema() *schema.Schema
	Calculate(ctx context.Context, input Input) (Output, error)
	Interpret(ctx context.Context, raw Output, input Input) (string, error)
}

// Optional capabilities discovered by interface assertion at assembly
// time. Engines that do not implement them get the documented defaults:
// empty lists and confidence 1.0.
type (
	// Recommender contributes ordered recommendation strings.
	Recommender interface {
		Recommendations(raw Output, input Input) []string
	}

	// RealityPatcher contributes actionable adjustment suggestions.
	RealityPatcher interface {
		RealityPatches(raw Output, input Input) []string
	}

	// Themer contributes archetypal theme tags.
	Themer interface {
		ArchetypalThemes(raw Output, input Input) []string
	}

	// ConfidenceScorer overrides the default confidence of 1.0.
	ConfidenceScorer interface {
		Confidence(raw Output, input Input) float64
	}

	// ConsentRequirer marks engines that must not run without explicit
	// data-processing consent.
	ConsentRequirer interface {
		RequiresConsent() bool
	}
)

// RequiresConsent reports whether e is consent-gated.
func RequiresConsent(e Engine) bool {
	if c, ok := e.(ConsentRequirer); ok {
		return c.RequiresConsent()
	}
	return false
}

// Descriptor is the listing form of an engine.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
