package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// FromStruct reflects a JSON schema from a Go struct. Used for the typed
// request shapes (ephemeris queries, workflow envelopes) where the struct
// is the source of truth.
func FromStruct(v any) (*Schema, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	reflected := reflector.Reflect(v)
	data, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reflected schema: %w", err)
	}
	var out Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode reflected schema: %w", err)
	}
	return &out, nil
}

// MustFromStruct is FromStruct for static request shapes wired at startup.
func MustFromStruct(v any) *Schema {
	s, err := FromStruct(v)
	if err != nil {
		panic(err)
	}
	return s
}
