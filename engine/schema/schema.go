package schema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

// Schema is a JSON-schema document kept in its map form so engines can
// declare schemas as literals and serve them over the listing endpoints.
type Schema map[string]any
type Result = jsonschema.EvaluationResult

func (s *Schema) String() string {
	bytes, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(bytes)
}

func (s *Schema) Compile() (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// MustCompile compiles the schema and panics on failure. Engine schemas
// are static literals, so a failure here is a programming error caught at
// startup.
func (s *Schema) MustCompile() *jsonschema.Schema {
	compiled, err := s.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}

func (s *Schema) Validate(_ context.Context, value any) (*Result, error) {
	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	if compiled == nil {
		return nil, nil
	}
	result := compiled.Validate(value)
	if result.Valid {
		return result, nil
	}
	return nil, fmt.Errorf("schema validation failed: %v", result.Errors)
}

// ValidateCompiled checks value against an already-compiled schema and
// returns the collected violation messages.
func ValidateCompiled(compiled *jsonschema.Schema, value any) (bool, []string) {
	if compiled == nil {
		return true, nil
	}
	result := compiled.Validate(value)
	if result.Valid {
		return true, nil
	}
	violations := make([]string, 0, len(result.Errors))
	for _, evalErr := range result.Errors {
		violations = append(violations, evalErr.Error())
	}
	return false, violations
}
