package schema

import (
	"context"
	"fmt"
)

// ParamsValidator validates a raw parameter map against a declared schema.
type ParamsValidator struct {
	id     string
	params map[string]any
	schema *Schema
}

func NewParamsValidator(params map[string]any, schema *Schema, id string) *ParamsValidator {
	return &ParamsValidator{
		id:     id,
		params: params,
		schema: schema,
	}
}

func (v *ParamsValidator) Validate(ctx context.Context) error {
	// If there is no schema, there's nothing to validate against.
	if v.schema == nil {
		return nil
	}

	// If there is a schema, but no parameters are provided, this is an error.
	if v.params == nil {
		return fmt.Errorf("validation error for %s: parameters are nil but a schema is defined", v.id)
	}

	if _, err := v.schema.Validate(ctx, v.params); err != nil {
		return fmt.Errorf("parameters invalid for %s: %w", v.id, err)
	}

	return nil
}
