package schema

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator is one self-contained validation step.
type Validator interface {
	Validate(ctx context.Context) error
}

// ValidatorFunc adapts a plain function into a Validator.
type ValidatorFunc func(ctx context.Context) error

func (f ValidatorFunc) Validate(ctx context.Context) error { return f(ctx) }

// CompositeValidator runs validators in order and stops at the first
// failure.
type CompositeValidator struct {
	validators []Validator
}

func NewCompositeValidator(validators ...Validator) *CompositeValidator {
	return &CompositeValidator{validators: validators}
}

func (v *CompositeValidator) AddValidator(validator Validator) {
	v.validators = append(v.validators, validator)
}

func (v *CompositeValidator) Validate(ctx context.Context) error {
	for _, validator := range v.validators {
		if err := validator.Validate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// StructValidator checks a value against its `validate` struct tags.
type StructValidator struct {
	validate *validator.Validate
	value    any
}

func NewStructValidator(value any) *StructValidator {
	return &StructValidator{
		validate: validator.New(),
		value:    value,
	}
}

func (v *StructValidator) Validate(_ context.Context) error {
	if err := v.validate.Struct(v.value); err != nil {
		return fmt.Errorf("struct validation: %w", err)
	}
	return nil
}
