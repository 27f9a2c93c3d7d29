package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// fieldMessages maps struct fields to the message surfaced when they fail.
var fieldMessages = map[string]string{
	"name": "enter the parameter name",
	"unit": "enter the unit of measurement",
	"min":  "enter a valid minimum value",
	"max":  "maximum must be greater than the minimum",
}

// Normalize returns the draft with surrounding whitespace trimmed.
func (d ParameterDraft) Normalize() ParameterDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Unit = strings.TrimSpace(d.Unit)
	d.Color = strings.TrimSpace(d.Color)
	return d
}

// Validate reports the first invariant violation in field order
// (name, unit, min, max) as a *ValidationError.
func (d ParameterDraft) Validate() error {
	d = d.Normalize()
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}
	if !isFinite(d.Max) {
		return newFieldError("max")
	}
	return nil
}

func formatValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "draft", Message: err.Error()}
	}
	return newFieldError(strings.ToLower(fieldErrs[0].Field()))
}

func newFieldError(field string) *ValidationError {
	msg, ok := fieldMessages[field]
	if !ok {
		msg = field + " is invalid"
	}
	return &ValidationError{Field: field, Message: msg}
}
