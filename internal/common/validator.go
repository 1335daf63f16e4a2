package common

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var fieldValidate = validator.New()

type ValidationError struct {
	Errors map[string]string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %+v", e.Errors)
}

type Validator struct {
	Errors map[string]string
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	if _, ok := v.Errors[field]; !ok {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// CheckStringLength counts runes, so Korean text is measured by characters rather than bytes.
func (v *Validator) CheckStringLength(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// NotBlank reports whether s has any non-space content.
func (v *Validator) NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsEmail checks the address with the same rules as validator's "email" tag.
func (v *Validator) IsEmail(s string) bool {
	return fieldValidate.Var(s, "email") == nil
}

func (v *Validator) ValidationError() error {
	return ValidationError{Errors: v.Errors}
}
