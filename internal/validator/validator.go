// Package validator implements the client-side field checks that run before
// any network call. Errors are keyed by field name so callers can surface
// them inline next to the offending input.
package validator

import (
	"fmt"
	"regexp"
	"sort"
)

// EmailRX is the permissive email shape check used across sign-in,
// registration, and password recovery. It matches the server's rule: some
// text, an @, some text, a dot, some text.
var EmailRX = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Validator accumulates field-keyed validation errors.
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no errors have been recorded.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records a message for a field. The first message per field wins.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check records a message for a field when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Matches reports whether value matches the provided compiled pattern.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

// ValidationError carries the accumulated field errors as a Go error, for
// operations that report validation failure through an error return.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	s := "validation failed:"
	for _, f := range fields {
		s += fmt.Sprintf(" %s: %s;", f, e.Fields[f])
	}
	return s
}

// Err returns nil when all checks passed, or a *ValidationError carrying the
// recorded field errors.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &ValidationError{Fields: v.Errors}
}
