package api

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnavailable covers network failures and 5xx responses.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized covers 401/403 responses and rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldErrors is a server-side validation rejection keyed by field name,
// e.g. {"email": "a user with this email address already exists"}.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	s := "validation failed:"
	for _, f := range fields {
		s += fmt.Sprintf(" %s: %s;", f, e[f])
	}
	return s
}

// ServerError is a non-field error message reported by the service,
// e.g. an expired reset token.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	}
	return e.Message
}
