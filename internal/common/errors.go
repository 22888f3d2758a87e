// Package common defines shared constants and sentinel errors used across
// the Maker client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrNotFound is returned by lookups over local collections, e.g. the
	// session history list.
	ErrNotFound = errors.New("not found")
)
