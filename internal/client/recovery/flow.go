// Package recovery implements the two-phase password reset: request a reset
// token by email, then consume the token together with a new password. The
// phases are independent; no state is shared between them.
package recovery

import (
	"context"
	"errors"
	"sync"

	"github.com/tanvir-rifat007/maker-cli/internal/client/api"
	"github.com/tanvir-rifat007/maker-cli/internal/validator"
)

// ErrMissingToken is returned from ConsumeReset when no reset token was
// supplied. This is a client-side terminal failure; nothing is sent.
var ErrMissingToken = errors.New("reset token is missing")

// Phase tracks where the request-reset interaction stands.
type Phase int

const (
	// PhaseInput accepts an email address.
	PhaseInput Phase = iota
	// PhaseSent means the server accepted the request; the user should
	// check their mail. TryDifferentEmail returns to PhaseInput.
	PhaseSent
)

// Flow drives both reset phases against the service.
type Flow struct {
	client api.Client

	mu       sync.Mutex
	phase    Phase
	lastSent string
}

func NewFlow(client api.Client) *Flow {
	return &Flow{client: client}
}

// RequestReset validates the email shape and asks the server to mail a
// reset token. Validation failures block the network call.
func (f *Flow) RequestReset(ctx context.Context, email string) error {
	v := validator.New()
	v.Check(validator.Matches(email, validator.EmailRX), "email", "Must be a valid email address")
	if err := v.Err(); err != nil {
		return err
	}

	if err := f.client.RequestPasswordReset(ctx, email); err != nil {
		return err
	}

	f.mu.Lock()
	f.phase = PhaseSent
	f.lastSent = email
	f.mu.Unlock()
	return nil
}

// Phase returns the current request-reset phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// SentTo returns the address the last accepted request was sent for, empty
// while in PhaseInput.
func (f *Flow) SentTo() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSent
}

// TryDifferentEmail returns the flow to the input phase.
func (f *Flow) TryDifferentEmail() {
	f.mu.Lock()
	f.phase = PhaseInput
	f.lastSent = ""
	f.mu.Unlock()
}

// ConsumeReset submits a new password under a reset token. The password
// checks run first; a missing token is a terminal client-side failure.
// Neither sends anything to the server on failure.
func (f *Flow) ConsumeReset(ctx context.Context, token, password, confirm string) error {
	v := validator.New()
	v.Check(len(password) >= 8, "password", "Password must be at least 8 characters")
	v.Check(password == confirm, "confirmPassword", "Passwords do not match")
	if err := v.Err(); err != nil {
		return err
	}

	if token == "" {
		return ErrMissingToken
	}

	return f.client.ResetPassword(ctx, token, password)
}
