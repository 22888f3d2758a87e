// Package api implements the HTTP/JSON client for the Maker service.
// Authentication is cookie-based: the server issues an opaque session
// credential that lives in the client's cookie jar and is never parsed here.
package api

import (
	"context"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
)

// Client defines the calls the rest of the application makes against the
// service. Implementations must map transport failures to the sentinel
// errors in this package so callers can match with errors.Is.
type Client interface {
	// CurrentUser fetches the authoritative session record for the
	// credential in the jar. Returns ErrUnauthorized when there is none.
	CurrentUser(ctx context.Context) (*models.UserSession, error)

	// Login submits credentials. On success the server sets the session
	// cookie on the jar; the caller should follow up with CurrentUser for
	// the authoritative record.
	Login(ctx context.Context, email, password string) error

	// Logout notifies the server. Callers clear local state regardless of
	// the outcome.
	Logout(ctx context.Context) error

	// Register creates a new account. Field-level rejections (duplicate
	// email) come back as a FieldErrors value.
	Register(ctx context.Context, name, email, password string) (*models.UserSession, error)

	// RequestPasswordReset asks the server to mail a reset token.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword consumes a reset token together with the new password.
	ResetPassword(ctx context.Context, token, password string) error

	// History returns the server-known generation sessions for the user,
	// in the order the server stores them (oldest first).
	History(ctx context.Context, userID string) ([]models.SessionRecord, error)

	// Close releases underlying resources.
	Close() error
}
