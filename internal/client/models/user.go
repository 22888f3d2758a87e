// Package models defines the data types exchanged with the Maker service:
// the user session record, generation requests, streamed progress events,
// and history entries.
package models

// UserSession is the current user's record as reported by the server.
// It lives only in process memory; the durable credential is the opaque
// session cookie managed by the HTTP client's jar.
type UserSession struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Activated bool   `json:"activated"`
}

// IsAuthenticated reports whether the record grants protected-feature
// access. An existing but unactivated (or incomplete) record degrades to
// unauthenticated.
func (u *UserSession) IsAuthenticated() bool {
	if u == nil {
		return false
	}
	return u.Activated && u.Name != "" && u.Email != ""
}
