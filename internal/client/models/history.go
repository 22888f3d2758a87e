package models

import (
	"strings"
	"time"
)

// SessionRecord is one generation session distilled for the history list.
// Pending records were created locally when a generation started and have a
// placeholder ID until the server confirms the session (see history.Merge).
type SessionRecord struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Pending   bool
	Request   GenerationRequest
}

// SameRequest reports whether two records describe the same submitted
// configuration. Used to correlate a pending local record with the row the
// server later returns for it, since the two use different id spaces.
func (r SessionRecord) SameRequest(other SessionRecord) bool {
	return r.Request.Normalized() == other.Request.Normalized()
}

// DeriveTitle builds a display title for a session from its prompt,
// truncated to keep the history list readable.
func DeriveTitle(req GenerationRequest) string {
	title := strings.TrimSpace(req.Prompt)
	if title == "" {
		title = req.Normalized().ProjectName
	}
	const maxLen = 48
	if len(title) > maxLen {
		title = title[:maxLen-3] + "..."
	}
	return title
}

// TimestampLabel formats CreatedAt for display next to the title.
func (r SessionRecord) TimestampLabel() string {
	if r.CreatedAt.IsZero() {
		return ""
	}
	return r.CreatedAt.Local().Format("Jan 2, 2006 15:04")
}
