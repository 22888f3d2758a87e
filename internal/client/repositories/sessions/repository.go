// Package sessions persists the local generation-session cache so the
// history list survives restarts and renames/removals stick.
package sessions

import (
	"context"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
)

type Repository interface {
	// List returns all cached records, most recent first (pending records
	// ahead of confirmed ones).
	List(ctx context.Context) ([]models.SessionRecord, error)

	// Save inserts or updates a record by id.
	Save(ctx context.Context, rec models.SessionRecord) error

	// Replace swaps a record's id, e.g. when a pending local placeholder is
	// confirmed under the server-assigned id.
	Replace(ctx context.Context, oldID string, rec models.SessionRecord) error

	// Rename updates the display title.
	Rename(ctx context.Context, id, title string) error

	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
