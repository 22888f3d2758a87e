// Package history keeps the generation session list: the server's records
// merged with locally cached titles and the optimistic entries created when
// a generation starts before the server has acknowledged it.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tanvir-rifat007/maker-cli/internal/client/api"
	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/client/repositories/sessions"
	"github.com/tanvir-rifat007/maker-cli/internal/common"
	"github.com/tanvir-rifat007/maker-cli/internal/logging"
)

// Reconciler owns the in-memory session list and keeps it consistent with
// the server and the local cache. History is decoration: every method that
// talks to the server degrades to cached data instead of failing the caller.
type Reconciler struct {
	client api.Client
	repo   sessions.Repository
	log    logging.Logger

	mu         sync.Mutex
	records    []models.SessionRecord
	selectedID string
}

func NewReconciler(client api.Client, repo sessions.Repository, log logging.Logger) *Reconciler {
	return &Reconciler{client: client, repo: repo, log: log}
}

// Load populates the list from the local cache only. Used at startup before
// the user is known to be signed in.
func (r *Reconciler) Load(ctx context.Context) error {
	cached, err := r.repo.List(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.records = cached
	r.mu.Unlock()
	return nil
}

// Fetch pulls the user's sessions from the server and merges them with the
// local cache. A server failure is logged and the cached list stands.
func (r *Reconciler) Fetch(ctx context.Context, userID string) {
	remote, err := r.client.History(ctx, userID)
	if err != nil {
		r.log.Warn(ctx, "history fetch failed, using cached sessions", "error", err)
		if err := r.Load(ctx); err != nil {
			r.log.Warn(ctx, "history cache read failed", "error", err)
		}
		return
	}

	// The server stores oldest first; the list shows newest first.
	reverse(remote)

	cached, err := r.repo.List(ctx)
	if err != nil {
		r.log.Warn(ctx, "history cache read failed", "error", err)
		cached = nil
	}

	merged, adopted := Merge(remote, cached)

	for _, rec := range merged {
		var err error
		if old, ok := adopted[rec.ID]; ok {
			err = r.repo.Replace(ctx, old, rec)
		} else {
			err = r.repo.Save(ctx, rec)
		}
		if err != nil {
			r.log.Warn(ctx, "history cache write failed", "error", err)
		}
	}

	r.mu.Lock()
	for serverID, placeholderID := range adopted {
		if r.selectedID == placeholderID {
			r.selectedID = serverID
		}
	}
	if r.selectedID != "" && !contains(merged, r.selectedID) {
		r.selectedID = ""
	}
	r.records = merged
	r.mu.Unlock()
}

// Merge folds the cached list into the server's. Server rows win on
// membership; cached rows contribute the local title and timestamp for ids
// the server knows, and pending entries not yet acknowledged stay at the
// head. A pending entry whose request matches a server row is considered
// acknowledged and adopts the server's id; adopted maps the server id to
// the placeholder id it supersedes.
func Merge(remote, cached []models.SessionRecord) (merged []models.SessionRecord, adopted map[string]string) {
	byID := make(map[string]models.SessionRecord, len(cached))
	for _, c := range cached {
		byID[c.ID] = c
	}

	adopted = make(map[string]string)
	out := make([]models.SessionRecord, 0, len(remote)+len(cached))

	for _, rec := range remote {
		if c, ok := byID[rec.ID]; ok {
			if c.Title != "" {
				rec.Title = c.Title
			}
			if !c.CreatedAt.IsZero() {
				rec.CreatedAt = c.CreatedAt
			}
		}
		out = append(out, rec)
	}

	// Pending locals: adopt the server id of the first unclaimed row with
	// the same request, otherwise keep waiting at the head.
	var head []models.SessionRecord
	for _, c := range cached {
		if !c.Pending {
			continue
		}
		matched := false
		for i, rec := range out {
			if rec.Pending {
				continue
			}
			if _, taken := adopted[rec.ID]; taken {
				continue
			}
			if c.SameRequest(rec) {
				out[i].Title = c.Title
				out[i].CreatedAt = c.CreatedAt
				adopted[rec.ID] = c.ID
				matched = true
				break
			}
		}
		if !matched {
			head = append(head, c)
		}
	}

	return append(head, out...), adopted
}

// RecordOptimistic inserts a pending entry at the head of the list for a
// generation that was just submitted. The entry carries a placeholder id
// until Fetch correlates it with the server's row.
func (r *Reconciler) RecordOptimistic(ctx context.Context, req models.GenerationRequest) models.SessionRecord {
	req = req.Normalized()
	rec := models.SessionRecord{
		ID:        uuid.NewString(),
		Title:     models.DeriveTitle(req),
		CreatedAt: time.Now(),
		Pending:   true,
		Request:   req,
	}

	r.mu.Lock()
	r.records = append([]models.SessionRecord{rec}, r.records...)
	r.selectedID = rec.ID
	r.mu.Unlock()

	if err := r.repo.Save(ctx, rec); err != nil {
		r.log.Warn(ctx, "history cache write failed", "error", err)
	}
	return rec
}

// Select marks a session current and returns its request so the caller can
// restore the generation form from it.
func (r *Reconciler) Select(id string) (models.GenerationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			r.selectedID = id
			return rec.Request, nil
		}
	}
	return models.GenerationRequest{}, common.ErrNotFound
}

// Rename changes a session's display title locally. The server keeps its
// own notion of the row; the title is client-side decoration.
func (r *Reconciler) Rename(ctx context.Context, id, title string) error {
	r.mu.Lock()
	found := false
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].Title = title
			found = true
			break
		}
	}
	r.mu.Unlock()
	if !found {
		return common.ErrNotFound
	}
	return r.repo.Rename(ctx, id, title)
}

// Remove drops a session from the list and the cache. It reports whether
// the removed session was the selected one so the caller can clear any
// state derived from it.
func (r *Reconciler) Remove(ctx context.Context, id string) (wasSelected bool, err error) {
	r.mu.Lock()
	kept := r.records[:0]
	found := false
	for _, rec := range r.records {
		if rec.ID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	if found && r.selectedID == id {
		r.selectedID = ""
		wasSelected = true
	}
	r.mu.Unlock()

	if !found {
		return false, common.ErrNotFound
	}
	return wasSelected, r.repo.Delete(ctx, id)
}

// Records returns a copy of the current list, newest first with pending
// entries at the head.
func (r *Reconciler) Records() []models.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SessionRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Selected returns the id of the current session, empty when none.
func (r *Reconciler) Selected() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectedID
}

func reverse(recs []models.SessionRecord) {
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
}

func contains(recs []models.SessionRecord, id string) bool {
	for _, rec := range recs {
		if rec.ID == id {
			return true
		}
	}
	return false
}
