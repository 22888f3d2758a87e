package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/common"
	"github.com/tanvir-rifat007/maker-cli/internal/logging"
)

// fakeAPI implements api.Client; only History matters here.
type fakeAPI struct {
	HistoryRet   []models.SessionRecord
	HistoryErr   error
	HistoryCalls int
	LastUserID   string
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*models.UserSession, error) { return nil, nil }
func (f *fakeAPI) Login(ctx context.Context, email, password string) error      { return nil }
func (f *fakeAPI) Logout(ctx context.Context) error                             { return nil }
func (f *fakeAPI) Register(ctx context.Context, name, email, password string) (*models.UserSession, error) {
	return nil, nil
}
func (f *fakeAPI) RequestPasswordReset(ctx context.Context, email string) error    { return nil }
func (f *fakeAPI) ResetPassword(ctx context.Context, token, password string) error { return nil }
func (f *fakeAPI) Close() error                                                    { return nil }

func (f *fakeAPI) History(ctx context.Context, userID string) ([]models.SessionRecord, error) {
	f.HistoryCalls++
	f.LastUserID = userID
	return f.HistoryRet, f.HistoryErr
}

// fakeRepo is an in-memory sessions.Repository preserving insertion order.
type fakeRepo struct {
	stored  []models.SessionRecord
	ListErr error
	SaveErr error

	ReplaceCalls []string
}

func (f *fakeRepo) List(ctx context.Context) ([]models.SessionRecord, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]models.SessionRecord, len(f.stored))
	copy(out, f.stored)
	return out, nil
}

func (f *fakeRepo) Save(ctx context.Context, rec models.SessionRecord) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	for i := range f.stored {
		if f.stored[i].ID == rec.ID {
			f.stored[i] = rec
			return nil
		}
	}
	f.stored = append(f.stored, rec)
	return nil
}

func (f *fakeRepo) Replace(ctx context.Context, oldID string, rec models.SessionRecord) error {
	f.ReplaceCalls = append(f.ReplaceCalls, oldID)
	for i := range f.stored {
		if f.stored[i].ID == oldID {
			f.stored = append(f.stored[:i], f.stored[i+1:]...)
			break
		}
	}
	return f.Save(ctx, rec)
}

func (f *fakeRepo) Rename(ctx context.Context, id, title string) error {
	for i := range f.stored {
		if f.stored[i].ID == id {
			f.stored[i].Title = title
		}
	}
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	for i := range f.stored {
		if f.stored[i].ID == id {
			f.stored = append(f.stored[:i], f.stored[i+1:]...)
			return nil
		}
	}
	return nil
}

func nopLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serverRecord(id, prompt string) models.SessionRecord {
	req := models.DefaultGenerationRequest()
	req.Prompt = prompt
	return models.SessionRecord{
		ID:      id,
		Title:   models.DeriveTitle(req),
		Request: req,
	}
}

func TestFetch_ReversesServerOrder(t *testing.T) {
	client := &fakeAPI{HistoryRet: []models.SessionRecord{
		serverRecord("1", "oldest"),
		serverRecord("2", "middle"),
		serverRecord("3", "newest"),
	}}
	r := NewReconciler(client, &fakeRepo{}, nopLogger())

	r.Fetch(context.Background(), "7")

	assert.Equal(t, "7", client.LastUserID)
	recs := r.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "3", recs[0].ID)
	assert.Equal(t, "1", recs[2].ID)
}

func TestFetch_ServerFailureKeepsCache(t *testing.T) {
	repo := &fakeRepo{stored: []models.SessionRecord{serverRecord("1", "cached")}}
	client := &fakeAPI{HistoryErr: errors.New("connection refused")}
	r := NewReconciler(client, repo, nopLogger())

	r.Fetch(context.Background(), "7")

	recs := r.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].ID)
}

func TestFetch_KeepsCachedTitles(t *testing.T) {
	cached := serverRecord("1", "original prompt")
	cached.Title = "my renamed session"
	cached.CreatedAt = time.Unix(1700000000, 0)
	repo := &fakeRepo{stored: []models.SessionRecord{cached}}
	client := &fakeAPI{HistoryRet: []models.SessionRecord{serverRecord("1", "original prompt")}}
	r := NewReconciler(client, repo, nopLogger())

	r.Fetch(context.Background(), "7")

	recs := r.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "my renamed session", recs[0].Title)
	assert.True(t, cached.CreatedAt.Equal(recs[0].CreatedAt))
}

func TestRecordOptimistic_PrependsPendingAndSelects(t *testing.T) {
	repo := &fakeRepo{}
	r := NewReconciler(&fakeAPI{}, repo, nopLogger())
	require.NoError(t, r.Load(context.Background()))

	req := models.DefaultGenerationRequest()
	req.Prompt = "build a todo app"
	rec := r.RecordOptimistic(context.Background(), req)

	assert.NotEmpty(t, rec.ID)
	assert.True(t, rec.Pending)
	assert.Equal(t, "build a todo app", rec.Title)

	recs := r.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.Equal(t, rec.ID, r.Selected())
	require.Len(t, repo.stored, 1)
}

func TestFetch_AdoptsServerIDForPending(t *testing.T) {
	repo := &fakeRepo{}
	client := &fakeAPI{}
	r := NewReconciler(client, repo, nopLogger())

	req := models.DefaultGenerationRequest()
	req.Prompt = "build a todo app"
	local := r.RecordOptimistic(context.Background(), req)

	// The server now knows the session under its own id.
	confirmed := serverRecord("42", "build a todo app")
	client.HistoryRet = []models.SessionRecord{confirmed}

	r.Fetch(context.Background(), "7")

	recs := r.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "42", recs[0].ID)
	assert.False(t, recs[0].Pending)
	assert.True(t, local.CreatedAt.Equal(recs[0].CreatedAt))

	// Selection follows the adopted id and the placeholder row is replaced.
	assert.Equal(t, "42", r.Selected())
	assert.Contains(t, repo.ReplaceCalls, local.ID)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, "42", repo.stored[0].ID)
}

func TestFetch_UnmatchedPendingStaysAtHead(t *testing.T) {
	repo := &fakeRepo{}
	client := &fakeAPI{HistoryRet: []models.SessionRecord{serverRecord("1", "something else")}}
	r := NewReconciler(client, repo, nopLogger())

	req := models.DefaultGenerationRequest()
	req.Prompt = "still in flight"
	local := r.RecordOptimistic(context.Background(), req)

	r.Fetch(context.Background(), "7")

	recs := r.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, local.ID, recs[0].ID)
	assert.True(t, recs[0].Pending)
	assert.Equal(t, "1", recs[1].ID)
}

func TestSelect_ReturnsRequest(t *testing.T) {
	client := &fakeAPI{HistoryRet: []models.SessionRecord{serverRecord("1", "build a todo app")}}
	r := NewReconciler(client, &fakeRepo{}, nopLogger())
	r.Fetch(context.Background(), "7")

	req, err := r.Select("1")
	require.NoError(t, err)
	assert.Equal(t, "build a todo app", req.Prompt)
	assert.Equal(t, "1", r.Selected())

	_, err = r.Select("missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRename_UpdatesListAndCache(t *testing.T) {
	repo := &fakeRepo{stored: []models.SessionRecord{serverRecord("1", "prompt")}}
	r := NewReconciler(&fakeAPI{HistoryErr: errors.New("offline")}, repo, nopLogger())
	r.Fetch(context.Background(), "7")

	require.NoError(t, r.Rename(context.Background(), "1", "new name"))
	assert.Equal(t, "new name", r.Records()[0].Title)
	assert.Equal(t, "new name", repo.stored[0].Title)

	assert.ErrorIs(t, r.Rename(context.Background(), "missing", "x"), common.ErrNotFound)
}

func TestRemove_ClearsSelection(t *testing.T) {
	client := &fakeAPI{HistoryRet: []models.SessionRecord{
		serverRecord("1", "keep"),
		serverRecord("2", "drop"),
	}}
	repo := &fakeRepo{}
	r := NewReconciler(client, repo, nopLogger())
	r.Fetch(context.Background(), "7")

	_, err := r.Select("1")
	require.NoError(t, err)

	wasSelected, err := r.Remove(context.Background(), "2")
	require.NoError(t, err)
	assert.False(t, wasSelected)

	wasSelected, err = r.Remove(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, wasSelected)
	assert.Empty(t, r.Selected())
	assert.Empty(t, r.Records())

	_, err = r.Remove(context.Background(), "1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
