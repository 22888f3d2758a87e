package sessions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"

	_ "modernc.org/sqlite"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(context.Background(), db))
	return NewSQLiteRepository(db)
}

func record(id string, createdAt time.Time, pending bool) models.SessionRecord {
	req := models.DefaultGenerationRequest()
	req.Prompt = "prompt for " + id
	req.ProjectName = "proj-" + id
	return models.SessionRecord{
		ID:        id,
		Title:     models.DeriveTitle(req),
		CreatedAt: createdAt,
		Pending:   pending,
		Request:   req,
	}
}

func TestSaveAndList_RoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	rec := record("1", time.Unix(1700000000, 0), false)
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, rec.Title, got[0].Title)
	assert.Equal(t, rec.Request, got[0].Request)
	assert.True(t, rec.CreatedAt.Equal(got[0].CreatedAt))
}

func TestList_OrderPendingFirstThenNewest(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	require.NoError(t, repo.Save(ctx, record("old", base, false)))
	require.NoError(t, repo.Save(ctx, record("new", base.Add(time.Hour), false)))
	require.NoError(t, repo.Save(ctx, record("pend", base.Add(-time.Hour), true)))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "pend", got[0].ID)
	assert.Equal(t, "new", got[1].ID)
	assert.Equal(t, "old", got[2].ID)
}

func TestSave_UpsertsById(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	rec := record("1", time.Unix(1700000000, 0), true)
	require.NoError(t, repo.Save(ctx, rec))

	rec.Pending = false
	rec.Title = "renamed"
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Pending)
	assert.Equal(t, "renamed", got[0].Title)
}

func TestReplace_AdoptsNewID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	local := record("local-placeholder", time.Unix(1700000000, 0), true)
	require.NoError(t, repo.Save(ctx, local))

	confirmed := local
	confirmed.ID = "42"
	confirmed.Pending = false
	require.NoError(t, repo.Replace(ctx, "local-placeholder", confirmed))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "42", got[0].ID)
	assert.False(t, got[0].Pending)
}

func TestRenameAndDelete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("1", time.Unix(1700000000, 0), false)))
	require.NoError(t, repo.Rename(ctx, "1", "my shop backend"))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "my shop backend", got[0].Title)

	require.NoError(t, repo.Delete(ctx, "1"))
	require.NoError(t, repo.Delete(ctx, "1")) // unknown id is not an error

	got, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
