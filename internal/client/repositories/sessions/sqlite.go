package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.SessionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, created_at, pending,
		       language, template, base_package, workers, model, prompt, project_name
		FROM sessions
		ORDER BY pending DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []models.SessionRecord
	for rows.Next() {
		var rec models.SessionRecord
		var createdAt int64
		var pending int
		err := rows.Scan(
			&rec.ID, &rec.Title, &createdAt, &pending,
			&rec.Request.Language, &rec.Request.Template, &rec.Request.BasePackage,
			&rec.Request.WorkerCount, &rec.Request.Model, &rec.Request.Prompt,
			&rec.Request.ProjectName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if createdAt > 0 {
			rec.CreatedAt = time.Unix(createdAt, 0)
		}
		rec.Pending = pending != 0
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return records, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, rec models.SessionRecord) error {
	return save(ctx, r.db, rec)
}

func save(ctx context.Context, db dbx.DBTX, rec models.SessionRecord) error {
	var createdAt int64
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt.Unix()
	}
	pending := 0
	if rec.Pending {
		pending = 1
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions
		  (id, title, created_at, pending, language, template, base_package, workers, model, prompt, project_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  created_at = excluded.created_at,
		  pending = excluded.pending,
		  language = excluded.language,
		  template = excluded.template,
		  base_package = excluded.base_package,
		  workers = excluded.workers,
		  model = excluded.model,
		  prompt = excluded.prompt,
		  project_name = excluded.project_name
	`, rec.ID, rec.Title, createdAt, pending,
		rec.Request.Language, rec.Request.Template, rec.Request.BasePackage,
		rec.Request.WorkerCount, rec.Request.Model, rec.Request.Prompt,
		rec.Request.ProjectName)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", rec.ID, err)
	}
	return nil
}

// Replace atomically swaps a placeholder row for a server-confirmed one.
func (r *SQLiteRepository) Replace(ctx context.Context, oldID string, rec models.SessionRecord) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, oldID); err != nil {
			return fmt.Errorf("failed to replace session %s: %w", oldID, err)
		}
		return save(ctx, tx, rec)
	})
}

func (r *SQLiteRepository) Rename(ctx context.Context, id, title string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("failed to rename session %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}
