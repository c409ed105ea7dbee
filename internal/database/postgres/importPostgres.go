package postgres

import (
	"context"
	"database/sql"

	"github.com/ds124wfegd/course-import/internal/entity"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type ImportRepository struct {
	db *sql.DB
}

func NewImportRepository(db *sql.DB) ImportRepositoryInterface {
	return &ImportRepository{db: db}
}

func (r *ImportRepository) Record(ctx context.Context, event entity.ImportEvent) error {
	query := `INSERT INTO course_imports (id, source_url, title, status, candidates, published, failed, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.SourceURL, event.Title, event.Status,
		event.Candidates, event.Published, event.Failed, event.DurationMS, event.CreatedAt,
	)
	return err
}

func (r *ImportRepository) Recent(ctx context.Context, limit int) ([]entity.ImportEvent, error) {
	limit = clampLimit(limit)
	query := `SELECT id, source_url, title, status, candidates, published, failed, duration_ms, created_at
		FROM course_imports ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []entity.ImportEvent{}
	for rows.Next() {
		var e entity.ImportEvent
		err := rows.Scan(&e.ID, &e.SourceURL, &e.Title, &e.Status, &e.Candidates, &e.Published, &e.Failed, &e.DurationMS, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	}
	return limit
}
