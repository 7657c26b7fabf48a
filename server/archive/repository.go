package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Archive(ctx context.Context, entity *Entity) error
	All(ctx context.Context) ([]Entity, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS archive (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	title      TEXT NOT NULL,
	source     TEXT NOT NULL,
	format     TEXT NOT NULL,
	path       TEXT NOT NULL,
	filesize   INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

type sqlRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) (Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &sqlRepository{db: db}, nil
}

// Archive implements Repository.
func (r *sqlRepository) Archive(ctx context.Context, entity *Entity) error {
	if entity.Id == "" {
		entity.Id = uuid.NewString()
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO archive (id, job_id, title, source, format, path, filesize, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entity.Id,
		entity.JobId,
		entity.Title,
		entity.Source,
		entity.Format,
		entity.Path,
		entity.Filesize,
		entity.CreatedAt,
	)

	return err
}

// All implements Repository.
func (r *sqlRepository) All(ctx context.Context) ([]Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, job_id, title, source, format, path, filesize, created_at
		 FROM archive ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := make([]Entity, 0)

	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.Id, &e.JobId, &e.Title, &e.Source, &e.Format, &e.Path, &e.Filesize, &e.CreatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	return entities, rows.Err()
}
