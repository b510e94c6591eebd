package repositories

import (
	"context"
	"database/sql"
	"errors"
)

// StateRepository is the durable blob store behind brackets.StateStore:
// opaque get/set keyed per bracket session. A missing key reads as an empty
// blob, never as an error.
type StateRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
}

type postgresStateRepository struct {
	db *sql.DB
}

func NewPostgresStateRepository(db *sql.DB) StateRepository {
	return &postgresStateRepository{db: db}
}

func (r *postgresStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT blob FROM bracket_states WHERE key = $1`, key).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return blob, nil
}

func (r *postgresStateRepository) Set(ctx context.Context, key string, blob []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bracket_states (key, blob, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()`,
		key, blob)
	return err
}
