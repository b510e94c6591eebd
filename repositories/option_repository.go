package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adilzhm/pickbracket/models"
	"github.com/lib/pq"
)

var (
	ErrOptionNotFound      = errors.New("option not found")
	ErrOptionPollInvalid   = errors.New("option references unknown poll")
	ErrOptionTitleConflict = errors.New("option title conflict within poll")
)

type OptionRepository interface {
	Create(ctx context.Context, option *models.Option) error
	GetByID(ctx context.Context, id int) (*models.Option, error)
	ListByPoll(ctx context.Context, pollID int) ([]*models.Option, error)
	UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresOptionRepository struct {
	db *sql.DB
}

func NewPostgresOptionRepository(db *sql.DB) OptionRepository {
	return &postgresOptionRepository{db: db}
}

func (r *postgresOptionRepository) Create(ctx context.Context, option *models.Option) error {
	query := `
		INSERT INTO options (poll_id, title)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, option.PollID, option.Title).
		Scan(&option.ID, &option.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "options_poll_id_title_key" {
					return ErrOptionTitleConflict
				}
			case "23503":
				if pqErr.Constraint == "options_poll_id_fkey" {
					return ErrOptionPollInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresOptionRepository) GetByID(ctx context.Context, id int) (*models.Option, error) {
	query := `
		SELECT id, poll_id, title, photo_key, created_at
		FROM options
		WHERE id = $1`

	option := &models.Option{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&option.ID, &option.PollID, &option.Title, &option.PhotoKey, &option.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOptionNotFound
		}
		return nil, err
	}
	return option, nil
}

func (r *postgresOptionRepository) ListByPoll(ctx context.Context, pollID int) ([]*models.Option, error) {
	query := `
		SELECT id, poll_id, title, photo_key, created_at
		FROM options
		WHERE poll_id = $1
		ORDER BY title ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := make([]*models.Option, 0)
	for rows.Next() {
		option := &models.Option{}
		if err := rows.Scan(&option.ID, &option.PollID, &option.Title, &option.PhotoKey, &option.CreatedAt); err != nil {
			return nil, err
		}
		options = append(options, option)
	}
	return options, rows.Err()
}

func (r *postgresOptionRepository) UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE options SET photo_key = $1 WHERE id = $2`, photoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrOptionNotFound)
}

func (r *postgresOptionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM options WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrOptionNotFound)
}
