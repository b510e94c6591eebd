package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adilzhm/pickbracket/models"
	"github.com/lib/pq"
)

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrPollNameConflict = errors.New("poll name conflict")
)

type PollRepository interface {
	Create(ctx context.Context, poll *models.Poll) error
	GetByID(ctx context.Context, id int) (*models.Poll, error)
	List(ctx context.Context) ([]*models.Poll, error)
	UpdateStatus(ctx context.Context, id int, status models.PollStatus) error
}

type postgresPollRepository struct {
	db *sql.DB
}

func NewPostgresPollRepository(db *sql.DB) PollRepository {
	return &postgresPollRepository{db: db}
}

func (r *postgresPollRepository) Create(ctx context.Context, poll *models.Poll) error {
	query := `
		INSERT INTO polls (name, event_key, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, poll.Name, poll.EventKey, poll.Status).
		Scan(&poll.ID, &poll.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "polls_name_key" {
				return ErrPollNameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresPollRepository) GetByID(ctx context.Context, id int) (*models.Poll, error) {
	query := `
		SELECT id, name, event_key, status, created_at
		FROM polls
		WHERE id = $1`

	poll := &models.Poll{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&poll.ID, &poll.Name, &poll.EventKey, &poll.Status, &poll.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return poll, nil
}

func (r *postgresPollRepository) List(ctx context.Context) ([]*models.Poll, error) {
	query := `
		SELECT id, name, event_key, status, created_at
		FROM polls
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := make([]*models.Poll, 0)
	for rows.Next() {
		poll := &models.Poll{}
		if err := rows.Scan(&poll.ID, &poll.Name, &poll.EventKey, &poll.Status, &poll.CreatedAt); err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	return polls, rows.Err()
}

func (r *postgresPollRepository) UpdateStatus(ctx context.Context, id int, status models.PollStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE polls SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPollNotFound)
}
