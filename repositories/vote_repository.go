package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adilzhm/pickbracket/models"
	"github.com/lib/pq"
)

var (
	ErrVoteOptionInvalid = errors.New("vote references unknown option")
	ErrVoteVoterInvalid  = errors.New("vote references unknown voter")
)

type VoteRepository interface {
	// ReplaceBallot atomically replaces the voter's ranked ballot for a
	// poll. ranks maps option id to rank.
	ReplaceBallot(ctx context.Context, pollID, voterID int, ranks map[int]int) error
	// ListByPoll returns every vote of a poll joined with the voter's raw
	// attendance value.
	ListByPoll(ctx context.Context, pollID int) ([]*models.VoteWithAttendance, error)
}

type postgresVoteRepository struct {
	db *sql.DB
}

func NewPostgresVoteRepository(db *sql.DB) VoteRepository {
	return &postgresVoteRepository{db: db}
}

func (r *postgresVoteRepository) ReplaceBallot(ctx context.Context, pollID, voterID int, ranks map[int]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ballot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM votes WHERE poll_id = $1 AND voter_id = $2`, pollID, voterID); err != nil {
		return err
	}

	for optionID, rank := range ranks {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO votes (poll_id, option_id, voter_id, rank) VALUES ($1, $2, $3, $4)`,
			pollID, optionID, voterID, rank)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				switch pqErr.Constraint {
				case "votes_option_id_fkey":
					return ErrVoteOptionInvalid
				case "votes_voter_id_fkey":
					return ErrVoteVoterInvalid
				}
			}
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresVoteRepository) ListByPoll(ctx context.Context, pollID int) ([]*models.VoteWithAttendance, error) {
	query := `
		SELECT v.id, v.poll_id, v.option_id, v.voter_id, v.rank, v.created_at, u.attended_events
		FROM votes v
		JOIN users u ON u.id = v.voter_id
		WHERE v.poll_id = $1`

	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := make([]*models.VoteWithAttendance, 0)
	for rows.Next() {
		v := &models.VoteWithAttendance{}
		err := rows.Scan(&v.ID, &v.PollID, &v.OptionID, &v.VoterID, &v.Rank, &v.CreatedAt, &v.AttendedEvents)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
