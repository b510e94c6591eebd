package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/adilzhm/pickbracket/brackets"
	"github.com/adilzhm/pickbracket/models"
	"github.com/adilzhm/pickbracket/repositories"
)

// SessionInvalidator drops cached bracket sessions after the vote set of a
// poll changes, forcing the next load to reseed.
type SessionInvalidator interface {
	InvalidatePoll(pollID int)
}

type VoteService interface {
	// SubmitBallot replaces the voter's ranked ballot for the poll. ranks
	// maps option id to rank 1..5.
	SubmitBallot(ctx context.Context, pollID, voterID int, ranks map[int]int) error
}

type voteService struct {
	pollRepo    repositories.PollRepository
	optionRepo  repositories.OptionRepository
	voteRepo    repositories.VoteRepository
	invalidator SessionInvalidator
}

func NewVoteService(
	pollRepo repositories.PollRepository,
	optionRepo repositories.OptionRepository,
	voteRepo repositories.VoteRepository,
	invalidator SessionInvalidator,
) VoteService {
	return &voteService{
		pollRepo:    pollRepo,
		optionRepo:  optionRepo,
		voteRepo:    voteRepo,
		invalidator: invalidator,
	}
}

func (s *voteService) SubmitBallot(ctx context.Context, pollID, voterID int, ranks map[int]int) error {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, repositories.ErrPollNotFound) {
			return ErrPollNotFound
		}
		return err
	}
	if poll.Status != models.PollStatusOpen {
		return ErrPollClosed
	}

	if len(ranks) == 0 {
		return fmt.Errorf("%w: ballot is empty", ErrValidationFailed)
	}
	if len(ranks) > brackets.MaxRank {
		return ErrBallotTooLarge
	}
	usedRanks := make(map[int]bool, len(ranks))
	for _, rank := range ranks {
		if rank < brackets.MinRank || rank > brackets.MaxRank {
			return ErrBallotRankInvalid
		}
		if usedRanks[rank] {
			return ErrBallotRankReused
		}
		usedRanks[rank] = true
	}

	options, err := s.optionRepo.ListByPoll(ctx, pollID)
	if err != nil {
		return fmt.Errorf("failed to list poll options: %w", err)
	}
	known := make(map[int]bool, len(options))
	for _, option := range options {
		known[option.ID] = true
	}
	for optionID := range ranks {
		if !known[optionID] {
			return ErrBallotOptionForeign
		}
	}

	if err := s.voteRepo.ReplaceBallot(ctx, pollID, voterID, ranks); err != nil {
		return fmt.Errorf("failed to store ballot: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidatePoll(pollID)
	}
	return nil
}
