package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/adilzhm/pickbracket/brackets"
	"github.com/adilzhm/pickbracket/models"
	"github.com/adilzhm/pickbracket/repositories"
	"golang.org/x/sync/errgroup"
)

// GameView is one game of the rendered bracket: resolved occupants (nil
// means "TBD") plus the recorded winner, if any.
type GameView struct {
	ID     string               `json:"id"`
	Round  brackets.RoundType   `json:"round"`
	Region string               `json:"region,omitempty"`
	TeamA  *brackets.SeededTeam `json:"team_a"`
	TeamB  *brackets.SeededTeam `json:"team_b"`
	Winner *int                 `json:"winner_id,omitempty"`
}

type BracketView struct {
	PollID    int        `json:"poll_id"`
	UserID    int        `json:"user_id"`
	Games     []GameView `json:"games"`
	UndoDepth int        `json:"undo_depth"`
}

type PickResult struct {
	// Applied reports whether the pick or undo changed any state. Invalid
	// picks degrade to a no-op rather than an error.
	Applied bool         `json:"applied"`
	Bracket *BracketView `json:"bracket"`
}

type BracketService interface {
	// Standings recomputes the scored, rank-ordered entries from the
	// current vote set. Never cached.
	Standings(ctx context.Context, pollID int) ([]brackets.ScoredEntry, error)
	GetBracket(ctx context.Context, pollID, userID int) (*BracketView, error)
	Pick(ctx context.Context, pollID, userID int, gameID string, teamID int) (*PickResult, error)
	Undo(ctx context.Context, pollID, userID int) (*PickResult, error)
	// InvalidatePoll drops every cached session of the poll so the next
	// access reseeds from fresh votes. Persisted winner picks survive the
	// rebuild by game-id key matching.
	InvalidatePoll(pollID int)
}

type bracketService struct {
	pollRepo   repositories.PollRepository
	optionRepo repositories.OptionRepository
	voteRepo   repositories.VoteRepository
	store      brackets.StateStore
	hub        *brackets.Hub
	logger     *slog.Logger

	// sessions caches one state machine per (poll, user). The mutex only
	// guards the registry; each state machine is mutated by its single
	// owning session.
	mu       sync.Mutex
	sessions map[string]*brackets.BracketState
}

func NewBracketService(
	pollRepo repositories.PollRepository,
	optionRepo repositories.OptionRepository,
	voteRepo repositories.VoteRepository,
	store brackets.StateStore,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		pollRepo:   pollRepo,
		optionRepo: optionRepo,
		voteRepo:   voteRepo,
		store:      store,
		hub:        hub,
		logger:     logger,
		sessions:   make(map[string]*brackets.BracketState),
	}
}

// SessionKey is the persistence and broadcast key of one user's bracket for
// one poll.
func SessionKey(pollID, userID int) string {
	return fmt.Sprintf("bracket:%d:%d", pollID, userID)
}

func (s *bracketService) Standings(ctx context.Context, pollID int) ([]brackets.ScoredEntry, error) {
	if _, err := s.pollRepo.GetByID(ctx, pollID); err != nil {
		if errors.Is(err, repositories.ErrPollNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	candidates, records, err := s.loadVoteData(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return brackets.AggregateScores(candidates, records), nil
}

func (s *bracketService) GetBracket(ctx context.Context, pollID, userID int) (*BracketView, error) {
	state, err := s.session(ctx, pollID, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(pollID, userID, state), nil
}

func (s *bracketService) Pick(ctx context.Context, pollID, userID int, gameID string, teamID int) (*PickResult, error) {
	state, err := s.session(ctx, pollID, userID)
	if err != nil {
		return nil, err
	}
	applied := state.PickWinner(ctx, gameID, teamID)
	view := s.buildView(pollID, userID, state)
	if applied {
		s.broadcast(pollID, userID, view)
	}
	return &PickResult{Applied: applied, Bracket: view}, nil
}

func (s *bracketService) Undo(ctx context.Context, pollID, userID int) (*PickResult, error) {
	state, err := s.session(ctx, pollID, userID)
	if err != nil {
		return nil, err
	}
	applied := state.Undo(ctx)
	view := s.buildView(pollID, userID, state)
	if applied {
		s.broadcast(pollID, userID, view)
	}
	return &PickResult{Applied: applied, Bracket: view}, nil
}

func (s *bracketService) InvalidatePoll(pollID int) {
	prefix := fmt.Sprintf("bracket:%d:", pollID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.sessions {
		if strings.HasPrefix(key, prefix) {
			delete(s.sessions, key)
		}
	}
}

// session returns the cached state machine for the key, or builds one from
// the current vote set. A failed build or load registers nothing: a
// previously cached session stays reachable and untouched.
func (s *bracketService) session(ctx context.Context, pollID, userID int) (*brackets.BracketState, error) {
	key := SessionKey(pollID, userID)

	s.mu.Lock()
	state, ok := s.sessions[key]
	s.mu.Unlock()
	if ok {
		return state, nil
	}

	if _, err := s.pollRepo.GetByID(ctx, pollID); err != nil {
		if errors.Is(err, repositories.ErrPollNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	candidates, records, err := s.loadVoteData(ctx, pollID)
	if err != nil {
		return nil, err
	}

	entries := brackets.AggregateScores(candidates, records)
	graph, err := brackets.BuildGraph(brackets.SeedRegions(entries))
	if err != nil {
		return nil, fmt.Errorf("failed to build bracket graph for poll %d: %w", pollID, err)
	}

	state = brackets.NewBracketState(graph, s.store, key, s.logger)
	if err := state.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load persisted bracket state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have built the session meanwhile; keep the first.
	if existing, ok := s.sessions[key]; ok {
		return existing, nil
	}
	s.sessions[key] = state
	return state, nil
}

// loadVoteData fetches the option universe and the vote set concurrently
// and converts votes into weighted records against the poll's event key.
func (s *bracketService) loadVoteData(ctx context.Context, pollID int) ([]brackets.Candidate, []brackets.VoteRecord, error) {
	var (
		poll    *models.Poll
		options []*models.Option
		votes   []*models.VoteWithAttendance
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		poll, err = s.pollRepo.GetByID(gCtx, pollID)
		return err
	})
	g.Go(func() error {
		var err error
		options, err = s.optionRepo.ListByPoll(gCtx, pollID)
		return err
	})
	g.Go(func() error {
		var err error
		votes, err = s.voteRepo.ListByPoll(gCtx, pollID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load vote data for poll %d: %w", pollID, err)
	}

	candidates := make([]brackets.Candidate, 0, len(options))
	for _, option := range options {
		candidates = append(candidates, brackets.Candidate{ID: option.ID, Title: option.Title})
	}

	records := make([]brackets.VoteRecord, 0, len(votes))
	for _, vote := range votes {
		weight := 0.5
		if vote.AttendedEvents != nil && models.ParseAttendance(*vote.AttendedEvents).Contains(poll.EventKey) {
			weight = 1.0
		}
		records = append(records, brackets.VoteRecord{
			OptionID: vote.OptionID,
			Rank:     vote.Rank,
			Weight:   weight,
		})
	}
	return candidates, records, nil
}

func (s *bracketService) buildView(pollID, userID int, state *brackets.BracketState) *BracketView {
	graph := state.Graph()
	games := graph.Games()
	view := &BracketView{
		PollID:    pollID,
		UserID:    userID,
		Games:     make([]GameView, 0, len(games)),
		UndoDepth: state.UndoDepth(),
	}
	for _, game := range games {
		a, b := state.Occupants(game.ID)
		gv := GameView{
			ID:     game.ID,
			Round:  game.Round,
			Region: game.Region,
			TeamA:  a,
			TeamB:  b,
		}
		if w, ok := state.Winner(game.ID); ok {
			winner := w
			gv.Winner = &winner
		}
		view.Games = append(view.Games, gv)
	}
	return view
}

func (s *bracketService) broadcast(pollID, userID int, view *BracketView) {
	if s.hub == nil {
		return
	}
	room := SessionKey(pollID, userID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    "BRACKET_UPDATED",
		Payload: view,
		RoomID:  room,
	})
}
