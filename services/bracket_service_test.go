package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/adilzhm/pickbracket/brackets"
	"github.com/adilzhm/pickbracket/models"
	"github.com/adilzhm/pickbracket/repositories"
)

type fakePollRepo struct {
	polls map[int]*models.Poll
}

func (f *fakePollRepo) Create(ctx context.Context, poll *models.Poll) error {
	return errors.New("not implemented")
}

func (f *fakePollRepo) GetByID(ctx context.Context, id int) (*models.Poll, error) {
	poll, ok := f.polls[id]
	if !ok {
		return nil, repositories.ErrPollNotFound
	}
	return poll, nil
}

func (f *fakePollRepo) List(ctx context.Context) ([]*models.Poll, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePollRepo) UpdateStatus(ctx context.Context, id int, status models.PollStatus) error {
	poll, ok := f.polls[id]
	if !ok {
		return repositories.ErrPollNotFound
	}
	poll.Status = status
	return nil
}

type fakeOptionRepo struct {
	options map[int][]*models.Option
	fail    bool
}

func (f *fakeOptionRepo) Create(ctx context.Context, option *models.Option) error {
	return errors.New("not implemented")
}

func (f *fakeOptionRepo) GetByID(ctx context.Context, id int) (*models.Option, error) {
	for _, options := range f.options {
		for _, option := range options {
			if option.ID == id {
				return option, nil
			}
		}
	}
	return nil, repositories.ErrOptionNotFound
}

func (f *fakeOptionRepo) ListByPoll(ctx context.Context, pollID int) ([]*models.Option, error) {
	if f.fail {
		return nil, errors.New("options unavailable")
	}
	return f.options[pollID], nil
}

func (f *fakeOptionRepo) UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error {
	return errors.New("not implemented")
}

func (f *fakeOptionRepo) Delete(ctx context.Context, id int) error {
	return errors.New("not implemented")
}

type fakeVoteRepo struct {
	votes   map[int][]*models.VoteWithAttendance
	ballots []map[int]int
}

func (f *fakeVoteRepo) ReplaceBallot(ctx context.Context, pollID, voterID int, ranks map[int]int) error {
	f.ballots = append(f.ballots, ranks)
	return nil
}

func (f *fakeVoteRepo) ListByPoll(ctx context.Context, pollID int) ([]*models.VoteWithAttendance, error) {
	return f.votes[pollID], nil
}

type memStateStore struct {
	blobs map[string][]byte
}

func newMemStateStore() *memStateStore {
	return &memStateStore{blobs: make(map[string][]byte)}
}

func (m *memStateStore) Get(ctx context.Context, key string) ([]byte, error) {
	return m.blobs[key], nil
}

func (m *memStateStore) Set(ctx context.Context, key string, blob []byte) error {
	m.blobs[key] = blob
	return nil
}

const testPollID = 7

// fullField builds a poll with enough options for a complete bracket. With
// no votes the standings order falls back to title ascending, so option n
// carries overall rank n.
func fullField() (*fakePollRepo, *fakeOptionRepo, *fakeVoteRepo) {
	pollRepo := &fakePollRepo{polls: map[int]*models.Poll{
		testPollID: {ID: testPollID, Name: "best act", EventKey: "campfest", Status: models.PollStatusOpen},
	}}

	count := brackets.RegionCount * brackets.SeedsPerRegion
	options := make([]*models.Option, 0, count)
	for i := 1; i <= count; i++ {
		options = append(options, &models.Option{
			ID:     i,
			PollID: testPollID,
			Title:  fmt.Sprintf("t%02d", i),
		})
	}
	optionRepo := &fakeOptionRepo{options: map[int][]*models.Option{testPollID: options}}
	voteRepo := &fakeVoteRepo{votes: map[int][]*models.VoteWithAttendance{}}
	return pollRepo, optionRepo, voteRepo
}

func strPtr(s string) *string { return &s }

func TestStandingsAttendanceWeighting(t *testing.T) {
	pollRepo := &fakePollRepo{polls: map[int]*models.Poll{
		testPollID: {ID: testPollID, Name: "best act", EventKey: "campfest", Status: models.PollStatusOpen},
	}}
	optionRepo := &fakeOptionRepo{options: map[int][]*models.Option{
		testPollID: {{ID: 1, PollID: testPollID, Title: "alpha"}},
	}}
	voteRepo := &fakeVoteRepo{votes: map[int][]*models.VoteWithAttendance{
		testPollID: {
			{Vote: models.Vote{OptionID: 1, Rank: 1}, AttendedEvents: strPtr("campfest,expo")},
			{Vote: models.Vote{OptionID: 1, Rank: 1}, AttendedEvents: nil},
		},
	}}

	svc := NewBracketService(pollRepo, optionRepo, voteRepo, newMemStateStore(), nil, nil)

	entries, err := svc.Standings(context.Background(), testPollID)
	if err != nil {
		t.Fatalf("Standings returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	// Attendee counts full, the other voter counts half.
	if entries[0].Votes != 1.5 {
		t.Errorf("votes = %v, want 1.5", entries[0].Votes)
	}
	if entries[0].AvgPoints == nil || *entries[0].AvgPoints != 5 {
		t.Errorf("avgPoints = %v, want 5", entries[0].AvgPoints)
	}
}

func TestStandingsUnknownPoll(t *testing.T) {
	pollRepo, optionRepo, voteRepo := fullField()
	svc := NewBracketService(pollRepo, optionRepo, voteRepo, newMemStateStore(), nil, nil)

	if _, err := svc.Standings(context.Background(), 999); !errors.Is(err, ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound, got %v", err)
	}
}

func TestGetBracketShape(t *testing.T) {
	pollRepo, optionRepo, voteRepo := fullField()
	svc := NewBracketService(pollRepo, optionRepo, voteRepo, newMemStateStore(), nil, nil)

	view, err := svc.GetBracket(context.Background(), testPollID, 1)
	if err != nil {
		t.Fatalf("GetBracket returned error: %v", err)
	}
	if len(view.Games) != 63 {
		t.Fatalf("expected 63 games, got %d", len(view.Games))
	}
	if view.UndoDepth != 0 {
		t.Errorf("fresh bracket undo depth = %d, want 0", view.UndoDepth)
	}

	// Seed 1 of the first region is the title-ascending leader.
	for _, game := range view.Games {
		if game.ID != "East-R64-1" {
			continue
		}
		if game.TeamA == nil || game.TeamA.Title != "t01" {
			t.Errorf("East-R64-1 team A = %+v, want t01", game.TeamA)
		}
		if game.TeamB == nil || game.TeamB.Title != "t61" {
			t.Errorf("East-R64-1 team B = %+v, want t61", game.TeamB)
		}
		return
	}
	t.Fatal("East-R64-1 not found in bracket view")
}

func TestPickAppliedAndPersisted(t *testing.T) {
	pollRepo, optionRepo, voteRepo := fullField()
	store := newMemStateStore()
	svc := NewBracketService(pollRepo, optionRepo, voteRepo, store, nil, nil)

	view, err := svc.GetBracket(context.Background(), testPollID, 1)
	if err != nil {
		t.Fatalf("GetBracket returned error: %v", err)
	}
	teamID := 0
	for _, game := range view.Games {
		if game.ID == "East-R64-1" {
			teamID = game.TeamA.OptionID
		}
	}

	result, err := svc.Pick(context.Background(), testPollID, 1, "East-R64-1", teamID)
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if !result.Applied {
		t.Fatal("expected pick to be applied")
	}
	if result.Bracket.UndoDepth != 1 {
		t.Errorf("undo depth after pick = %d, want 1", result.Bracket.UndoDepth)
	}

	// A second service over the same store restores the pick.
	svc2 := NewBracketService(pollRepo, optionRepo, voteRepo, store, nil, nil)
	view2, err := svc2.GetBracket(context.Background(), testPollID, 1)
	if err != nil {
		t.Fatalf("GetBracket on restored service returned error: %v", err)
	}
	for _, game := range view2.Games {
		if game.ID == "East-R64-1" {
			if game.Winner == nil || *game.Winner != teamID {
				t.Errorf("restored winner = %v, want %d", game.Winner, teamID)
			}
			return
		}
	}
	t.Fatal("East-R64-1 not found in restored view")
}

func TestPickInvalidGameIsNoOp(t *testing.T) {
	pollRepo, optionRepo, voteRepo := fullField()
	svc := NewBracketService(pollRepo, optionRepo, voteRepo, newMemStateStore(), nil, nil)

	tests := []struct {
		name   string
		gameID string
		teamID int
	}{
		{"unknown game", "East-R64-99", 1},
		{"unresolved occupants", "East-R32-1", 1},
		{"foreign team", "East-R64-1", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Pick(context.Background(), testPollID, 1, tt.gameID, tt.teamID)
			if err != nil {
				t.Fatalf("Pick returned error: %v", err)
			}
			if result.Applied {
				t.Error("expected pick to be rejected")
			}
			if result.Bracket.UndoDepth != 0 {
				t.Errorf("rejected pick grew undo stack to %d", result.Bracket.UndoDepth)
			}
		})
	}
}

func TestUndoRoundTrip(t *testing.T) {
	pollRepo, optionRepo, voteRepo := fullField()
	svc := NewBracketService(pollRepo, optionRepo, voteRepo, newMemStateStore(), nil, nil)

	if _, err := svc.Pick(context.Background(), testPollID, 1, "East-R64-1", 1); err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}

	result, err := svc.Undo(context.Background(), testPollID, 1)
	if err != nil {
		t.Fatalf("Undo returned error: %v", err)
	}
	if !result.Applied {
		t.Fatal("expected undo to be applied")
	}
	for _, game := range result.Bracket.Games {
		if game.Winner != nil {
			t.Errorf("game %s still has a winner after undo", game.ID)
		}
	}

	empty, err := svc.Undo(context.Background(), testPollID, 1)
	if err != nil {
		t.Fatalf("Undo on empty stack returned error: %v", err)
	}
	if empty.Applied {
		t.Error("undo on empty stack reported applied")
	}
}

func TestInvalidatePollRebuildsSession(t *testing.T) {
	pollRepo, optionRepo, voteRepo := fullField()
	store := newMemStateStore()
	svc := NewBracketService(pollRepo, optionRepo, voteRepo, store, nil, nil)

	if _, err := svc.Pick(context.Background(), testPollID, 1, "East-R64-1", 1); err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}

	svc.InvalidatePoll(testPollID)

	// The rebuilt session restores the persisted pick by game id.
	view, err := svc.GetBracket(context.Background(), testPollID, 1)
	if err != nil {
		t.Fatalf("GetBracket after invalidation returned error: %v", err)
	}
	for _, game := range view.Games {
		if game.ID == "East-R64-1" {
			if game.Winner == nil || *game.Winner != 1 {
				t.Errorf("winner after rebuild = %v, want 1", game.Winner)
			}
			return
		}
	}
	t.Fatal("East-R64-1 not found after rebuild")
}

func TestSessionLoadFailureKeepsPreviousSession(t *testing.T) {
	pollRepo, optionRepo, voteRepo := fullField()
	svc := NewBracketService(pollRepo, optionRepo, voteRepo, newMemStateStore(), nil, nil)

	if _, err := svc.Pick(context.Background(), testPollID, 1, "East-R64-1", 1); err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}

	svc.InvalidatePoll(testPollID)
	optionRepo.fail = true

	if _, err := svc.GetBracket(context.Background(), testPollID, 1); err == nil {
		t.Fatal("expected error when option load fails")
	}

	// Recovery works once the repository is healthy again.
	optionRepo.fail = false
	if _, err := svc.GetBracket(context.Background(), testPollID, 1); err != nil {
		t.Fatalf("GetBracket after recovery returned error: %v", err)
	}
}
