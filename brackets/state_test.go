package brackets

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"testing"
)

type memStore struct {
	blobs   map[string][]byte
	failSet bool
	failGet bool
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.failGet {
		return nil, errors.New("store unavailable")
	}
	return m.blobs[key], nil
}

func (m *memStore) Set(_ context.Context, key string, blob []byte) error {
	if m.failSet {
		return errors.New("store unavailable")
	}
	m.blobs[key] = blob
	return nil
}

func newTestState(t *testing.T) *BracketState {
	t.Helper()
	return NewBracketState(fullGraph(t), nil, "test", nil)
}

// pickFirstOccupant resolves a game's occupant A and picks it as winner.
func pickFirstOccupant(t *testing.T, s *BracketState, gameID string) int {
	t.Helper()
	a, _ := s.Occupants(gameID)
	if a == nil {
		t.Fatalf("game %s has no occupant to pick", gameID)
	}
	if !s.PickWinner(context.Background(), gameID, a.OptionID) {
		t.Fatalf("pick of %d in %s rejected", a.OptionID, gameID)
	}
	return a.OptionID
}

func TestPickWinnerRejectionLeavesStateUntouched(t *testing.T) {
	s := newTestState(t)
	winner := pickFirstOccupant(t, s, "East-R64-1")

	before := s.Winners()
	depthBefore := s.UndoDepth()

	cases := []struct {
		name   string
		gameID string
		teamID int
	}{
		{"team not an occupant", "East-R64-2", winner},
		{"unknown game", "East-R64-99", winner},
		{"internal game with one resolved occupant", "East-R32-1", winner},
		{"internal game with no resolved occupants", "CHAMP", winner},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if s.PickWinner(context.Background(), tc.gameID, tc.teamID) {
				t.Fatalf("invalid pick reported success")
			}
			if !maps.Equal(s.Winners(), before) {
				t.Fatalf("winner map changed on rejected pick")
			}
			if s.UndoDepth() != depthBefore {
				t.Fatalf("undo stack changed on rejected pick")
			}
		})
	}
}

func TestPickWinnerToggleSymmetry(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	w1 := pickFirstOccupant(t, s, "East-R64-1")
	w2 := pickFirstOccupant(t, s, "East-R64-2")
	if !s.PickWinner(ctx, "East-R32-1", w1) {
		t.Fatalf("pick in round of 32 rejected")
	}

	// Toggling both leaf picks off must clear everything downstream too.
	if !s.PickWinner(ctx, "East-R64-1", w1) {
		t.Fatalf("toggle rejected")
	}
	if !s.PickWinner(ctx, "East-R64-2", w2) {
		t.Fatalf("toggle rejected")
	}

	if len(s.Winners()) != 0 {
		t.Fatalf("expected empty winner map after toggles, got %v", s.Winners())
	}
}

func TestCascadingInvalidation(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	g1A, g1B := s.Occupants("East-R64-1")
	if !s.PickWinner(ctx, "East-R64-1", g1A.OptionID) {
		t.Fatalf("pick rejected")
	}
	for _, id := range []string{"East-R64-2", "East-R64-3", "East-R64-4"} {
		pickFirstOccupant(t, s, id)
	}
	if !s.PickWinner(ctx, "East-R32-1", g1A.OptionID) {
		t.Fatalf("downstream pick rejected")
	}
	pickFirstOccupant(t, s, "East-R32-2")
	pickFirstOccupant(t, s, "East-S16-1")

	// Re-picking a different winner for the leaf clears its whole subtree.
	if !s.PickWinner(ctx, "East-R64-1", g1B.OptionID) {
		t.Fatalf("re-pick rejected")
	}

	if w, ok := s.Winner("East-R64-1"); !ok || w != g1B.OptionID {
		t.Fatalf("leaf winner not replaced")
	}
	for _, id := range []string{"East-R32-1", "East-S16-1", "East-E8", "FF-1", "CHAMP"} {
		if _, ok := s.Winner(id); ok {
			t.Fatalf("game %s kept a stale winner after invalidation", id)
		}
	}
	// Sibling subtrees are untouched.
	for _, id := range []string{"East-R64-2", "East-R32-2"} {
		if _, ok := s.Winner(id); !ok {
			t.Fatalf("unrelated pick %s was invalidated", id)
		}
	}
}

func TestUndoCompleteness(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	picks := []string{"East-R64-1", "East-R64-2", "West-R64-1", "South-R64-5"}
	for _, id := range picks {
		pickFirstOccupant(t, s, id)
	}

	for i := len(picks); i > 0; i-- {
		if !s.Undo(ctx) {
			t.Fatalf("undo %d reported empty stack", i)
		}
	}
	if len(s.Winners()) != 0 {
		t.Fatalf("winner map not empty after full undo: %v", s.Winners())
	}
	if s.Undo(ctx) {
		t.Fatalf("undo on empty stack must be a no-op")
	}
}

func TestUndoStackEviction(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	a, b := s.Occupants("East-R64-1")
	// Alternate picks to exceed the undo capacity.
	for i := 0; i < UndoLimit+10; i++ {
		team := a.OptionID
		if i%2 == 1 {
			team = b.OptionID
		}
		if !s.PickWinner(ctx, "East-R64-1", team) {
			t.Fatalf("pick %d rejected", i)
		}
	}
	if s.UndoDepth() != UndoLimit {
		t.Fatalf("undo depth %d, want %d", s.UndoDepth(), UndoLimit)
	}
}

func TestChampionshipResolvesAcrossRegions(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	// Drive the East region champion all the way to the first final-four
	// game.
	for i := 1; i <= 8; i++ {
		pickFirstOccupant(t, s, fmt.Sprintf("East-R64-%d", i))
	}
	for _, id := range []string{"East-R32-1", "East-R32-2", "East-R32-3", "East-R32-4", "East-S16-1", "East-S16-2", "East-E8"} {
		a, _ := s.Occupants(id)
		if a == nil {
			t.Fatalf("game %s unresolved", id)
		}
		if !s.PickWinner(ctx, id, a.OptionID) {
			t.Fatalf("pick in %s rejected", id)
		}
	}

	// FF-1 now has its East side; West is still undecided.
	a, b := s.Occupants("FF-1")
	if a == nil {
		t.Fatalf("final four missing the East champion")
	}
	if b != nil {
		t.Fatalf("final four resolved a West champion that was never picked")
	}

	// Championship stays fully TBD until both final-four games resolve.
	a, b = s.Occupants("CHAMP")
	if a != nil || b != nil {
		t.Fatalf("championship resolved occupants prematurely")
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestState(t)
	pickFirstOccupant(t, s, "East-R64-1")
	pickFirstOccupant(t, s, "West-R64-3")
	want := s.Winners()

	restored := newTestState(t)
	restored.Restore(s.Snapshot())
	if !maps.Equal(restored.Winners(), want) {
		t.Fatalf("restored winners %v, want %v", restored.Winners(), want)
	}

	t.Run("unknown ids dropped", func(t *testing.T) {
		fresh := newTestState(t)
		fresh.Restore([]byte(`{"East-R64-1":1,"Ghost-R64-9":7}`))
		if _, ok := fresh.Winner("Ghost-R64-9"); ok {
			t.Fatalf("unknown game id restored")
		}
		if _, ok := fresh.Winner("East-R64-1"); !ok {
			t.Fatalf("known game id dropped")
		}
	})

	t.Run("malformed blob reads as empty", func(t *testing.T) {
		fresh := newTestState(t)
		fresh.Restore([]byte(`{not json`))
		if len(fresh.Winners()) != 0 {
			t.Fatalf("malformed blob produced state %v", fresh.Winners())
		}
	})
}

func TestPersistenceBestEffort(t *testing.T) {
	store := newMemStore()
	graph := fullGraph(t)
	s := NewBracketState(graph, store, "bracket:1:7", nil)
	ctx := context.Background()

	winner := pickFirstOccupant(t, s, "East-R64-1")

	// Reload a second machine from the store.
	s2 := NewBracketState(graph, store, "bracket:1:7", nil)
	if err := s2.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w, ok := s2.Winner("East-R64-1"); !ok || w != winner {
		t.Fatalf("persisted winner not restored, got %v", s2.Winners())
	}
	if s2.UndoDepth() != 1 {
		t.Fatalf("persisted undo depth %d, want 1", s2.UndoDepth())
	}

	// A failing store must not block or roll back the in-memory pick.
	store.failSet = true
	if !s.PickWinner(ctx, "East-R64-2", mustOccupantA(t, s, "East-R64-2")) {
		t.Fatalf("pick rejected because persistence failed")
	}
	if _, ok := s.Winner("East-R64-2"); !ok {
		t.Fatalf("in-memory winner lost on persistence failure")
	}

	// Store read failures surface as errors without touching state.
	store.failGet = true
	if err := s2.Load(ctx); err == nil {
		t.Fatalf("expected load error from failing store")
	}
}

func mustOccupantA(t *testing.T, s *BracketState, gameID string) int {
	t.Helper()
	a, _ := s.Occupants(gameID)
	if a == nil {
		t.Fatalf("game %s has no occupant", gameID)
	}
	return a.OptionID
}
