package brackets

import (
	"context"
	"encoding/json"
	"log/slog"
)

// UndoLimit bounds the undo stack. The oldest snapshot is evicted when a new
// pick would exceed it.
const UndoLimit = 50

// StateStore is the persistence collaborator: an opaque blob store keyed per
// bracket session. Implementations live outside this package.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
}

// BracketState is the pick/undo/invalidate machine over one graph. It is
// owned by exactly one session at a time and does no locking; callers must
// not mutate it from more than one goroutine.
type BracketState struct {
	graph   *Graph
	winners map[string]int
	undo    []map[string]int

	store    StateStore
	stateKey string
	undoKey  string
	logger   *slog.Logger
}

// NewBracketState builds an empty state machine over graph. store may be nil
// for purely in-memory use; otherwise winners and the undo stack are written
// under sessionKey-derived keys on every mutation, best effort.
func NewBracketState(graph *Graph, store StateStore, sessionKey string, logger *slog.Logger) *BracketState {
	if logger == nil {
		logger = slog.Default()
	}
	return &BracketState{
		graph:    graph,
		winners:  make(map[string]int),
		store:    store,
		stateKey: sessionKey + ":winners",
		undoKey:  sessionKey + ":undo",
		logger:   logger,
	}
}

// Graph returns the immutable game graph this state runs over.
func (s *BracketState) Graph() *Graph {
	return s.graph
}

// Winner returns the recorded winner of a game, if any.
func (s *BracketState) Winner(gameID string) (int, bool) {
	w, ok := s.winners[gameID]
	return w, ok
}

// Winners returns a copy of the full winner map.
func (s *BracketState) Winners() map[string]int {
	return copyWinners(s.winners)
}

// UndoDepth returns the number of snapshots available to Undo.
func (s *BracketState) UndoDepth() int {
	return len(s.undo)
}

// Occupants resolves the current occupants of a game against the recorded
// winners.
func (s *BracketState) Occupants(gameID string) (a, b *SeededTeam) {
	return s.graph.Occupants(gameID, s.winners)
}

// PickWinner records teamID as the winner of gameID. Picking the recorded
// winner again toggles it off. Every transitive dependent of the game is
// cleared in the same logical step. The call reports false and changes
// nothing when the game has fewer than two resolved occupants or teamID is
// not one of them.
func (s *BracketState) PickWinner(ctx context.Context, gameID string, teamID int) bool {
	a, b := s.graph.Occupants(gameID, s.winners)
	if a == nil || b == nil {
		return false
	}
	if teamID != a.OptionID && teamID != b.OptionID {
		return false
	}

	s.pushUndo()
	if current, ok := s.winners[gameID]; ok && current == teamID {
		delete(s.winners, gameID)
	} else {
		s.winners[gameID] = teamID
	}
	s.invalidateDependents(gameID)
	s.persist(ctx)
	return true
}

// Undo replaces the winner map with the most recent snapshot. Reports false
// on an empty stack.
func (s *BracketState) Undo(ctx context.Context) bool {
	if len(s.undo) == 0 {
		return false
	}
	s.winners = s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.persist(ctx)
	return true
}

// invalidateDependents clears the winner of every transitive dependent of
// gameID. Pure clearing, idempotent; never pushes undo snapshots.
func (s *BracketState) invalidateDependents(gameID string) {
	for _, dep := range s.graph.Dependents(gameID) {
		delete(s.winners, dep)
		s.invalidateDependents(dep)
	}
}

func (s *BracketState) pushUndo() {
	if len(s.undo) >= UndoLimit {
		s.undo = s.undo[1:]
	}
	s.undo = append(s.undo, copyWinners(s.winners))
}

// Snapshot serializes the winner map for persistence.
func (s *BracketState) Snapshot() []byte {
	blob, err := json.Marshal(s.winners)
	if err != nil {
		s.logger.Error("failed to marshal bracket winners", slog.Any("error", err))
		return nil
	}
	return blob
}

// Restore overwrites the winner map from a persisted blob. Ids unknown to
// the current graph are dropped; a malformed blob reads as empty state.
func (s *BracketState) Restore(blob []byte) {
	s.winners = s.decodeWinners(blob)
}

// HistorySnapshot serializes the undo stack for persistence.
func (s *BracketState) HistorySnapshot() []byte {
	blob, err := json.Marshal(s.undo)
	if err != nil {
		s.logger.Error("failed to marshal undo stack", slog.Any("error", err))
		return nil
	}
	return blob
}

// RestoreHistory overwrites the undo stack from a persisted blob, keeping at
// most the newest UndoLimit snapshots.
func (s *BracketState) RestoreHistory(blob []byte) {
	s.undo = nil
	if len(blob) == 0 {
		return
	}
	var raw []map[string]int
	if err := json.Unmarshal(blob, &raw); err != nil {
		s.logger.Warn("discarding malformed undo stack blob", slog.Any("error", err))
		return
	}
	if len(raw) > UndoLimit {
		raw = raw[len(raw)-UndoLimit:]
	}
	for _, snap := range raw {
		s.undo = append(s.undo, s.filterKnown(snap))
	}
}

// Load reads both persisted blobs for this session. Missing or malformed
// blobs read as empty state; only store I/O failures are reported.
func (s *BracketState) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	stateBlob, err := s.store.Get(ctx, s.stateKey)
	if err != nil {
		return err
	}
	undoBlob, err := s.store.Get(ctx, s.undoKey)
	if err != nil {
		return err
	}
	s.Restore(stateBlob)
	s.RestoreHistory(undoBlob)
	return nil
}

// persist writes both blobs best effort. A failed write never rolls back the
// already-applied in-memory mutation.
func (s *BracketState) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(ctx, s.stateKey, s.Snapshot()); err != nil {
		s.logger.Error("failed to persist bracket winners",
			slog.String("key", s.stateKey), slog.Any("error", err))
	}
	if err := s.store.Set(ctx, s.undoKey, s.HistorySnapshot()); err != nil {
		s.logger.Error("failed to persist undo stack",
			slog.String("key", s.undoKey), slog.Any("error", err))
	}
}

func (s *BracketState) decodeWinners(blob []byte) map[string]int {
	if len(blob) == 0 {
		return make(map[string]int)
	}
	var raw map[string]int
	if err := json.Unmarshal(blob, &raw); err != nil {
		s.logger.Warn("discarding malformed winners blob",
			slog.String("key", s.stateKey), slog.Any("error", err))
		return make(map[string]int)
	}
	return s.filterKnown(raw)
}

func (s *BracketState) filterKnown(raw map[string]int) map[string]int {
	out := make(map[string]int, len(raw))
	for id, w := range raw {
		if _, ok := s.graph.Node(id); ok {
			out[id] = w
		}
	}
	return out
}

func copyWinners(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
