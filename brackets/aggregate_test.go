package brackets

import (
	"fmt"
	"testing"
)

func TestAggregateScoresRankPermutation(t *testing.T) {
	candidates := make([]Candidate, 0, 10)
	for i := 1; i <= 10; i++ {
		candidates = append(candidates, Candidate{ID: i, Title: fmt.Sprintf("Option %02d", i)})
	}
	votes := []VoteRecord{
		{OptionID: 3, Rank: 1, Weight: 1.0},
		{OptionID: 3, Rank: 2, Weight: 0.5},
		{OptionID: 7, Rank: 1, Weight: 0.5},
		{OptionID: 1, Rank: 5, Weight: 1.0},
		{OptionID: 9, Rank: 3, Weight: 1.0},
	}

	entries := AggregateScores(candidates, votes)
	if len(entries) != len(candidates) {
		t.Fatalf("expected %d entries, got %d", len(candidates), len(entries))
	}

	seen := make(map[int]bool)
	for i, e := range entries {
		if e.OverallRank != i+1 {
			t.Fatalf("entry %d has overall rank %d", i, e.OverallRank)
		}
		if seen[e.OverallRank] {
			t.Fatalf("duplicate overall rank %d", e.OverallRank)
		}
		seen[e.OverallRank] = true
	}
}

func TestAggregateScoresMetrics(t *testing.T) {
	candidates := []Candidate{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	votes := []VoteRecord{
		{OptionID: 1, Rank: 1, Weight: 1.0}, // 5 points
		{OptionID: 1, Rank: 3, Weight: 0.5}, // 1.5 points
	}

	entries := AggregateScores(candidates, votes)

	top := entries[0]
	if top.OptionID != 1 {
		t.Fatalf("expected option 1 first, got %d", top.OptionID)
	}
	if top.Votes != 1.5 {
		t.Fatalf("votes: got %v, want 1.5", top.Votes)
	}
	if top.AvgPoints == nil || *top.AvgPoints != 6.5/1.5 {
		t.Fatalf("avg points: got %v, want %v", top.AvgPoints, 6.5/1.5)
	}
	if top.AvgRank == nil || *top.AvgRank != 2.5/1.5 {
		t.Fatalf("avg rank: got %v, want %v", top.AvgRank, 2.5/1.5)
	}

	unvoted := entries[1]
	if unvoted.AvgPoints != nil || unvoted.AvgRank != nil {
		t.Fatalf("zero-vote option must have nil averages, got %+v", unvoted)
	}
	if unvoted.Votes != 0 {
		t.Fatalf("zero-vote option has votes %v", unvoted.Votes)
	}
}

func TestAggregateScoresTieBreaks(t *testing.T) {
	cases := []struct {
		name      string
		votes     []VoteRecord
		wantOrder []int
	}{
		{
			name: "equal points, more votes first",
			votes: []VoteRecord{
				// Both average 4 points, option 2 with double the weight.
				{OptionID: 1, Rank: 2, Weight: 1.0},
				{OptionID: 2, Rank: 2, Weight: 1.0},
				{OptionID: 2, Rank: 2, Weight: 1.0},
				{OptionID: 3, Rank: 1, Weight: 1.0},
			},
			wantOrder: []int{3, 2, 1},
		},
		{
			name:  "no votes at all, title ascending",
			votes: nil,
			// Titles: Bravo(1), Alpha(2), Charlie(3)
			wantOrder: []int{2, 1, 3},
		},
	}

	candidates := []Candidate{
		{ID: 1, Title: "Bravo"},
		{ID: 2, Title: "Alpha"},
		{ID: 3, Title: "Charlie"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := AggregateScores(candidates, tc.votes)
			for i, want := range tc.wantOrder {
				if entries[i].OptionID != want {
					t.Fatalf("position %d: got option %d, want %d", i, entries[i].OptionID, want)
				}
			}
		})
	}
}

func TestAggregateScoresIgnoresInvalidRecords(t *testing.T) {
	candidates := []Candidate{{ID: 1, Title: "A"}}
	votes := []VoteRecord{
		{OptionID: 99, Rank: 1, Weight: 1.0}, // unknown option
		{OptionID: 1, Rank: 0, Weight: 1.0},  // rank out of range
		{OptionID: 1, Rank: 6, Weight: 1.0},
	}

	entries := AggregateScores(candidates, votes)
	if entries[0].Votes != 0 {
		t.Fatalf("invalid records must not count, got votes %v", entries[0].Votes)
	}
}
