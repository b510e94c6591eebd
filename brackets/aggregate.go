package brackets

import "sort"

const (
	MinRank = 1
	MaxRank = 5
)

// VoteRecord is a single weighted rank submission. Weight is 1.0 when the
// voter attended the poll's event, 0.5 otherwise.
type VoteRecord struct {
	OptionID int
	Rank     int
	Weight   float64
}

// Candidate is one entry of the option universe handed to the aggregator.
// Options with zero votes still produce a ScoredEntry.
type Candidate struct {
	ID    int
	Title string
}

type ScoredEntry struct {
	OptionID    int      `json:"option_id"`
	Title       string   `json:"title"`
	Votes       float64  `json:"votes"`
	AvgPoints   *float64 `json:"avg_points"`
	AvgRank     *float64 `json:"avg_rank"`
	OverallRank int      `json:"overall_rank"`
}

// AggregateScores computes one ScoredEntry per candidate from the full vote
// set and orders them: avg points descending (absent treated as 0), total
// vote weight descending, then title ascending. OverallRank is the 1-based
// position in that order. Pure function, recomputed on every call.
func AggregateScores(candidates []Candidate, votes []VoteRecord) []ScoredEntry {
	type tally struct {
		weight float64
		points float64
		ranks  float64
	}
	tallies := make(map[int]*tally, len(candidates))
	for _, c := range candidates {
		tallies[c.ID] = &tally{}
	}

	for _, v := range votes {
		t, ok := tallies[v.OptionID]
		if !ok || v.Rank < MinRank || v.Rank > MaxRank {
			continue
		}
		t.weight += v.Weight
		t.points += float64(MaxRank+1-v.Rank) * v.Weight
		t.ranks += float64(v.Rank) * v.Weight
	}

	entries := make([]ScoredEntry, 0, len(candidates))
	for _, c := range candidates {
		t := tallies[c.ID]
		e := ScoredEntry{OptionID: c.ID, Title: c.Title, Votes: t.weight}
		if t.weight > 0 {
			avgPoints := t.points / t.weight
			avgRank := t.ranks / t.weight
			e.AvgPoints = &avgPoints
			e.AvgRank = &avgRank
		}
		entries = append(entries, e)
	}

	// Stable sort keeps insertion order for the accepted edge case of two
	// options sharing an identical title.
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := pointsOrZero(entries[i]), pointsOrZero(entries[j])
		if pi != pj {
			return pi > pj
		}
		if entries[i].Votes != entries[j].Votes {
			return entries[i].Votes > entries[j].Votes
		}
		return entries[i].Title < entries[j].Title
	})

	for i := range entries {
		entries[i].OverallRank = i + 1
	}
	return entries
}

func pointsOrZero(e ScoredEntry) float64 {
	if e.AvgPoints == nil {
		return 0
	}
	return *e.AvgPoints
}
