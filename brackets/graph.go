package brackets

import (
	"fmt"
)

type RoundType string

const (
	RoundOf64    RoundType = "round64"
	RoundOf32    RoundType = "round32"
	Sweet16      RoundType = "sweet16"
	Elite8       RoundType = "elite8"
	FinalFour    RoundType = "finalFour"
	Championship RoundType = "championship"
)

// round64Pairs is the fixed bracket pairing of seeds inside a region, in
// bracket order (winner of (1,16) meets winner of (8,9), and so on).
var round64Pairs = [8][2]int{
	{1, 16}, {8, 9}, {5, 12}, {4, 13},
	{6, 11}, {3, 14}, {7, 10}, {2, 15},
}

// GameNode is one game of the bracket. Leaf games (round of 64) reference
// their two teams directly; every other game references the two upstream
// games whose winners feed it. Current occupants of a non-leaf game are
// never stored, always derived from upstream winners.
type GameNode struct {
	ID     string    `json:"id"`
	Round  RoundType `json:"round"`
	Region string    `json:"region,omitempty"`

	TeamA *SeededTeam `json:"team_a,omitempty"`
	TeamB *SeededTeam `json:"team_b,omitempty"`

	SourceA string `json:"source_a,omitempty"`
	SourceB string `json:"source_b,omitempty"`
}

// Leaf reports whether the game references teams directly.
func (n *GameNode) Leaf() bool {
	return n.SourceA == "" && n.SourceB == ""
}

// Graph is the acyclic game-dependency graph for a full bracket: an arena of
// nodes addressed by id plus a reverse dependency index. Immutable once
// built; winner assignments live in BracketState, not here.
type Graph struct {
	nodes      map[string]*GameNode
	order      []string
	dependents map[string][]string
	teams      map[int]*SeededTeam
}

// BuildGraph constructs the 63-game graph from exactly RegionCount seeded
// regions: per region 8 round-of-64 games in fixed seed pairing, then 4, 2
// and 1 internal games, then two cross-region final-four games and the
// championship. Malformed seeding fails before any node is reachable.
func BuildGraph(regions []*Region) (*Graph, error) {
	if len(regions) != RegionCount {
		return nil, fmt.Errorf("bracket graph requires %d regions, got %d", RegionCount, len(regions))
	}

	g := &Graph{
		nodes:      make(map[string]*GameNode),
		dependents: make(map[string][]string),
		teams:      make(map[int]*SeededTeam),
	}

	elite8IDs := make([]string, 0, RegionCount)
	for _, region := range regions {
		if region == nil {
			return nil, fmt.Errorf("bracket graph: nil region")
		}
		if err := g.registerTeams(region); err != nil {
			return nil, err
		}

		// Round of 64: leaf games in bracket seed order.
		prev := make([]string, 0, len(round64Pairs))
		for i, pair := range round64Pairs {
			id := fmt.Sprintf("%s-R64-%d", region.Name, i+1)
			g.addNode(&GameNode{
				ID:     id,
				Round:  RoundOf64,
				Region: region.Name,
				TeamA:  region.TeamBySeed(pair[0]),
				TeamB:  region.TeamBySeed(pair[1]),
			})
			prev = append(prev, id)
		}

		prev = g.addInternalRound(region.Name, "R32", RoundOf32, prev)
		prev = g.addInternalRound(region.Name, "S16", Sweet16, prev)
		prev = g.addInternalRound(region.Name, "E8", Elite8, prev)
		elite8IDs = append(elite8IDs, prev[0])
	}

	// Final four pairs region[0] vs region[1] and region[2] vs region[3].
	ffIDs := make([]string, 2)
	for i := 0; i < 2; i++ {
		id := fmt.Sprintf("FF-%d", i+1)
		g.addEdgeNode(&GameNode{
			ID:      id,
			Round:   FinalFour,
			SourceA: elite8IDs[i*2],
			SourceB: elite8IDs[i*2+1],
		})
		ffIDs[i] = id
	}

	g.addEdgeNode(&GameNode{
		ID:      "CHAMP",
		Round:   Championship,
		SourceA: ffIDs[0],
		SourceB: ffIDs[1],
	})

	return g, nil
}

func (g *Graph) registerTeams(region *Region) error {
	seen := make(map[int]bool, len(region.Teams))
	for _, t := range region.Teams {
		if t == nil {
			continue
		}
		if t.Seed < 1 || t.Seed > SeedsPerRegion {
			return fmt.Errorf("region %s: seed %d out of range", region.Name, t.Seed)
		}
		if seen[t.Seed] {
			return fmt.Errorf("region %s: duplicate seed %d", region.Name, t.Seed)
		}
		seen[t.Seed] = true
		if _, dup := g.teams[t.OptionID]; dup {
			return fmt.Errorf("team %d seeded more than once", t.OptionID)
		}
		g.teams[t.OptionID] = t
	}
	return nil
}

// addInternalRound creates one internal game per adjacent pair of upstream
// ids and returns the new round's ids.
func (g *Graph) addInternalRound(region, tag string, round RoundType, upstream []string) []string {
	out := make([]string, 0, len(upstream)/2)
	for i := 0; i < len(upstream); i += 2 {
		id := fmt.Sprintf("%s-%s-%d", region, tag, i/2+1)
		g.addEdgeNode(&GameNode{
			ID:      id,
			Round:   round,
			Region:  region,
			SourceA: upstream[i],
			SourceB: upstream[i+1],
		})
		out = append(out, id)
	}
	return out
}

func (g *Graph) addNode(n *GameNode) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

func (g *Graph) addEdgeNode(n *GameNode) {
	g.addNode(n)
	g.dependents[n.SourceA] = append(g.dependents[n.SourceA], n.ID)
	g.dependents[n.SourceB] = append(g.dependents[n.SourceB], n.ID)
}

// Node returns the game with the given id.
func (g *Graph) Node(id string) (*GameNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Games returns all games in construction order (leaves first, championship
// last).
func (g *Graph) Games() []*GameNode {
	out := make([]*GameNode, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Dependents returns the ids of the games directly downstream of id.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// Team resolves a team id to its seeded team, or nil.
func (g *Graph) Team(id int) *SeededTeam {
	return g.teams[id]
}

// Occupants resolves the current occupants of a game on demand. A leaf
// game's occupants are its fixed team references; an internal game's
// occupant is the recorded winner of the upstream game, or nil while that
// game is undecided.
func (g *Graph) Occupants(id string, winners map[string]int) (a, b *SeededTeam) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, nil
	}
	if n.Leaf() {
		return n.TeamA, n.TeamB
	}
	if w, ok := winners[n.SourceA]; ok {
		a = g.teams[w]
	}
	if w, ok := winners[n.SourceB]; ok {
		b = g.teams[w]
	}
	return a, b
}
