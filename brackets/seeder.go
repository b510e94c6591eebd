package brackets

const (
	RegionCount    = 4
	SeedsPerRegion = 16
	// BandSize is the number of consecutive ranked entries distributed
	// round-robin across the regions at a given seed.
	BandSize = RegionCount
)

// RegionNames is the fixed region order used by the banded distribution.
var RegionNames = [RegionCount]string{"East", "West", "South", "Midwest"}

type SeededTeam struct {
	ScoredEntry
	Region string `json:"region"`
	Seed   int    `json:"seed"`
}

// Region holds up to SeedsPerRegion teams, seeds ascending. Seeds can be
// missing when the ranked input is shorter than a full 64-entry field.
type Region struct {
	Name  string
	Teams []*SeededTeam
}

// TeamBySeed returns the region's occupant at seed s, or nil.
func (r *Region) TeamBySeed(s int) *SeededTeam {
	for _, t := range r.Teams {
		if t.Seed == s {
			return t
		}
	}
	return nil
}

// SeedRegions distributes the rank-ordered entries into the four named
// regions. For seed s the band of BandSize consecutive entries starting at
// index (s-1)*BandSize is handed out one per region in RegionNames order.
// Entries beyond seed SeedsPerRegion are ignored.
func SeedRegions(entries []ScoredEntry) []*Region {
	regions := make([]*Region, RegionCount)
	for i, name := range RegionNames {
		regions[i] = &Region{Name: name}
	}

	for s := 1; s <= SeedsPerRegion; s++ {
		band := (s - 1) * BandSize
		for i := 0; i < BandSize; i++ {
			idx := band + i
			if idx >= len(entries) {
				break
			}
			regions[i].Teams = append(regions[i].Teams, &SeededTeam{
				ScoredEntry: entries[idx],
				Region:      regions[i].Name,
				Seed:        s,
			})
		}
	}
	return regions
}
