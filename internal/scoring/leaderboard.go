package scoring

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Leaderboard defaults.
const (
	DefaultLeaderboardLimit = 10
	DefaultMinSample        = 5
)

// SortKey selects the leaderboard metric.
type SortKey string

const (
	SortByValue   SortKey = "value"
	SortByCount   SortKey = "count"
	SortByWinRate SortKey = "win_rate"
)

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortByValue, SortByCount, SortByWinRate:
		return k, nil
	case "":
		return SortByValue, nil
	default:
		return "", eris.Errorf("scoring: unknown sort key %q (want value, count or win_rate)", s)
	}
}

// ScoredEntity is an aggregate over historical deals, typically one per owner.
type ScoredEntity struct {
	Name       string  `json:"name"`
	TotalValue float64 `json:"total_value"`
	Count      int     `json:"count"`
	Won        int     `json:"won"`
	Lost       int     `json:"lost"`
}

// Decisions is the number of closed deals with a known outcome.
func (s ScoredEntity) Decisions() int {
	return s.Won + s.Lost
}

// WinRate is Won over Decisions, or 0 without decisions.
func (s ScoredEntity) WinRate() float64 {
	d := s.Decisions()
	if d == 0 {
		return 0
	}
	return float64(s.Won) / float64(d)
}

// LeaderboardOptions controls sorting and truncation. Zero values select the
// defaults.
type LeaderboardOptions struct {
	SortBy    SortKey
	Limit     int
	MinSample int
}

// Leaderboard returns the top entities by the chosen metric. The input slice
// is not modified. Ties are broken by name.
func Leaderboard(entities []ScoredEntity, opts LeaderboardOptions) []ScoredEntity {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	minSample := opts.MinSample
	if minSample <= 0 {
		minSample = DefaultMinSample
	}

	out := slices.Clone(entities)
	slices.SortStableFunc(out, func(a, b ScoredEntity) int {
		var c int
		switch opts.SortBy {
		case SortByCount:
			c = cmp.Compare(b.Count, a.Count)
		case SortByWinRate:
			c = compareWinRate(a, b, minSample)
		default:
			c = cmp.Compare(b.TotalValue, a.TotalValue)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// compareWinRate ranks qualified entities above small samples, then by rate
// and decision count, all descending.
func compareWinRate(a, b ScoredEntity, minSample int) int {
	aq, bq := a.Decisions() >= minSample, b.Decisions() >= minSample
	if aq != bq {
		if aq {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.WinRate(), a.WinRate()); c != 0 {
		return c
	}
	return cmp.Compare(b.Decisions(), a.Decisions())
}
