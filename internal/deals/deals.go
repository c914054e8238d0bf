// Package deals turns closed CRM opportunities into per-owner aggregates for
// the leaderboard.
package deals

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/pkg/salesforce"
)

// unassigned names deals without an owner.
const unassigned = "(unassigned)"

// Aggregate groups closed opportunities by owner. TotalValue sums the amounts
// of won deals and Count is the number of won deals; lost deals only count
// towards Lost. The result is sorted by owner name.
func Aggregate(opps []salesforce.Opportunity) []scoring.ScoredEntity {
	byOwner := make(map[string]*scoring.ScoredEntity)
	for _, o := range opps {
		name := strings.TrimSpace(o.OwnerName())
		if name == "" {
			name = unassigned
		}
		e, ok := byOwner[name]
		if !ok {
			e = &scoring.ScoredEntity{Name: name}
			byOwner[name] = e
		}
		if !o.IsWon {
			e.Lost++
			continue
		}
		e.Won++
		e.Count++
		if o.Amount != nil && *o.Amount > 0 {
			e.TotalValue += *o.Amount
		}
	}

	out := make([]scoring.ScoredEntity, 0, len(byOwner))
	for _, e := range byOwner {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b scoring.ScoredEntity) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
