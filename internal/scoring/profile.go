package scoring

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Profile is the complete scoring configuration: weight groups, tier
// thresholds and every lookup table. A Profile is plain data; the scorer never
// mutates it and never revalidates it.
type Profile struct {
	Name           string        `yaml:"name" json:"name"`
	Tiers          Tiers         `yaml:"tiers" json:"tiers"`
	Weights        Weights       `yaml:"weights" json:"weights"`
	PersonFactors  Weights       `yaml:"person_factors" json:"person_factors"`
	CompanyFactors Weights       `yaml:"company_factors" json:"company_factors"`
	Roles          CategoryTable `yaml:"roles" json:"roles"`
	Relationships  CategoryTable `yaml:"relationships" json:"relationships"`
	Industry       IndustryTable `yaml:"industry" json:"industry"`
	Revenue        MinLadder     `yaml:"revenue" json:"revenue"`
	Growth         MinLadder     `yaml:"growth" json:"growth"`
	Engagement     MinLadder     `yaml:"engagement" json:"engagement"`
	Distance       MaxLadder     `yaml:"distance" json:"distance"`
	Existing       ExistingTable `yaml:"existing" json:"existing"`
}

// Tiers holds the inclusive lower bounds of the GOLD and SILVER tiers.
type Tiers struct {
	Gold   int `yaml:"gold" json:"gold"`
	Silver int `yaml:"silver" json:"silver"`
}

// Weights maps factor names to their share of a weighted sum. A factor that
// is not a key does not take part in the sum.
type Weights map[Factor]float64

// Has reports whether f takes part in the weight group.
func (w Weights) Has(f Factor) bool {
	_, ok := w[f]
	return ok
}

// Sum returns the total of all weights in the group.
func (w Weights) Sum() float64 {
	keys := slices.Sorted(maps.Keys(w))
	var total float64
	for _, k := range keys {
		total += w[k]
	}
	return total
}

// sum returns the weighted sum of scores, accumulated in order.
func (w Weights) sum(order []Factor, scores map[Factor]float64) float64 {
	var total float64
	for _, f := range order {
		if weight, ok := w[f]; ok {
			total += weight * scores[f]
		}
	}
	return total
}

// MinRung is one step of a descending ladder: values at or above Min score
// Score.
type MinRung struct {
	Min   float64 `yaml:"min" json:"min"`
	Score float64 `yaml:"score" json:"score"`
}

// MinLadder scores a number against rungs sorted by descending minimum.
type MinLadder struct {
	Ladder  []MinRung `yaml:"ladder" json:"ladder"`
	Missing float64   `yaml:"missing" json:"missing"`
}

// Lookup returns the score of the first rung whose minimum is at or below v.
// Values below every rung fall into the last rung.
func (l MinLadder) Lookup(v float64) float64 {
	if len(l.Ladder) == 0 {
		return l.Missing
	}
	for _, r := range l.Ladder {
		if v >= r.Min {
			return r.Score
		}
	}
	return l.Ladder[len(l.Ladder)-1].Score
}

// MaxRung is one step of an ascending ladder: values at or below Max score
// Score.
type MaxRung struct {
	Max   float64 `yaml:"max" json:"max"`
	Score float64 `yaml:"score" json:"score"`
}

// MaxLadder scores a number against rungs sorted by ascending maximum.
type MaxLadder struct {
	Ladder  []MaxRung `yaml:"ladder" json:"ladder"`
	Missing float64   `yaml:"missing" json:"missing"`
}

// Lookup returns the score of the first rung whose maximum is at or above v.
// Values beyond every rung fall into the last rung.
func (l MaxLadder) Lookup(v float64) float64 {
	if len(l.Ladder) == 0 {
		return l.Missing
	}
	for _, r := range l.Ladder {
		if v <= r.Max {
			return r.Score
		}
	}
	return l.Ladder[len(l.Ladder)-1].Score
}

// CategoryTable maps operator-defined names to scores.
type CategoryTable struct {
	Scores  map[string]float64 `yaml:"scores" json:"scores"`
	Unknown float64            `yaml:"unknown" json:"unknown"`
	Missing float64            `yaml:"missing" json:"missing"`
}

// Lookup matches key exactly, then case-folded, and falls back to Unknown.
// Keys are tried in sorted order so the folded match is deterministic.
func (t CategoryTable) Lookup(key string) float64 {
	key = strings.TrimSpace(key)
	if s, ok := t.Scores[key]; ok {
		return s
	}
	fold := cases.Fold()
	want := fold.String(key)
	for _, name := range slices.Sorted(maps.Keys(t.Scores)) {
		if fold.String(name) == want {
			return t.Scores[name]
		}
	}
	return t.Unknown
}

// IndustryTable is the two-level target industry scheme.
type IndustryTable struct {
	Targets   []string `yaml:"targets" json:"targets"`
	Target    float64  `yaml:"target" json:"target"`
	NonTarget float64  `yaml:"non_target" json:"non_target"`
	Missing   float64  `yaml:"missing" json:"missing"`
}

// Matches reports whether any target occurs in industry, ignoring case.
func (t IndustryTable) Matches(industry string) bool {
	fold := cases.Fold()
	text := fold.String(industry)
	for _, target := range t.Targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(text, fold.String(target)) {
			return true
		}
	}
	return false
}

// Lookup returns Target on a match and NonTarget otherwise.
func (t IndustryTable) Lookup(industry string) float64 {
	if t.Matches(industry) {
		return t.Target
	}
	return t.NonTarget
}

// ExistingTable configures the pass-through existing score.
type ExistingTable struct {
	Missing float64 `yaml:"missing" json:"missing"`
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := p
	out.Weights = maps.Clone(p.Weights)
	out.PersonFactors = maps.Clone(p.PersonFactors)
	out.CompanyFactors = maps.Clone(p.CompanyFactors)
	out.Roles.Scores = maps.Clone(p.Roles.Scores)
	out.Relationships.Scores = maps.Clone(p.Relationships.Scores)
	out.Industry.Targets = slices.Clone(p.Industry.Targets)
	out.Revenue.Ladder = slices.Clone(p.Revenue.Ladder)
	out.Growth.Ladder = slices.Clone(p.Growth.Ladder)
	out.Engagement.Ladder = slices.Clone(p.Engagement.Ladder)
	out.Distance.Ladder = slices.Clone(p.Distance.Ladder)
	return out
}
