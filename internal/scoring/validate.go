package scoring

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// WeightTolerance is the allowed deviation of a weight group's sum from 1.0.
const WeightTolerance = 0.01

// ValidateProfile checks that p is internally consistent. Every problem found
// is reported in a single error.
func ValidateProfile(p Profile) error {
	var errs []string

	errs = append(errs, validateWeights("weights", p.Weights, blendFactorOrder)...)
	errs = append(errs, validateWeights("person_factors", p.PersonFactors, personFactorOrder)...)
	errs = append(errs, validateWeights("company_factors", p.CompanyFactors, companyFactorOrder)...)

	if p.Tiers.Gold <= p.Tiers.Silver {
		errs = append(errs, fmt.Sprintf("tiers.gold (%d) must be greater than tiers.silver (%d)", p.Tiers.Gold, p.Tiers.Silver))
	}
	if p.Tiers.Gold < 0 || p.Tiers.Gold > 100 {
		errs = append(errs, fmt.Sprintf("tiers.gold (%d) must be within [0, 100]", p.Tiers.Gold))
	}
	if p.Tiers.Silver < 0 || p.Tiers.Silver > 100 {
		errs = append(errs, fmt.Sprintf("tiers.silver (%d) must be within [0, 100]", p.Tiers.Silver))
	}

	errs = append(errs, validateCategories("roles", p.Roles)...)
	errs = append(errs, validateCategories("relationships", p.Relationships)...)
	for _, name := range slices.Sorted(maps.Keys(p.Relationships.Scores)) {
		if ParseRelationshipStrength(name) == RelationshipUnknown {
			errs = append(errs, fmt.Sprintf("relationships.scores: %q is not a known relationship strength", name))
		}
	}

	for i, target := range p.Industry.Targets {
		if strings.TrimSpace(target) == "" {
			errs = append(errs, fmt.Sprintf("industry.targets[%d] is blank", i))
		}
	}
	errs = appendScore(errs, "industry.target", p.Industry.Target)
	errs = appendScore(errs, "industry.non_target", p.Industry.NonTarget)
	errs = appendScore(errs, "industry.missing", p.Industry.Missing)

	errs = append(errs, validateMinLadder("revenue", p.Revenue)...)
	errs = append(errs, validateMinLadder("growth", p.Growth)...)
	errs = append(errs, validateMinLadder("engagement", p.Engagement)...)
	errs = append(errs, validateMaxLadder("distance", p.Distance)...)
	errs = appendScore(errs, "existing.missing", p.Existing.Missing)

	if len(errs) > 0 {
		return eris.Errorf("scoring: profile validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateWeights(group string, w Weights, known []Factor) []string {
	var errs []string
	if len(w) == 0 {
		return []string{group + " is empty"}
	}
	for _, f := range slices.Sorted(maps.Keys(w)) {
		if !slices.Contains(known, f) {
			errs = append(errs, fmt.Sprintf("%s: unknown factor %q", group, f))
		}
		if v := w[f]; v < 0 || math.IsNaN(v) {
			errs = append(errs, fmt.Sprintf("%s.%s must be non-negative, got %.4f", group, f, v))
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		errs = append(errs, fmt.Sprintf("%s must sum to 1.0, got %.4f", group, sum))
	}
	return errs
}

func validateCategories(group string, t CategoryTable) []string {
	var errs []string
	if len(t.Scores) == 0 {
		errs = append(errs, group+".scores is empty")
	}
	for _, name := range slices.Sorted(maps.Keys(t.Scores)) {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, group+".scores has a blank name")
		}
		errs = appendScore(errs, group+".scores."+name, t.Scores[name])
	}
	errs = appendScore(errs, group+".unknown", t.Unknown)
	errs = appendScore(errs, group+".missing", t.Missing)
	return errs
}

func validateMinLadder(group string, l MinLadder) []string {
	var errs []string
	if len(l.Ladder) == 0 {
		errs = append(errs, group+".ladder is empty")
	}
	for i, r := range l.Ladder {
		errs = appendScore(errs, fmt.Sprintf("%s.ladder[%d].score", group, i), r.Score)
		if i > 0 && r.Min >= l.Ladder[i-1].Min {
			errs = append(errs, fmt.Sprintf("%s.ladder must be sorted by descending min (rung %d)", group, i))
		}
	}
	return appendScore(errs, group+".missing", l.Missing)
}

func validateMaxLadder(group string, l MaxLadder) []string {
	var errs []string
	if len(l.Ladder) == 0 {
		errs = append(errs, group+".ladder is empty")
	}
	for i, r := range l.Ladder {
		errs = appendScore(errs, fmt.Sprintf("%s.ladder[%d].score", group, i), r.Score)
		if i > 0 && r.Max <= l.Ladder[i-1].Max {
			errs = append(errs, fmt.Sprintf("%s.ladder must be sorted by ascending max (rung %d)", group, i))
		}
	}
	return appendScore(errs, group+".missing", l.Missing)
}

func appendScore(errs []string, name string, v float64) []string {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return append(errs, fmt.Sprintf("%s must be within [0, 100], got %v", name, v))
	}
	return errs
}
