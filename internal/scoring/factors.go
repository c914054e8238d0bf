package scoring

import (
	"math"
	"strings"
)

// roleMatch is the best-scoring entry of a functions list.
type roleMatch struct {
	name  string
	score float64
}

// scoreRole returns the highest role score among functions. The first entry
// wins ties. ok is false when no non-blank entry exists.
func scoreRole(t CategoryTable, functions []string) (roleMatch, bool) {
	var (
		best  roleMatch
		found bool
	)
	for _, fn := range functions {
		fn = strings.TrimSpace(fn)
		if fn == "" {
			continue
		}
		s := t.Lookup(fn)
		if !found || s > best.score {
			best = roleMatch{name: fn, score: s}
			found = true
		}
	}
	if !found {
		return roleMatch{score: t.Missing}, false
	}
	return best, true
}

// scoreRelationship returns the relationship score and the display value.
func scoreRelationship(t CategoryTable, raw *string) (float64, string, bool) {
	if !presentString(raw) {
		return t.Missing, "", false
	}
	text := strings.TrimSpace(*raw)
	r := ParseRelationshipStrength(text)
	if r == RelationshipUnknown {
		return t.Unknown, text, true
	}
	return t.Lookup(string(r)), string(r), true
}

func scoreEngagement(l MinLadder, activities *int) (float64, bool) {
	if activities == nil {
		return l.Missing, false
	}
	return l.Lookup(float64(*activities)), true
}

func scoreMin(l MinLadder, v *float64) (float64, bool) {
	if !present(v) {
		return l.Missing, false
	}
	return l.Lookup(*v), true
}

func scoreDistance(l MaxLadder, v *float64) (float64, bool) {
	if !present(v) {
		return l.Missing, false
	}
	return l.Lookup(*v), true
}

func scoreIndustry(t IndustryTable, industry *string) (float64, bool) {
	if !presentString(industry) {
		return t.Missing, false
	}
	return t.Lookup(*industry), true
}

// scoreExisting passes the external rating through, clamped to [0, 100].
func scoreExisting(t ExistingTable, v *float64) (float64, bool) {
	if !present(v) {
		return t.Missing, false
	}
	return clamp(*v, 0, 100), true
}

// clampSubScore keeps sub-scores within range even for out-of-range
// profile tables.
func clampSubScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, 0, 100)
}
