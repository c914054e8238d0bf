// Package scoring implements the lead scoring engine: tiered factor lookups,
// weighted person/company aggregation, tier classification and the Swedish
// explanation text written back to the CRM.
//
// Everything in this package is pure. An Engine holds an immutable copy of a
// Profile and may be shared by any number of goroutines.
package scoring

import (
	"math"
	"strings"
)

// Tier is the lead classification derived from the combined score.
type Tier string

const (
	TierGold   Tier = "GOLD"
	TierSilver Tier = "SILVER"
	TierBronze Tier = "BRONZE"
)

// swedishName returns the label used in explanation text.
func (t Tier) swedishName() string {
	switch t {
	case TierGold:
		return "Guld"
	case TierSilver:
		return "Silver"
	default:
		return "Brons"
	}
}

// RelationshipStrength is the fixed CRM vocabulary describing how well the
// account owner knows a contact.
type RelationshipStrength string

const (
	RelationshipKnowEachOther    RelationshipStrength = "We know each other"
	RelationshipHeardOfEachOther RelationshipStrength = "We've heard of each other"
	RelationshipWeak             RelationshipStrength = "Weak"
	RelationshipUnknown          RelationshipStrength = ""
)

// ParseRelationshipStrength maps free CRM text onto the closed vocabulary.
// Matching ignores case and surrounding whitespace; anything else is
// RelationshipUnknown.
func ParseRelationshipStrength(s string) RelationshipStrength {
	s = strings.TrimSpace(s)
	for _, r := range []RelationshipStrength{RelationshipKnowEachOther, RelationshipHeardOfEachOther, RelationshipWeak} {
		if strings.EqualFold(s, string(r)) {
			return r
		}
	}
	return RelationshipUnknown
}

// Factor names a weighted input of the score.
type Factor string

const (
	FactorRole         Factor = "role"
	FactorRelationship Factor = "relationship"
	FactorEngagement   Factor = "engagement"

	FactorRevenue  Factor = "revenue"
	FactorGrowth   Factor = "growth"
	FactorIndustry Factor = "industry"
	FactorDistance Factor = "distance"
	FactorExisting Factor = "existing"

	FactorPerson  Factor = "person"
	FactorCompany Factor = "company"
)

// Weighted sums are always accumulated in these orders so that floating
// point results never depend on map iteration.
var (
	personFactorOrder  = []Factor{FactorRole, FactorRelationship, FactorEngagement}
	companyFactorOrder = []Factor{FactorRevenue, FactorGrowth, FactorIndustry, FactorDistance, FactorExisting}
	blendFactorOrder   = []Factor{FactorPerson, FactorCompany}
)

// Attribute names reported in factors_used.
const (
	AttrFunctions            = "functions"
	AttrRelationshipStrength = "relationship_strength"
	AttrActivities90d        = "activities_90d"
	AttrRevenue              = "revenue"
	AttrCAGR3y               = "cagr_3y"
	AttrIndustry             = "industry"
	AttrDistanceKM           = "distance_km"
	AttrScore                = "score"
)

// Warnings emitted when high-importance inputs are missing. The strings are
// matched literally by downstream consumers.
const (
	WarningMissingRevenue = "Omsättning saknas: standardvärde används"
	WarningMissingRole    = "Roll saknas: standardvärde används"
)

// PersonInput holds contact attributes. Every field is optional.
type PersonInput struct {
	Functions            []string `json:"functions,omitempty" yaml:"functions,omitempty"`
	RelationshipStrength *string  `json:"relationship_strength,omitempty" yaml:"relationship_strength,omitempty"`
	Activities90d        *int     `json:"activities_90d,omitempty" yaml:"activities_90d,omitempty"`
}

// CompanyInput holds organization attributes. Every field is optional.
// Revenue is in SEK; CAGR3y is a decimal fraction (0.15 = 15%).
type CompanyInput struct {
	Revenue    *float64 `json:"revenue,omitempty" yaml:"revenue,omitempty"`
	CAGR3y     *float64 `json:"cagr_3y,omitempty" yaml:"cagr_3y,omitempty"`
	Industry   *string  `json:"industry,omitempty" yaml:"industry,omitempty"`
	DistanceKM *float64 `json:"distance_km,omitempty" yaml:"distance_km,omitempty"`
	Employees  *int     `json:"employees,omitempty" yaml:"employees,omitempty"`
	Score      *float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// PersonBreakdown holds person-side sub-scores.
type PersonBreakdown struct {
	RoleScore         float64 `json:"role_score"`
	RelationshipScore float64 `json:"relationship_score"`
	EngagementScore   float64 `json:"engagement_score"`
}

// CompanyBreakdown holds company-side sub-scores.
type CompanyBreakdown struct {
	RevenueScore  float64 `json:"revenue_score"`
	GrowthScore   float64 `json:"growth_score"`
	IndustryScore float64 `json:"industry_score"`
	DistanceScore float64 `json:"distance_score"`
	ExistingScore float64 `json:"existing_score"`
}

// ScoreBreakdown is the full set of sub-scores.
type ScoreBreakdown struct {
	PersonBreakdown
	CompanyBreakdown
}

// CompanyScoreResult is the outcome of company-only scoring.
type CompanyScoreResult struct {
	CompanyScore int              `json:"company_score"`
	Breakdown    CompanyBreakdown `json:"breakdown"`
	FactorsUsed  []string         `json:"factors_used"`
	Warnings     []string         `json:"warnings"`
	Reason       string           `json:"reason"`
}

// ScoringResult is the outcome of combined person + company scoring.
type ScoringResult struct {
	PersonScore   int            `json:"person_score"`
	CompanyScore  int            `json:"company_score"`
	CombinedScore int            `json:"combined_score"`
	Tier          Tier           `json:"tier"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	FactorsUsed   []string       `json:"factors_used"`
	Warnings      []string       `json:"warnings"`
	Reason        string         `json:"reason"`
}

// roundHalfUp rounds to the nearest integer with halves going up. The small
// guard absorbs representation error in weighted sums such as 0.3*x.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5 + 1e-9))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// present reports whether a numeric input carries a usable value.
func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func presentString(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
