package scoring

import "strings"

// Engine scores leads against one immutable Profile. It is safe for
// concurrent use.
type Engine struct {
	profile Profile
}

// NewEngine returns an engine over a private copy of p. p is assumed to have
// passed ValidateProfile.
func NewEngine(p Profile) *Engine {
	return &Engine{profile: p.Clone()}
}

// Profile returns a copy of the engine's profile.
func (e *Engine) Profile() Profile {
	return e.profile.Clone()
}

// personEval is the person half of a calculation.
type personEval struct {
	breakdown       PersonBreakdown
	score           int
	role            roleMatch
	hasRole         bool
	relationship    string
	hasRelationship bool
	activities      int
	hasActivities   bool
	factorsUsed     []string
	warnings        []string
}

// companyEval is the company half of a calculation.
type companyEval struct {
	breakdown   CompanyBreakdown
	score       int
	clauses     []string
	factorsUsed []string
	warnings    []string
}

func (e *Engine) evalPerson(in PersonInput) personEval {
	p := e.profile
	var pe personEval

	pe.role, pe.hasRole = scoreRole(p.Roles, in.Functions)
	var relScore, engScore float64
	relScore, pe.relationship, pe.hasRelationship = scoreRelationship(p.Relationships, in.RelationshipStrength)
	engScore, pe.hasActivities = scoreEngagement(p.Engagement, in.Activities90d)
	if pe.hasActivities {
		pe.activities = *in.Activities90d
	}

	pe.breakdown = PersonBreakdown{
		RoleScore:         clampSubScore(pe.role.score),
		RelationshipScore: clampSubScore(relScore),
		EngagementScore:   clampSubScore(engScore),
	}
	raw := p.PersonFactors.sum(personFactorOrder, personScores(pe.breakdown))
	pe.score = clampScore(roundHalfUp(raw))

	pe.factorsUsed = []string{}
	if pe.hasRole {
		pe.factorsUsed = append(pe.factorsUsed, AttrFunctions)
	}
	if pe.hasRelationship {
		pe.factorsUsed = append(pe.factorsUsed, AttrRelationshipStrength)
	}
	if pe.hasActivities {
		pe.factorsUsed = append(pe.factorsUsed, AttrActivities90d)
	}

	pe.warnings = []string{}
	if !pe.hasRole {
		pe.warnings = append(pe.warnings, WarningMissingRole)
	}
	return pe
}

func (e *Engine) evalCompany(in CompanyInput) companyEval {
	p := e.profile
	var ce companyEval

	revenue, hasRevenue := scoreMin(p.Revenue, in.Revenue)
	growth, hasGrowth := scoreMin(p.Growth, in.CAGR3y)
	industry, hasIndustry := scoreIndustry(p.Industry, in.Industry)
	distance, hasDistance := scoreDistance(p.Distance, in.DistanceKM)
	existing, hasExisting := scoreExisting(p.Existing, in.Score)

	ce.breakdown = CompanyBreakdown{
		RevenueScore:  clampSubScore(revenue),
		GrowthScore:   clampSubScore(growth),
		IndustryScore: clampSubScore(industry),
		DistanceScore: clampSubScore(distance),
		ExistingScore: clampSubScore(existing),
	}
	raw := p.CompanyFactors.sum(companyFactorOrder, companyScores(ce.breakdown))
	ce.score = clampScore(roundHalfUp(raw))

	values := make(map[Factor]string, len(companyFactorOrder))
	ce.factorsUsed = []string{}
	use := func(f Factor, attr, value string) {
		values[f] = value
		ce.factorsUsed = append(ce.factorsUsed, attr)
	}
	if hasRevenue {
		use(FactorRevenue, AttrRevenue, formatRevenue(*in.Revenue))
	}
	if hasGrowth {
		use(FactorGrowth, AttrCAGR3y, formatPercent(*in.CAGR3y))
	}
	if hasIndustry {
		use(FactorIndustry, AttrIndustry, strings.TrimSpace(*in.Industry))
	}
	if hasDistance {
		use(FactorDistance, AttrDistanceKM, formatWhole(*in.DistanceKM))
	}
	if hasExisting {
		use(FactorExisting, AttrScore, formatWhole(ce.breakdown.ExistingScore))
	}
	ce.clauses = companyClauses(ce.breakdown, values)

	ce.warnings = []string{}
	if !hasRevenue {
		ce.warnings = append(ce.warnings, WarningMissingRevenue)
	}
	return ce
}

// CompanyScore scores an organization on its own.
func (e *Engine) CompanyScore(in CompanyInput) CompanyScoreResult {
	ce := e.evalCompany(in)
	return CompanyScoreResult{
		CompanyScore: ce.score,
		Breakdown:    ce.breakdown,
		FactorsUsed:  ce.factorsUsed,
		Warnings:     ce.warnings,
		Reason:       companyReason(ce.score, ce.clauses),
	}
}

// Score blends the person and company halves into a combined score and tier.
func (e *Engine) Score(person PersonInput, company CompanyInput) ScoringResult {
	pe := e.evalPerson(person)
	ce := e.evalCompany(company)

	halves := map[Factor]float64{
		FactorPerson:  float64(pe.score),
		FactorCompany: float64(ce.score),
	}
	combined := clampScore(roundHalfUp(e.profile.Weights.sum(blendFactorOrder, halves)))
	tier := ClassifyTier(combined, e.profile.Tiers)

	return ScoringResult{
		PersonScore:   pe.score,
		CompanyScore:  ce.score,
		CombinedScore: combined,
		Tier:          tier,
		Breakdown: ScoreBreakdown{
			PersonBreakdown:  pe.breakdown,
			CompanyBreakdown: ce.breakdown,
		},
		FactorsUsed: union(pe.factorsUsed, ce.factorsUsed),
		Warnings:    union(pe.warnings, ce.warnings),
		Reason: combinedReason(tier,
			personSentences(pe, e.profile.PersonFactors.Has(FactorRelationship)),
			ce.clauses),
	}
}

// ClassifyTier maps a combined score onto a tier. Bounds are inclusive.
func ClassifyTier(score int, t Tiers) Tier {
	switch {
	case score >= t.Gold:
		return TierGold
	case score >= t.Silver:
		return TierSilver
	default:
		return TierBronze
	}
}

func personScores(b PersonBreakdown) map[Factor]float64 {
	return map[Factor]float64{
		FactorRole:         b.RoleScore,
		FactorRelationship: b.RelationshipScore,
		FactorEngagement:   b.EngagementScore,
	}
}

func companyScores(b CompanyBreakdown) map[Factor]float64 {
	return map[Factor]float64{
		FactorRevenue:  b.RevenueScore,
		FactorGrowth:   b.GrowthScore,
		FactorIndustry: b.IndustryScore,
		FactorDistance: b.DistanceScore,
		FactorExisting: b.ExistingScore,
	}
}

// union concatenates lists in order, dropping repeats.
func union(lists ...[]string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, l := range lists {
		for _, s := range l {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
