package scoring

import (
	"fmt"
	"strings"
)

// Clause thresholds on a factor's sub-score.
const (
	strongSubScore = 80
	weakSubScore   = 30
)

// phrase is one (predicate, template) rule. The template receives the
// formatted factor value through %s.
type phrase struct {
	when     func(subScore float64) bool
	template string
}

func strong(s float64) bool { return s >= strongSubScore }
func weak(s float64) bool   { return s <= weakSubScore }
func always(float64) bool   { return true }

// companyPhrases lists the clause rules in output order. The first matching
// rule of a factor wins; a factor without a match contributes no clause.
var companyPhrases = []struct {
	factor  Factor
	phrases []phrase
}{
	{FactorRevenue, []phrase{
		{strong, "hög omsättning (%s)"},
		{weak, "låg omsättning (%s)"},
		{always, "omsättning %s"},
	}},
	{FactorGrowth, []phrase{
		{strong, "stark tillväxt (%s)"},
		{weak, "svag tillväxt (%s)"},
		{always, "tillväxt %s"},
	}},
	{FactorIndustry, []phrase{
		{strong, "målbransch (%s)"},
		{weak, "bransch utanför målgrupp (%s)"},
	}},
	{FactorDistance, []phrase{
		{strong, "nära (%s km)"},
		{weak, "långt avstånd (%s km)"},
		{always, "avstånd %s km"},
	}},
	{FactorExisting, []phrase{
		{strong, "högt befintligt betyg (%s)"},
		{weak, "lågt befintligt betyg (%s)"},
	}},
}

// companyLabels maps company score floors to the reason's leading label.
var companyLabels = []struct {
	min   int
	label string
}{
	{70, "Starkt företag:"},
	{40, "Medelstarkt företag:"},
	{0, "Svagare företag:"},
}

// roleQualifiers maps role score floors to the qualifier shown after a role.
var roleQualifiers = []struct {
	min       float64
	qualifier string
}{
	{90, " (beslutsfattare)"},
	{70, ""},
	{0, " (lägre prioritet)"},
}

const noCompanyData = "ingen företagsdata"

// companyClauses renders one clause per present factor. values holds the
// formatted input of each present factor.
func companyClauses(b CompanyBreakdown, values map[Factor]string) []string {
	scores := companyScores(b)
	clauses := make([]string, 0, len(companyPhrases))
	for _, fp := range companyPhrases {
		v, ok := values[fp.factor]
		if !ok {
			continue
		}
		for _, p := range fp.phrases {
			if p.when(scores[fp.factor]) {
				clauses = append(clauses, fmt.Sprintf(p.template, v))
				break
			}
		}
	}
	return clauses
}

func companyLabel(score int) string {
	for _, l := range companyLabels {
		if score >= l.min {
			return l.label
		}
	}
	return companyLabels[len(companyLabels)-1].label
}

// companyReason renders "<label> <clauses>." for standalone company scoring.
func companyReason(score int, clauses []string) string {
	return companyLabel(score) + " " + companyBody(clauses)
}

func companyBody(clauses []string) string {
	if len(clauses) == 0 {
		return noCompanyData + "."
	}
	return strings.Join(clauses, ", ") + "."
}

// personSentences renders the person block of the combined reason.
func personSentences(pe personEval, relationshipWeighted bool) []string {
	var out []string
	if !pe.hasRole {
		out = append(out, "Roll saknas.")
	} else {
		for _, q := range roleQualifiers {
			if pe.role.score >= q.min {
				out = append(out, "Roll: "+pe.role.name+q.qualifier+".")
				break
			}
		}
	}
	if relationshipWeighted && pe.hasRelationship {
		out = append(out, "Relation: "+pe.relationship+".")
	}
	if pe.hasActivities {
		noun := "aktiviteter"
		if pe.activities == 1 {
			noun = "aktivitet"
		}
		out = append(out, fmt.Sprintf("Engagemang: %d %s senaste 90 dagarna.", pe.activities, noun))
	}
	return out
}

// combinedReason renders the unified explanation.
func combinedReason(tier Tier, person []string, clauses []string) string {
	parts := make([]string, 0, len(person)+2)
	parts = append(parts, tier.swedishName()+":")
	parts = append(parts, person...)
	parts = append(parts, "Företag: "+companyBody(clauses))
	return strings.Join(parts, " ")
}

// formatRevenue renders SEK as whole millions or whole thousands.
func formatRevenue(v float64) string {
	if v >= 1_000_000 {
		return fmt.Sprintf("%d MSEK", roundHalfUp(v/1_000_000))
	}
	return fmt.Sprintf("%d TSEK", roundHalfUp(v/1_000))
}

// formatPercent renders a decimal fraction as a whole percentage with an
// explicit sign for positive values.
func formatPercent(v float64) string {
	pct := roundHalfUp(v * 100)
	if pct > 0 {
		return fmt.Sprintf("+%d%%", pct)
	}
	return fmt.Sprintf("%d%%", pct)
}

func formatWhole(v float64) string {
	return fmt.Sprintf("%d", roundHalfUp(v))
}
