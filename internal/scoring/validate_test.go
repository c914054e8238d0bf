package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProfile_Builtins(t *testing.T) {
	require.NoError(t, ValidateProfile(CanonicalProfile()))
	require.NoError(t, ValidateProfile(LegacyProfile()))
}

func TestValidateProfile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr string
	}{
		{
			name:    "company weights off",
			mutate:  func(p *Profile) { p.CompanyFactors[FactorRevenue] = 0.5 },
			wantErr: "company_factors must sum to 1.0",
		},
		{
			name:    "sum within tolerance",
			mutate:  func(p *Profile) { p.Weights = Weights{FactorPerson: 0.405, FactorCompany: 0.6} },
			wantErr: "",
		},
		{
			name:    "gold not above silver",
			mutate:  func(p *Profile) { p.Tiers = Tiers{Gold: 40, Silver: 40} },
			wantErr: "tiers.gold (40) must be greater than tiers.silver (40)",
		},
		{
			name: "unknown factor",
			mutate: func(p *Profile) {
				p.PersonFactors = Weights{FactorRole: 0.6, FactorEngagement: 0.2, "seniority": 0.2}
			},
			wantErr: `person_factors: unknown factor "seniority"`,
		},
		{
			name: "negative weight",
			mutate: func(p *Profile) {
				p.Weights = Weights{FactorPerson: -0.2, FactorCompany: 1.2}
			},
			wantErr: "weights.person must be non-negative",
		},
		{
			name:    "empty weight group",
			mutate:  func(p *Profile) { p.Weights = nil },
			wantErr: "weights is empty",
		},
		{
			name:    "role score out of range",
			mutate:  func(p *Profile) { p.Roles.Scores["CEO"] = 120 },
			wantErr: "roles.scores.CEO must be within [0, 100]",
		},
		{
			name:    "unknown relationship",
			mutate:  func(p *Profile) { p.Relationships.Scores["Married"] = 100 },
			wantErr: `"Married" is not a known relationship strength`,
		},
		{
			name:    "empty ladder",
			mutate:  func(p *Profile) { p.Growth.Ladder = nil },
			wantErr: "growth.ladder is empty",
		},
		{
			name: "unsorted min ladder",
			mutate: func(p *Profile) {
				p.Revenue.Ladder = []MinRung{{Min: 0, Score: 10}, {Min: 100, Score: 90}}
			},
			wantErr: "revenue.ladder must be sorted by descending min",
		},
		{
			name: "unsorted max ladder",
			mutate: func(p *Profile) {
				p.Distance.Ladder = []MaxRung{{Max: 100, Score: 90}, {Max: 10, Score: 100}}
			},
			wantErr: "distance.ladder must be sorted by ascending max",
		},
		{
			name:    "blank industry target",
			mutate:  func(p *Profile) { p.Industry.Targets = append(p.Industry.Targets, " ") },
			wantErr: "industry.targets[8] is blank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CanonicalProfile()
			tt.mutate(&p)
			err := ValidateProfile(p)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "scoring: profile validation failed")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateProfile_ReportsAllProblems(t *testing.T) {
	p := CanonicalProfile()
	p.Tiers = Tiers{Gold: 10, Silver: 20}
	p.Weights = Weights{FactorPerson: 0.1, FactorCompany: 0.1}

	err := ValidateProfile(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")
	assert.Contains(t, err.Error(), "tiers.gold (10) must be greater than tiers.silver (20)")
}
