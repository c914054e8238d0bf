package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadscore-cli/internal/scoring"
)

func TestAccountHasAddress(t *testing.T) {
	tests := []struct {
		name string
		acct Account
		want bool
	}{
		{"empty", Account{}, false},
		{"country only", Account{Country: "Sweden"}, false},
		{"city", Account{City: "Uppsala"}, true},
		{"postal code", Account{PostalCode: "753 20"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.acct.HasAddress())
		})
	}
}

func TestAccountLookupKey(t *testing.T) {
	assert.Equal(t, "556677-8899", Account{Name: "Acme AB", OrgNumber: "556677-8899"}.LookupKey())
	assert.Equal(t, "Acme AB", Account{Name: "Acme AB"}.LookupKey())
}

func TestRunStatsCountTier(t *testing.T) {
	var s RunStats
	s.CountTier(scoring.TierGold)
	s.CountTier(scoring.TierGold)
	s.CountTier(scoring.TierBronze)
	assert.Equal(t, map[string]int{"GOLD": 2, "BRONZE": 1}, s.Tiers)
}
