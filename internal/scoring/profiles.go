package scoring

// Built-in profile names.
const (
	ProfileCanonical = "canonical"
	ProfileLegacy    = "legacy"
)

func defaultRoles() CategoryTable {
	return CategoryTable{
		Scores: map[string]float64{
			"CEO": 100, "VD": 100, "Founder": 100, "Grundare": 100, "Owner": 100, "Ägare": 100,
			"CFO": 90, "COO": 90, "Board": 90, "Styrelse": 90,
			"CTO": 85, "CIO": 85, "Head of Sales": 85, "Försäljningschef": 85,
			"Finance": 75, "Ekonomi": 75,
			"Sales": 70, "Försäljning": 70,
			"Purchasing": 65, "Inköp": 65,
			"Marketing": 60, "Marknad": 60, "Operations": 60,
			"IT":    50,
			"HR":    40,
			"Other": 30,
		},
		Unknown: 30,
		Missing: 10,
	}
}

func defaultRelationships() CategoryTable {
	return CategoryTable{
		Scores: map[string]float64{
			string(RelationshipKnowEachOther):    100,
			string(RelationshipHeardOfEachOther): 60,
			string(RelationshipWeak):             30,
		},
		Unknown: 20,
		Missing: 40,
	}
}

func defaultIndustry() IndustryTable {
	return IndustryTable{
		Targets:   []string{"Tech", "Software", "Consulting", "Konsult", "Manufacturing", "Tillverkning", "Finance"},
		Target:    100,
		NonTarget: 30,
		Missing:   50,
	}
}

func defaultRevenue() MinLadder {
	return MinLadder{
		Ladder: []MinRung{
			{Min: 500_000_000, Score: 100},
			{Min: 250_000_000, Score: 85},
			{Min: 100_000_000, Score: 70},
			{Min: 50_000_000, Score: 55},
			{Min: 20_000_000, Score: 40},
			{Min: 10_000_000, Score: 25},
			{Min: 0, Score: 10},
		},
		Missing: 30,
	}
}

func defaultGrowth() MinLadder {
	return MinLadder{
		Ladder: []MinRung{
			{Min: 0.30, Score: 100},
			{Min: 0.20, Score: 85},
			{Min: 0.10, Score: 70},
			{Min: 0.05, Score: 55},
			{Min: 0, Score: 40},
			{Min: -0.10, Score: 20},
			{Min: -1, Score: 5},
		},
		Missing: 40,
	}
}

// The missing default sits below the zero rung: no activity data is a weaker
// signal than confirmed inactivity.
func defaultEngagement() MinLadder {
	return MinLadder{
		Ladder: []MinRung{
			{Min: 20, Score: 100},
			{Min: 10, Score: 80},
			{Min: 5, Score: 60},
			{Min: 2, Score: 40},
			{Min: 1, Score: 25},
			{Min: 0, Score: 10},
		},
		Missing: 5,
	}
}

func defaultDistance() MaxLadder {
	return MaxLadder{
		Ladder: []MaxRung{
			{Max: 50, Score: 100},
			{Max: 150, Score: 80},
			{Max: 300, Score: 60},
			{Max: 600, Score: 40},
			{Max: 1000, Score: 20},
		},
		Missing: 50,
	}
}

// CanonicalProfile returns the default profile: role and engagement on the
// person side, relationship strength unweighted.
func CanonicalProfile() Profile {
	return Profile{
		Name:  ProfileCanonical,
		Tiers: Tiers{Gold: 70, Silver: 40},
		Weights: Weights{
			FactorPerson:  0.4,
			FactorCompany: 0.6,
		},
		PersonFactors: Weights{
			FactorRole:       0.6,
			FactorEngagement: 0.4,
		},
		CompanyFactors: Weights{
			FactorRevenue:  0.30,
			FactorGrowth:   0.20,
			FactorIndustry: 0.20,
			FactorDistance: 0.15,
			FactorExisting: 0.15,
		},
		Roles:         defaultRoles(),
		Relationships: defaultRelationships(),
		Industry:      defaultIndustry(),
		Revenue:       defaultRevenue(),
		Growth:        defaultGrowth(),
		Engagement:    defaultEngagement(),
		Distance:      defaultDistance(),
		Existing:      ExistingTable{Missing: 50},
	}
}

// LegacyProfile returns the older weight set that scores relationship
// strength as part of the person score.
func LegacyProfile() Profile {
	p := CanonicalProfile()
	p.Name = ProfileLegacy
	p.Tiers = Tiers{Gold: 75, Silver: 50}
	p.Weights = Weights{
		FactorPerson:  0.5,
		FactorCompany: 0.5,
	}
	p.PersonFactors = Weights{
		FactorRole:         0.5,
		FactorRelationship: 0.3,
		FactorEngagement:   0.2,
	}
	p.CompanyFactors = Weights{
		FactorRevenue:  0.35,
		FactorGrowth:   0.15,
		FactorIndustry: 0.25,
		FactorDistance: 0.10,
		FactorExisting: 0.15,
	}
	return p
}

// BuiltinProfile returns the named built-in profile.
func BuiltinProfile(name string) (Profile, bool) {
	switch name {
	case ProfileCanonical, "":
		return CanonicalProfile(), true
	case ProfileLegacy:
		return LegacyProfile(), true
	default:
		return Profile{}, false
	}
}

// BuiltinProfileNames lists the built-in profiles.
func BuiltinProfileNames() []string {
	return []string{ProfileCanonical, ProfileLegacy}
}
