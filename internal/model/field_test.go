package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFieldRegistry(t *testing.T) {
	t.Parallel()

	fields := []FieldMapping{
		{Key: FieldCombinedScore, Label: "Lead Score", SFField: "Lead_Score__c", Required: true},
		{Key: FieldTier, Label: "Lead Tier", SFField: "Lead_Tier__c", Required: true},
		{Key: FieldReason, Label: "Lead Score Reason", SFField: "Lead_Score_Reason__c"},
		{Key: FieldScoredAt, Label: "Lead Scored At"},
	}

	reg := NewFieldRegistry(fields)

	t.Run("ByKey returns correct mapping", func(t *testing.T) {
		t.Parallel()
		f := reg.ByKey(FieldCombinedScore)
		require.NotNil(t, f)
		assert.Equal(t, "Lead_Score__c", f.SFField)
	})

	t.Run("ByKey returns nil for unknown key", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, reg.ByKey("nonexistent"))
	})

	t.Run("BySFName returns correct mapping", func(t *testing.T) {
		t.Parallel()
		f := reg.BySFName("Lead_Tier__c")
		require.NotNil(t, f)
		assert.Equal(t, FieldTier, f.Key)
	})

	t.Run("BySFName skips empty SF field", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, reg.BySFName(""))
	})

	t.Run("Required returns only required fields", func(t *testing.T) {
		t.Parallel()
		assert.Len(t, reg.Required(), 2)
		assert.Empty(t, reg.Unresolved())
	})
}

func TestFieldRegistry_Unresolved(t *testing.T) {
	t.Parallel()
	reg := NewFieldRegistry(DefaultScoreFields("Contact"))
	assert.Equal(t, []string{FieldCombinedScore, FieldTier}, reg.Unresolved())
	assert.Len(t, reg.Fields, 6)
	assert.Equal(t, "Contact", reg.ByKey(FieldReason).SFObject)
}

func TestNewFieldRegistryEmpty(t *testing.T) {
	t.Parallel()
	reg := NewFieldRegistry(nil)
	assert.NotNil(t, reg)
	assert.Empty(t, reg.Fields)
	assert.Nil(t, reg.ByKey("anything"))
	assert.Empty(t, reg.Required())
}

func TestFieldMapping_Truncate(t *testing.T) {
	t.Parallel()
	f := FieldMapping{MaxLength: 5}
	assert.Equal(t, "Starkt", FieldMapping{}.Truncate("Starkt"))
	assert.Equal(t, "Stark", f.Truncate("Starkt företag"))
	assert.Equal(t, "Guld:", FieldMapping{MaxLength: 5}.Truncate("Guld: Roll"))
	assert.Equal(t, "åäö", f.Truncate("åäö"))
}
