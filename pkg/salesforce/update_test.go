package salesforce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/scoring"
)

func TestScoreFields(t *testing.T) {
	reg := model.NewFieldRegistry([]model.FieldMapping{
		{Key: model.FieldCombinedScore, SFField: "Lead_Score__c"},
		{Key: model.FieldTier, SFField: "Lead_Tier__c"},
		{Key: model.FieldReason, SFField: "Lead_Reason__c", MaxLength: 10},
		{Key: model.FieldScoredAt, SFField: "Lead_Scored_At__c"},
		{Key: model.FieldPersonScore},
	})
	res := scoring.ScoringResult{CombinedScore: 96, PersonScore: 92, Tier: scoring.TierGold, Reason: "Guld: Roll: CEO (beslutsfattare)."}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	fields := ScoreFields(reg, res, at)
	assert.Equal(t, map[string]any{
		"Lead_Score__c":     96,
		"Lead_Tier__c":      "GOLD",
		"Lead_Reason__c":    "Guld: Roll",
		"Lead_Scored_At__c": "2026-03-01T11:00:00Z",
	}, fields)
}

func TestBulkUpdateContacts_Batches(t *testing.T) {
	records := make([]CollectionRecord, 450)
	for i := range records {
		records[i] = CollectionRecord{ID: fmt.Sprintf("003%03d", i), Fields: map[string]any{"Lead_Score__c": i % 100}}
	}

	var sizes []int
	mock := &mockClient{
		updateCollectionFn: func(_ context.Context, object string, batch []CollectionRecord) ([]CollectionResult, error) {
			assert.Equal(t, "Contact", object)
			sizes = append(sizes, len(batch))
			out := make([]CollectionResult, len(batch))
			for i, r := range batch {
				out[i] = CollectionResult{ID: r.ID, Success: r.ID != "003007"}
				if !out[i].Success {
					out[i] = CollectionResult{Errors: []string{"ENTITY_IS_DELETED"}}
				}
			}
			return out, nil
		},
	}

	sum, err := BulkUpdateContacts(context.Background(), mock, "Contact", records)
	require.NoError(t, err)
	assert.Equal(t, []int{200, 200, 50}, sizes)
	assert.Equal(t, 449, sum.Updated)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, []string{"ENTITY_IS_DELETED"}, sum.Errors["003007"])
}

func TestBulkUpdateContacts_BatchError(t *testing.T) {
	calls := 0
	mock := &mockClient{
		updateCollectionFn: func(_ context.Context, _ string, batch []CollectionRecord) ([]CollectionResult, error) {
			calls++
			if calls == 2 {
				return nil, errors.New("REQUEST_LIMIT_EXCEEDED")
			}
			out := make([]CollectionResult, len(batch))
			for i := range out {
				out[i].Success = true
			}
			return out, nil
		},
	}
	records := make([]CollectionRecord, 300)
	sum, err := BulkUpdateContacts(context.Background(), mock, "Contact", records)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "batch 200-300"))
	assert.Equal(t, 200, sum.Updated)
}

func TestBulkUpdateContacts_Empty(t *testing.T) {
	sum, err := BulkUpdateContacts(context.Background(), &mockClient{}, "Contact", nil)
	require.NoError(t, err)
	assert.Zero(t, sum.Updated)
}
