package salesforce

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/scoring"
)

// maxBatchSize is the Collections API limit per request.
const maxBatchSize = 200

// ScoreFields builds the update payload for one result. Fields without an
// API name are skipped and text is cut to the field's length.
func ScoreFields(reg *model.FieldRegistry, res scoring.ScoringResult, scoredAt time.Time) map[string]any {
	values := map[string]any{
		model.FieldCombinedScore: res.CombinedScore,
		model.FieldPersonScore:   res.PersonScore,
		model.FieldCompanyScore:  res.CompanyScore,
		model.FieldTier:          string(res.Tier),
		model.FieldReason:        res.Reason,
		model.FieldScoredAt:      scoredAt.UTC().Format(time.RFC3339),
	}

	fields := make(map[string]any, len(values))
	for key, v := range values {
		f := reg.ByKey(key)
		if f == nil || f.SFField == "" {
			continue
		}
		if s, ok := v.(string); ok {
			v = f.Truncate(s)
		}
		fields[f.SFField] = v
	}
	return fields
}

// UpdateSummary counts the outcome of a bulk update.
type UpdateSummary struct {
	Updated int
	Failed  int
	Errors  map[string][]string
}

// BulkUpdateContacts writes records in batches of 200. A failing batch stops
// the update; per-record failures are collected in the summary.
func BulkUpdateContacts(ctx context.Context, c Client, object string, records []CollectionRecord) (UpdateSummary, error) {
	sum := UpdateSummary{Errors: make(map[string][]string)}

	for start := 0; start < len(records); start += maxBatchSize {
		end := min(start+maxBatchSize, len(records))
		batch := records[start:end]
		results, err := c.UpdateCollection(ctx, object, batch)
		if err != nil {
			return sum, eris.Wrapf(err, "sf: bulk update %s batch %d-%d", object, start, end)
		}
		// Results come back in request order; failed rows may carry no id.
		for i, r := range results {
			if r.Success {
				sum.Updated++
				continue
			}
			id := r.ID
			if id == "" && i < len(batch) {
				id = batch[i].ID
			}
			sum.Failed++
			sum.Errors[id] = r.Errors
			zap.L().Warn("sf: record update failed",
				zap.String("object", object),
				zap.String("id", id),
				zap.Strings("errors", r.Errors),
			)
		}
	}
	return sum, nil
}
