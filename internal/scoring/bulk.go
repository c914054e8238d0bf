package scoring

// BulkItem is one entry of a bulk request. ID is echoed back unchanged and may
// be a string, a number or absent.
type BulkItem struct {
	ID      any          `json:"id,omitempty" yaml:"id,omitempty"`
	Person  PersonInput  `json:"person" yaml:"person"`
	Company CompanyInput `json:"company" yaml:"company"`
}

// BulkResult is a ScoringResult tagged with the caller's ID.
type BulkResult struct {
	ID any `json:"id,omitempty"`
	ScoringResult
}

// BulkScore scores every item independently and returns the results in input
// order.
func (e *Engine) BulkScore(items []BulkItem) []BulkResult {
	out := make([]BulkResult, 0, len(items))
	for _, it := range items {
		out = append(out, BulkResult{
			ID:            it.ID,
			ScoringResult: e.Score(it.Person, it.Company),
		})
	}
	return out
}
