package salesforce

import (
	"context"
)

// mockClient is a hand-written Client for unit tests.
type mockClient struct {
	queryFn            func(ctx context.Context, soql string, out any) error
	updateCollectionFn func(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error)
	describeSObjectFn  func(ctx context.Context, name string) (*SObjectDescription, error)

	describeCalls int
}

func (m *mockClient) Query(ctx context.Context, soql string, out any) error {
	if m.queryFn != nil {
		return m.queryFn(ctx, soql, out)
	}
	return nil
}

func (m *mockClient) UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
	if m.updateCollectionFn != nil {
		return m.updateCollectionFn(ctx, sObjectName, records)
	}
	results := make([]CollectionResult, len(records))
	for i, r := range records {
		results[i] = CollectionResult{ID: r.ID, Success: true}
	}
	return results, nil
}

func (m *mockClient) DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error) {
	m.describeCalls++
	if m.describeSObjectFn != nil {
		return m.describeSObjectFn(ctx, name)
	}
	return &SObjectDescription{Name: name}, nil
}

var _ Client = (*mockClient)(nil)
