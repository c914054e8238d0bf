package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/config"
	"github.com/sells-group/leadscore-cli/internal/icp"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/internal/store"
	"github.com/sells-group/leadscore-cli/pkg/salesforce"
	salesforcemocks "github.com/sells-group/leadscore-cli/pkg/salesforce/mocks"
)

func ptr[T any](v T) *T { return &v }

// passthroughEnricher copies CRM values into scoring inputs without any
// external lookups.
type passthroughEnricher struct {
	calls atomic.Int32
}

func (e *passthroughEnricher) Enrich(_ context.Context, lead model.Lead) (scoring.PersonInput, scoring.CompanyInput) {
	e.calls.Add(1)
	person := scoring.PersonInput{Functions: lead.Functions, Activities90d: lead.Activities90d}
	if lead.Relationship != "" {
		rel := lead.Relationship
		person.RelationshipStrength = &rel
	}
	company := scoring.CompanyInput{Revenue: lead.Account.AnnualRevenue, Employees: lead.Account.Employees}
	if lead.Account.Industry != "" {
		ind := lead.Account.Industry
		company.Industry = &ind
	}
	return person, company
}

var testContacts = []salesforce.Contact{
	{
		ID: "003A", Name: "Anna Andersson", Title: "VD", Functions: "CEO;Board",
		Relationship: "We know each other", AccountID: "001A",
		Account: &salesforce.ContactAccount{Name: "Acme AB", Industry: "Software", AnnualRevenue: ptr(60e6)},
	},
	{
		ID: "003B", Name: "Bo Berg", AccountID: "001B",
		Account: &salesforce.ContactAccount{Name: "Berg Bygg AB"},
	},
}

func isSOQL(from string) any {
	return mock.MatchedBy(func(soql string) bool { return strings.Contains(soql, "FROM "+from) })
}

func expectContacts(sf *salesforcemocks.MockClient, contacts []salesforce.Contact) {
	sf.On("Query", mock.Anything, isSOQL("Contact"), mock.Anything).
		Return(func(_ context.Context, _ string, out any) error {
			*out.(*[]salesforce.Contact) = contacts
			return nil
		}).Once()
}

func expectActivities(sf *salesforcemocks.MockClient, rows string) {
	sf.On("Query", mock.Anything, isSOQL("Task"), mock.Anything).
		Return(func(_ context.Context, _ string, out any) error {
			return json.Unmarshal([]byte(rows), out)
		}).Once()
}

func expectDescribe(sf *salesforcemocks.MockClient) {
	sf.On("DescribeSObject", mock.Anything, "Contact").Return(&salesforce.SObjectDescription{
		Name: "Contact",
		Fields: []salesforce.SObjectField{
			{Name: "Lead_Score__c", Label: "Lead Score", Type: "double", Updateable: true},
			{Name: "Lead_Tier__c", Label: "Lead Tier", Type: "string", Length: 10, Updateable: true},
			{Name: "Lead_Score_Reason__c", Label: "Lead Score Reason", Type: "textarea", Length: 255, Updateable: true},
		},
	}, nil).Once()
}

type fixture struct {
	sf       *salesforcemocks.MockClient
	store    *store.SQLiteStore
	enricher *passthroughEnricher
	sync     *Sync
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	sf := salesforcemocks.NewMockClient(t)
	enricher := &passthroughEnricher{}
	cache := icp.NewCache(icp.StaticLoader(scoring.CanonicalProfile()))
	fields := salesforce.NewFieldMapCache(sf, model.DefaultScoreFields("Contact"))
	cfg := config.SyncConfig{Concurrency: 4, Limit: 50, ScoreObject: "Contact"}

	return &fixture{
		sf:       sf,
		store:    st,
		enricher: enricher,
		sync:     New(sf, st, cache, enricher, fields, cfg),
	}
}

func TestSync_Run(t *testing.T) {
	f := newFixture(t)
	expectContacts(f.sf, testContacts)
	expectActivities(f.sf, `[{"WhoId":"003A","cnt":7}]`)
	expectDescribe(f.sf)

	var written []salesforce.CollectionRecord
	f.sf.On("UpdateCollection", mock.Anything, "Contact", mock.Anything).
		Return(func(_ context.Context, _ string, recs []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error) {
			written = recs
			return []salesforce.CollectionResult{
				{ID: "003A", Success: true},
				{Success: false, Errors: []string{"FIELD_CUSTOM_VALIDATION_EXCEPTION"}},
			}, nil
		}).Once()

	report, err := f.sync.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.enricher.calls.Load())
	require.Len(t, report.Results, 2)
	assert.Equal(t, "003A", report.Results[0].Lead.ContactID)
	assert.Equal(t, 7, *report.Results[0].Lead.Activities90d)
	assert.Equal(t, 0, *report.Results[1].Lead.Activities90d)
	assert.Greater(t, report.Results[0].Result.CombinedScore, report.Results[1].Result.CombinedScore)

	require.Len(t, written, 2)
	assert.Equal(t, "003A", written[0].ID)
	assert.Equal(t, report.Results[0].Result.CombinedScore, written[0].Fields["Lead_Score__c"])
	assert.Equal(t, string(report.Results[0].Result.Tier), written[0].Fields["Lead_Tier__c"])
	assert.Contains(t, written[0].Fields, "Lead_Score_Reason__c")
	assert.NotContains(t, written[0].Fields, "Lead_Scored_At__c")

	run, err := f.store.GetRun(context.Background(), report.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, scoring.ProfileCanonical, run.ProfileName)
	assert.Equal(t, icp.Hash(scoring.CanonicalProfile()), run.ProfileHash)
	assert.Equal(t, 2, run.Stats.Contacts)
	assert.Equal(t, 2, run.Stats.Scored)
	assert.Equal(t, 1, run.Stats.Updated)
	assert.Equal(t, 1, run.Stats.Failed)

	tierTotal := 0
	for _, n := range run.Stats.Tiers {
		tierTotal += n
	}
	assert.Equal(t, 2, tierTotal)

	saved, err := f.store.ListResults(context.Background(), report.Run.ID, 10)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestSync_DryRunSkipsWriteBack(t *testing.T) {
	f := newFixture(t)
	expectContacts(f.sf, testContacts[:1])
	expectActivities(f.sf, `[]`)

	report, err := f.sync.Run(context.Background(), Options{DryRun: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	f.sf.AssertNotCalled(t, "UpdateCollection", mock.Anything, mock.Anything, mock.Anything)
	f.sf.AssertNotCalled(t, "DescribeSObject", mock.Anything, mock.Anything)

	run, err := f.store.GetRun(context.Background(), report.Run.ID)
	require.NoError(t, err)
	assert.True(t, run.DryRun)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Zero(t, run.Stats.Updated)
}

func TestSync_NoContacts(t *testing.T) {
	f := newFixture(t)
	expectContacts(f.sf, nil)

	report, err := f.sync.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, model.RunStatusComplete, report.Run.Status)
	assert.Zero(t, f.enricher.calls.Load())
}

func TestSync_FailuresMarkRunFailed(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sf *salesforcemocks.MockClient)
		wantErr string
	}{
		{
			name: "contact query",
			setup: func(sf *salesforcemocks.MockClient) {
				sf.On("Query", mock.Anything, isSOQL("Contact"), mock.Anything).Return(errors.New("INVALID_SESSION_ID")).Once()
			},
			wantErr: "pipeline: query contacts",
		},
		{
			name: "activity count",
			setup: func(sf *salesforcemocks.MockClient) {
				expectContacts(sf, testContacts)
				sf.On("Query", mock.Anything, isSOQL("Task"), mock.Anything).Return(errors.New("timeout")).Once()
			},
			wantErr: "pipeline: count activities",
		},
		{
			name: "missing score fields",
			setup: func(sf *salesforcemocks.MockClient) {
				expectContacts(sf, testContacts)
				expectActivities(sf, `[]`)
				sf.On("DescribeSObject", mock.Anything, "Contact").Return(&salesforce.SObjectDescription{Name: "Contact"}, nil).Once()
			},
			wantErr: "pipeline: resolve score fields",
		},
		{
			name: "update batch",
			setup: func(sf *salesforcemocks.MockClient) {
				expectContacts(sf, testContacts)
				expectActivities(sf, `[]`)
				expectDescribe(sf)
				sf.On("UpdateCollection", mock.Anything, "Contact", mock.Anything).Return(nil, errors.New("REQUEST_LIMIT_EXCEEDED")).Once()
			},
			wantErr: "pipeline: write scores",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f.sf)

			_, err := f.sync.Run(context.Background(), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			runs, err := f.store.ListRuns(context.Background(), store.RunFilter{})
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, model.RunStatusFailed, runs[0].Status)
			assert.Contains(t, runs[0].Error, tt.wantErr)
		})
	}
}

func TestSync_ProfileLoadError(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	cache := icp.NewCache(func(context.Context) (scoring.Profile, int, error) {
		return scoring.Profile{}, 0, errors.New("corrupt profile")
	})
	s := New(salesforcemocks.NewMockClient(t), st, cache, &passthroughEnricher{}, nil, config.SyncConfig{})

	_, err = s.Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: load profile")

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
