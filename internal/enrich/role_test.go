package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/pkg/anthropic"
	anthropicmocks "github.com/sells-group/leadscore-cli/pkg/anthropic/mocks"
)

func TestMatchRoles(t *testing.T) {
	roles := scoring.CanonicalProfile().Roles
	extractor := NewRoleExtractor(nil, roles, nil)

	tests := []struct {
		title string
		want  []string
	}{
		{title: "VD & Grundare", want: []string{"VD", "Grundare"}},
		{title: "Head of Sales, Nordics", want: []string{"Head of Sales", "Sales"}},
		{title: "ceo", want: []string{"CEO"}},
		{title: "Ägare och styrelseordförande", want: []string{"Ägare"}},
		{title: "Salesman", want: []string{}},
		{title: "Chief Happiness Officer", want: []string{}},
		{title: "  ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := extractor.Extract(context.Background(), tt.title)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRoleAnswer(t *testing.T) {
	known := []string{"CEO", "CFO", "VD"}

	got, err := parseRoleAnswer("Sure:\n[\"vd\", \"CEO\", \"Janitor\", \"VD\"]", known)
	require.NoError(t, err)
	assert.Equal(t, []string{"VD", "CEO"}, got)

	got, err = parseRoleAnswer("[]", known)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseRoleAnswer("no idea", known)
	require.Error(t, err)

	_, err = parseRoleAnswer("[CEO]", known)
	require.Error(t, err)
}

func roleResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Model:   anthropic.DefaultModel,
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func TestRoleExtractor_UsesModel(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 1 && req.System == roleSystemPrompt
	})).Return(roleResponse(`["CFO"]`), nil).Once()

	r := NewRoleExtractor(client, scoring.CanonicalProfile().Roles, nil, NewMemoryCache(10, time.Minute))

	assert.Equal(t, []string{"CFO"}, r.Extract(context.Background(), "Ekonomidirektör"))
	assert.Equal(t, []string{"CFO"}, r.Extract(context.Background(), "EKONOMIDIREKTÖR"), "folded title should hit the cache")
}

func TestRoleExtractor_FallsBackToKeywords(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	r := NewRoleExtractor(client, scoring.CanonicalProfile().Roles, nil)
	assert.Equal(t, []string{"CTO", "Owner"}, r.Extract(context.Background(), "CTO / Co-owner"))
}
