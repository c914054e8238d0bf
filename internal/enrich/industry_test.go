package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/pkg/perplexity"
)

type fakePerplexity struct {
	answer string
	err    error
	calls  int
	last   perplexity.ChatCompletionRequest
}

func (f *fakePerplexity) ChatCompletion(_ context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: f.answer}}},
	}, nil
}

func TestCleanIndustry(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "Software.", want: "Software"},
		{in: `"IT consulting"`, want: "IT consulting"},
		{in: "**Manufacturing**\nThe company makes...", want: "Manufacturing"},
		{in: "Unknown", want: ""},
		{in: "  ", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanIndustry(tt.in), tt.in)
	}
}

func TestIndustryResolver(t *testing.T) {
	acct := model.Account{Name: "Acme AB", OrgNumber: "556677-8899", Website: "acme.se"}
	fake := &fakePerplexity{answer: "Software."}
	r := NewIndustryResolver(fake, nil, NewMemoryCache(10, time.Minute))

	got, err := r.Resolve(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, "Software", got)
	require.Len(t, fake.last.Messages, 2)
	assert.Contains(t, fake.last.Messages[1].Content, "Acme AB")
	assert.Contains(t, fake.last.Messages[1].Content, "556677-8899")
	assert.Contains(t, fake.last.Messages[1].Content, "acme.se")

	_, err = r.Resolve(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)
}

func TestIndustryResolver_NoName(t *testing.T) {
	fake := &fakePerplexity{}
	got, err := NewIndustryResolver(fake, nil).Resolve(context.Background(), model.Account{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, fake.calls)
}

func TestIndustryResolver_Error(t *testing.T) {
	fake := &fakePerplexity{err: errors.New("perplexity: status 500")}
	_, err := NewIndustryResolver(fake, nil).Resolve(context.Background(), model.Account{Name: "Acme"})
	require.Error(t, err)
}
