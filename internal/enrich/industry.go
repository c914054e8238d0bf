package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/resilience"
	"github.com/sells-group/leadscore-cli/pkg/perplexity"
)

const industrySystemPrompt = `You classify Swedish companies by industry.
Answer with a short industry label in English of at most five words and nothing else.
Answer "unknown" if you cannot tell.`

// IndustryResolver asks a web-search model for a company's industry.
type IndustryResolver struct {
	client   perplexity.Client
	breakers *resilience.ServiceBreakers
	source   *CachedSource[string]
}

// NewIndustryResolver creates a resolver backed by client.
func NewIndustryResolver(client perplexity.Client, sb *resilience.ServiceBreakers, caches ...Cache) *IndustryResolver {
	return &IndustryResolver{
		client:   client,
		breakers: sb,
		source:   NewCachedSource[string]("industry", caches...),
	}
}

// Resolve returns an industry label for the account, or "" when the model
// does not know.
func (r *IndustryResolver) Resolve(ctx context.Context, acct model.Account) (string, error) {
	name := strings.TrimSpace(acct.Name)
	if name == "" {
		return "", nil
	}
	key := strings.ToLower(acct.LookupKey())
	return r.source.Get(ctx, key, func(ctx context.Context) (string, error) {
		return resilience.Call(ctx, r.breakers, "perplexity", breakerOnly, func(ctx context.Context) (string, error) {
			answer, err := perplexity.Ask(ctx, r.client, industrySystemPrompt, industryQuestion(acct))
			if err != nil {
				return "", err
			}
			return cleanIndustry(answer), nil
		})
	})
}

func industryQuestion(acct model.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Which industry is the Swedish company %s in?", strings.TrimSpace(acct.Name))
	if acct.OrgNumber != "" {
		fmt.Fprintf(&b, " Organisation number: %s.", acct.OrgNumber)
	}
	if acct.Website != "" {
		fmt.Fprintf(&b, " Website: %s.", acct.Website)
	}
	return b.String()
}

func cleanIndustry(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, " .\"'`*")
	if strings.EqualFold(s, "unknown") {
		return ""
	}
	return s
}
