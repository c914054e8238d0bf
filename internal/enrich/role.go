package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/leadscore-cli/internal/resilience"
	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/pkg/anthropic"
)

const roleSystemPrompt = `You map job titles from a Swedish B2B CRM to a fixed list of role names.
Answer with a JSON array containing only names from the list, most senior first.
Answer [] when no role applies. Do not add any other text.`

// RoleExtractor turns a free-text job title into role names known to the
// scoring profile.
type RoleExtractor struct {
	client   anthropic.Client
	roles    []string
	breakers *resilience.ServiceBreakers
	source   *CachedSource[[]string]
}

// NewRoleExtractor creates an extractor for the role names of table. client
// may be nil, in which case only keyword matching is used.
func NewRoleExtractor(client anthropic.Client, table scoring.CategoryTable, sb *resilience.ServiceBreakers, caches ...Cache) *RoleExtractor {
	roles := slices.Sorted(maps.Keys(table.Scores))
	sum := sha256.Sum256([]byte(strings.Join(roles, "\x00")))
	return &RoleExtractor{
		client:   client,
		roles:    roles,
		breakers: sb,
		source:   NewCachedSource[[]string](fmt.Sprintf("roles-%x", sum[:4]), caches...),
	}
}

// Extract returns the roles found in title. Model failures fall back to
// keyword matching; a blank title yields nil.
func (r *RoleExtractor) Extract(ctx context.Context, title string) []string {
	title = strings.TrimSpace(title)
	if title == "" || len(r.roles) == 0 {
		return nil
	}
	if r.client == nil {
		return MatchRoles(title, r.roles)
	}

	roles, err := r.source.Get(ctx, cases.Fold().String(title), func(ctx context.Context) ([]string, error) {
		return resilience.Call(ctx, r.breakers, "anthropic", breakerOnly, func(ctx context.Context) ([]string, error) {
			return r.ask(ctx, title)
		})
	})
	if err != nil {
		zap.L().Warn("enrich: role extraction failed, using keyword match",
			zap.String("title", title), zap.Error(err))
		return MatchRoles(title, r.roles)
	}
	return roles
}

func (r *RoleExtractor) ask(ctx context.Context, title string) ([]string, error) {
	temp := 0.0
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		MaxTokens:   256,
		System:      roleSystemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf("Roles: %s\nTitle: %s", strings.Join(r.roles, ", "), title),
		}},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(resp.Model, "role_extraction")
	return parseRoleAnswer(resp.Text(), r.roles)
}

// parseRoleAnswer decodes the JSON array in text and keeps the entries that
// name a known role, in answer order and without duplicates.
func parseRoleAnswer(text string, known []string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, eris.Errorf("enrich: no JSON array in role answer %q", text)
	}
	var names []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &names); err != nil {
		return nil, eris.Wrap(err, "enrich: decode role answer")
	}

	fold := cases.Fold()
	out := make([]string, 0, len(names))
	for _, n := range names {
		want := fold.String(strings.TrimSpace(n))
		for _, role := range known {
			if fold.String(role) == want && !slices.Contains(out, role) {
				out = append(out, role)
				break
			}
		}
	}
	return out, nil
}

// MatchRoles finds role names that occur as whole words in title, ordered by
// where they first appear.
func MatchRoles(title string, roles []string) []string {
	words := tokenize(title)
	type hit struct {
		role string
		pos  int
	}
	var hits []hit
	for _, role := range roles {
		rw := tokenize(role)
		if len(rw) == 0 {
			continue
		}
		for i := 0; i+len(rw) <= len(words); i++ {
			if slices.Equal(words[i:i+len(rw)], rw) {
				hits = append(hits, hit{role: role, pos: i})
				break
			}
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.pos - b.pos })

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.role)
	}
	return out
}

func tokenize(s string) []string {
	fold := cases.Fold()
	return strings.FieldsFunc(fold.String(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
