// Package enrich turns CRM leads into scoring inputs, filling gaps from the
// company registry, a geocoder and two language models. Every lookup is best
// effort: a failure is logged and the affected attribute stays absent.
package enrich

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/resilience"
	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/pkg/companydata"
)

// breakerOnly runs a call through the service breaker without retrying;
// the clients retry on their own.
var breakerOnly = resilience.RetryConfig{MaxAttempts: 1}

// Options wires the collaborators of an Enricher. Any of them may be nil.
type Options struct {
	Companies companydata.Client
	Distance  *DistanceResolver
	Roles     *RoleExtractor
	Industry  *IndustryResolver
	Breakers  *resilience.ServiceBreakers
	Caches    []Cache
}

// Enricher builds scoring inputs from leads.
type Enricher struct {
	companies companydata.Client
	source    *CachedSource[*companydata.Company]
	distance  *DistanceResolver
	roles     *RoleExtractor
	industry  *IndustryResolver
	breakers  *resilience.ServiceBreakers
}

// New creates an Enricher.
func New(opts Options) *Enricher {
	return &Enricher{
		companies: opts.Companies,
		source:    NewCachedSource[*companydata.Company]("company", opts.Caches...),
		distance:  opts.Distance,
		roles:     opts.Roles,
		industry:  opts.Industry,
		breakers:  opts.Breakers,
	}
}

// Enrich returns the person and company inputs for lead. CRM values take
// precedence; external sources only fill attributes the CRM lacks.
func (e *Enricher) Enrich(ctx context.Context, lead model.Lead) (scoring.PersonInput, scoring.CompanyInput) {
	log := zap.L().With(zap.String("contact_id", lead.ContactID))
	return e.person(ctx, lead), e.company(ctx, lead.Account, log)
}

func (e *Enricher) person(ctx context.Context, lead model.Lead) scoring.PersonInput {
	in := scoring.PersonInput{Activities90d: lead.Activities90d}
	if rel := strings.TrimSpace(lead.Relationship); rel != "" {
		in.RelationshipStrength = &rel
	}
	for _, f := range lead.Functions {
		if f = strings.TrimSpace(f); f != "" {
			in.Functions = append(in.Functions, f)
		}
	}
	if len(in.Functions) == 0 && e.roles != nil {
		in.Functions = e.roles.Extract(ctx, lead.Title)
	}
	return in
}

func (e *Enricher) company(ctx context.Context, acct model.Account, log *zap.Logger) scoring.CompanyInput {
	in := scoring.CompanyInput{
		Revenue:   acct.AnnualRevenue,
		Employees: acct.Employees,
		Score:     acct.Rating,
	}
	if ind := strings.TrimSpace(acct.Industry); ind != "" {
		in.Industry = &ind
	}

	if e.companies != nil && acct.LookupKey() != "" {
		co, err := e.lookupCompany(ctx, acct)
		switch {
		case err != nil:
			log.Warn("enrich: company lookup failed", zap.String("account", acct.LookupKey()), zap.Error(err))
		case co != nil:
			mergeCompany(&in, co)
		}
	}

	if in.Industry == nil && e.industry != nil {
		label, err := e.industry.Resolve(ctx, acct)
		if err != nil {
			log.Warn("enrich: industry lookup failed", zap.String("account", acct.Name), zap.Error(err))
		} else if label != "" {
			in.Industry = &label
		}
	}

	if e.distance != nil {
		km, err := e.distance.Distance(ctx, acct)
		if err != nil {
			log.Warn("enrich: distance lookup failed", zap.String("account", acct.Name), zap.Error(err))
		}
		in.DistanceKM = km
	}
	return in
}

// lookupCompany returns nil without error when the registry has no match, so
// misses are cached too.
func (e *Enricher) lookupCompany(ctx context.Context, acct model.Account) (*companydata.Company, error) {
	q := companydata.Query{OrgNumber: acct.OrgNumber, Name: acct.Name}
	return e.source.Get(ctx, q.Key(), func(ctx context.Context) (*companydata.Company, error) {
		co, err := resilience.Call(ctx, e.breakers, "companydata", breakerOnly, func(ctx context.Context) (*companydata.Company, error) {
			return e.companies.Lookup(ctx, q)
		})
		if errors.Is(err, companydata.ErrNotFound) {
			return nil, nil
		}
		return co, err
	})
}

func mergeCompany(in *scoring.CompanyInput, co *companydata.Company) {
	if in.Revenue == nil {
		in.Revenue = co.Revenue
	}
	if in.CAGR3y == nil {
		in.CAGR3y = co.CAGR3Y
	}
	if in.Industry == nil && strings.TrimSpace(co.Industry) != "" {
		ind := strings.TrimSpace(co.Industry)
		in.Industry = &ind
	}
	if in.Employees == nil {
		in.Employees = co.Employees
	}
	if in.Score == nil {
		in.Score = co.Rating
	}
}
