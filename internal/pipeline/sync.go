// Package pipeline runs the CRM sync: read contacts, enrich them, score them
// with the active profile and write the scores back.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscore-cli/internal/config"
	"github.com/sells-group/leadscore-cli/internal/icp"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/internal/store"
	"github.com/sells-group/leadscore-cli/pkg/salesforce"
)

// Enricher builds scoring inputs for a lead. It never fails; missing data
// stays absent.
type Enricher interface {
	Enrich(ctx context.Context, lead model.Lead) (scoring.PersonInput, scoring.CompanyInput)
}

// Options control a single sync.
type Options struct {
	// Limit caps the number of contacts; zero uses the configured limit.
	Limit int
	// ContactIDs restricts the sync to specific contacts.
	ContactIDs []string
	// DryRun scores and persists results without writing to the CRM.
	DryRun bool
}

// LeadResult pairs a lead with its score.
type LeadResult struct {
	Lead   model.Lead            `json:"lead"`
	Result scoring.ScoringResult `json:"result"`
}

// Report is the outcome of a sync.
type Report struct {
	Run     *model.Run   `json:"run"`
	Results []LeadResult `json:"results"`
}

// Sync wires the CRM, enrichment, scoring and persistence together.
type Sync struct {
	sf       salesforce.Client
	store    store.Store
	profiles *icp.Cache
	enricher Enricher
	fields   *salesforce.FieldMapCache
	cfg      config.SyncConfig
	now      func() time.Time
}

// New creates a Sync.
func New(sf salesforce.Client, st store.Store, profiles *icp.Cache, enricher Enricher, fields *salesforce.FieldMapCache, cfg config.SyncConfig) *Sync {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ScoreObject == "" {
		cfg.ScoreObject = "Contact"
	}
	return &Sync{
		sf:       sf,
		store:    st,
		profiles: profiles,
		enricher: enricher,
		fields:   fields,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run performs one sync. The run record is marked failed when any step after
// its creation fails.
func (s *Sync) Run(ctx context.Context, opts Options) (*Report, error) {
	active, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load profile")
	}

	run, err := s.store.CreateRun(ctx, active.Name, active.Hash, opts.DryRun)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("profile", active.Name))
	log.Info("pipeline: sync starting", zap.Bool("dry_run", opts.DryRun))
	start := s.now()

	var stats model.RunStats
	fail := func(err error) (*Report, error) {
		// The run record must be closed even when ctx was cancelled.
		if ferr := s.store.FailRun(context.WithoutCancel(ctx), run.ID, stats, err.Error()); ferr != nil {
			log.Error("pipeline: failed to mark run failed", zap.Error(ferr))
		}
		log.Error("pipeline: sync failed", zap.Error(err))
		return nil, err
	}

	leads, err := s.fetchLeads(ctx, opts)
	if err != nil {
		return fail(err)
	}
	stats.Contacts = len(leads)
	log.Info("pipeline: contacts loaded", zap.Int("contacts", len(leads)))

	items, err := s.enrichAll(ctx, leads)
	if err != nil {
		return fail(err)
	}

	scored := active.Engine.BulkScore(items)
	results := make([]LeadResult, len(scored))
	for i, r := range scored {
		results[i] = LeadResult{Lead: leads[i], Result: r.ScoringResult}
		stats.Scored++
		stats.CountTier(r.Tier)
	}

	scoredAt := s.now()
	if !opts.DryRun && len(results) > 0 {
		sum, err := s.writeBack(ctx, results, scoredAt)
		stats.Updated = sum.Updated
		stats.Failed = sum.Failed
		if err != nil {
			return fail(err)
		}
	}

	records := make([]model.ScoreRecord, len(results))
	for i, r := range results {
		records[i] = model.ScoreRecord{
			RunID:       run.ID,
			ContactID:   r.Lead.ContactID,
			AccountID:   r.Lead.Account.ID,
			ProfileHash: active.Hash,
			Result:      r.Result,
			CreatedAt:   scoredAt,
		}
	}
	if _, err := s.store.SaveResults(ctx, records); err != nil {
		return fail(eris.Wrap(err, "pipeline: save results"))
	}

	if err := s.store.CompleteRun(ctx, run.ID, stats); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete run")
	}
	run.Status = model.RunStatusComplete
	run.Stats = stats

	log.Info("pipeline: sync complete",
		zap.Int("contacts", stats.Contacts),
		zap.Int("updated", stats.Updated),
		zap.Int("failed", stats.Failed),
		zap.Any("tiers", stats.Tiers),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return &Report{Run: run, Results: results}, nil
}

func (s *Sync) fetchLeads(ctx context.Context, opts Options) ([]model.Lead, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.Limit
	}
	contacts, err := salesforce.QueryContacts(ctx, s.sf, salesforce.ContactQuery{Limit: limit, IDs: opts.ContactIDs})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: query contacts")
	}
	if len(contacts) == 0 {
		return nil, nil
	}

	ids := make([]string, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	counts, err := salesforce.CountActivities(ctx, s.sf, ids)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: count activities")
	}

	leads := make([]model.Lead, len(contacts))
	for i, c := range contacts {
		leads[i] = c.ToLead()
		n := counts[c.ID]
		leads[i].Activities90d = &n
	}
	return leads, nil
}

// enrichAll enriches leads concurrently and returns bulk items in lead order.
func (s *Sync) enrichAll(ctx context.Context, leads []model.Lead) ([]scoring.BulkItem, error) {
	items := make([]scoring.BulkItem, len(leads))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, lead := range leads {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			person, company := s.enricher.Enrich(gCtx, lead)
			items[i] = scoring.BulkItem{ID: lead.ContactID, Person: person, Company: company}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: enrich")
	}
	return items, nil
}

func (s *Sync) writeBack(ctx context.Context, results []LeadResult, scoredAt time.Time) (salesforce.UpdateSummary, error) {
	reg, err := s.fields.Get(ctx)
	if err != nil {
		return salesforce.UpdateSummary{}, eris.Wrap(err, "pipeline: resolve score fields")
	}
	records := make([]salesforce.CollectionRecord, len(results))
	for i, r := range results {
		records[i] = salesforce.CollectionRecord{
			ID:     r.Lead.ContactID,
			Fields: salesforce.ScoreFields(reg, r.Result, scoredAt),
		}
	}
	sum, err := salesforce.BulkUpdateContacts(ctx, s.sf, s.cfg.ScoreObject, records)
	if err != nil {
		return sum, eris.Wrap(err, "pipeline: write scores")
	}
	return sum, nil
}
