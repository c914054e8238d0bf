package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/enrich"
	"github.com/sells-group/leadscore-cli/internal/export"
	"github.com/sells-group/leadscore-cli/internal/icp"
	"github.com/sells-group/leadscore-cli/internal/resilience"
	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/internal/store"
	"github.com/sells-group/leadscore-cli/pkg/anthropic"
	"github.com/sells-group/leadscore-cli/pkg/companydata"
	"github.com/sells-group/leadscore-cli/pkg/geocode"
	"github.com/sells-group/leadscore-cli/pkg/perplexity"
	"github.com/sells-group/leadscore-cli/pkg/salesforce"
)

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func initSalesforce() (salesforce.Client, error) {
	return salesforce.Connect(salesforce.Credentials{
		LoginURL: cfg.Salesforce.LoginURL,
		Username: cfg.Salesforce.Username,
		ClientID: cfg.Salesforce.ClientID,
		KeyPath:  cfg.Salesforce.KeyPath,
	}, salesforce.WithRateLimit(cfg.Salesforce.RateLimit))
}

// configuredProfile resolves the profile named by flag, falling back to the
// scoring section of the config. A flag value ending in .yaml or .yml is read
// as a file.
func configuredProfile(flag string) (scoring.Profile, error) {
	if flag != "" {
		if isProfilePath(flag) {
			return icp.LoadFile(flag)
		}
		return icp.Builtin(flag)
	}
	return icp.Resolve(cfg.Scoring.Profile, cfg.Scoring.ProfilePath)
}

func isProfilePath(s string) bool {
	s = strings.ToLower(s)
	return strings.HasSuffix(s, ".yaml") || strings.HasSuffix(s, ".yml")
}

// enrichment holds the enricher and the resources it keeps open.
type enrichment struct {
	enricher *enrich.Enricher
	breakers *resilience.ServiceBreakers
	memory   *enrich.MemoryCache
	closers  []io.Closer
}

func (e *enrichment) Close() {
	for _, c := range e.closers {
		c.Close() //nolint:errcheck
	}
}

// logStats reports cache effectiveness and any breaker left open or half-open.
func (e *enrichment) logStats() {
	stats := e.memory.Stats()
	zap.L().Info("enrich: cache stats",
		zap.Int("entries", stats.Entries),
		zap.Int64("hits", stats.Hits),
		zap.Int64("misses", stats.Misses),
		zap.Float64("hit_rate", stats.HitRate),
	)
	for name, state := range e.breakers.States() {
		if state != resilience.CircuitClosed {
			zap.L().Warn("enrich: upstream circuit not closed",
				zap.String("service", name),
				zap.String("state", state.String()),
			)
		}
	}
}

// initEnrichment builds the enricher from whatever upstream services are
// configured. Missing credentials disable the matching source.
func initEnrichment(ctx context.Context, profile scoring.Profile) *enrichment {
	log := zap.L()
	out := &enrichment{
		breakers: resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     time.Minute,
			OnStateChange: func(from, to resilience.CircuitState) {
				log.Warn("enrich: circuit state change",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}

	out.memory = enrich.NewMemoryCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
	caches := []enrich.Cache{out.memory}
	if cfg.Redis.URL != "" {
		rc, err := enrich.OpenRedis(ctx, cfg.Redis.URL, time.Duration(cfg.Redis.TTLHours)*time.Hour)
		if err != nil {
			log.Warn("enrich: redis cache disabled", zap.Error(err))
		} else {
			caches = append(caches, rc)
			out.closers = append(out.closers, rc)
		}
	}

	opts := enrich.Options{Breakers: out.breakers, Caches: caches}

	if cfg.CompanyData.Key != "" {
		opts.Companies = companydata.NewClient(cfg.CompanyData.Key,
			companydata.WithBaseURL(cfg.CompanyData.BaseURL),
			companydata.WithRateLimit(cfg.CompanyData.RateLimit),
		)
	}

	var providers []geocode.Provider
	if cfg.Geocode.GoogleKey != "" {
		providers = append(providers, geocode.NewGoogleProvider(cfg.Geocode.GoogleKey,
			geocode.WithRateLimit(cfg.Geocode.RateLimit)))
	}
	if cfg.Geocode.NominatimURL != "" {
		providers = append(providers, geocode.NewNominatimProvider(cfg.Geocode.UserAgent,
			geocode.WithBaseURL(cfg.Geocode.NominatimURL),
			geocode.WithRateLimit(cfg.Geocode.RateLimit)))
	}
	if len(providers) > 0 {
		opts.Distance = enrich.NewDistanceResolver(geocode.NewCascadeClient(providers...), out.breakers,
			cfg.Geocode.ReferenceLat, cfg.Geocode.ReferenceLon, caches...)
	}

	var ai anthropic.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropic.NewClient(cfg.Anthropic.Key, anthropic.WithModel(cfg.Anthropic.Model))
	}
	opts.Roles = enrich.NewRoleExtractor(ai, profile.Roles, out.breakers, caches...)

	if cfg.Perplexity.Key != "" {
		px := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		opts.Industry = enrich.NewIndustryResolver(px, out.breakers, caches...)
	}

	log.Info("enrich: sources configured",
		zap.Bool("company_data", opts.Companies != nil),
		zap.Bool("distance", opts.Distance != nil),
		zap.Bool("roles_llm", ai != nil),
		zap.Bool("industry", opts.Industry != nil),
		zap.Int("cache_layers", len(caches)),
	)

	out.enricher = enrich.New(opts)
	return out
}

// openOutput returns the destination for command output. Binary formats
// need a file.
func openOutput(path string, format export.Format) (io.Writer, func(), error) {
	if path == "" {
		if format.Binary() {
			return nil, nil, eris.Errorf("%s output requires --output", format)
		}
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output file %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}
