package icp

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/scoring"
)

// ProfileStore is the subset of the store the editor needs.
type ProfileStore interface {
	SaveProfile(ctx context.Context, name, hash string, doc []byte) (*model.ProfileVersion, error)
	LatestProfile(ctx context.Context) (*model.ProfileVersion, error)
}

// Active is the engine built from the current profile.
type Active struct {
	Engine  *scoring.Engine
	Name    string
	Hash    string
	Version int
}

// Loader produces the profile the cache should serve.
type Loader func(ctx context.Context) (scoring.Profile, int, error)

// Cache holds the engine for the active profile. Get builds it on first use
// and again only after Invalidate.
type Cache struct {
	load Loader

	mu     sync.Mutex
	active *Active
}

// NewCache creates a Cache that builds engines from load.
func NewCache(load Loader) *Cache {
	return &Cache{load: load}
}

// StaticLoader always serves p.
func StaticLoader(p scoring.Profile) Loader {
	return func(context.Context) (scoring.Profile, int, error) {
		return p, 0, nil
	}
}

// StoreLoader serves the latest stored profile version, or fallback when
// nothing has been applied yet.
func StoreLoader(st ProfileStore, fallback scoring.Profile) Loader {
	return func(ctx context.Context) (scoring.Profile, int, error) {
		pv, err := st.LatestProfile(ctx)
		if err != nil {
			return scoring.Profile{}, 0, eris.Wrap(err, "icp: latest profile")
		}
		if pv == nil {
			return fallback, 0, nil
		}
		p, err := Parse(pv.Document)
		if err != nil {
			return scoring.Profile{}, 0, eris.Wrapf(err, "icp: stored profile v%d", pv.Version)
		}
		return p, pv.Version, nil
	}
}

// Get returns the active engine.
func (c *Cache) Get(ctx context.Context) (*Active, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return c.active, nil
	}
	p, version, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.active = &Active{
		Engine:  scoring.NewEngine(p),
		Name:    p.Name,
		Hash:    Hash(p),
		Version: version,
	}
	zap.L().Debug("icp: engine built",
		zap.String("profile", p.Name),
		zap.String("hash", c.active.Hash),
		zap.Int("version", version),
	)
	return c.active, nil
}

// Invalidate drops the cached engine.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}

// Editor validates and persists profile changes.
type Editor struct {
	store ProfileStore
	cache *Cache
}

// NewEditor creates an Editor. cache may be nil.
func NewEditor(st ProfileStore, cache *Cache) *Editor {
	return &Editor{store: st, cache: cache}
}

// Apply validates p, stores it as a new version and invalidates the cached
// engine. Invalid profiles are never stored.
func (e *Editor) Apply(ctx context.Context, p scoring.Profile) (*model.ProfileVersion, error) {
	if err := scoring.ValidateProfile(p); err != nil {
		return nil, err
	}
	doc, err := Marshal(p)
	if err != nil {
		return nil, err
	}
	hash := Hash(p)

	pv, err := e.store.SaveProfile(ctx, p.Name, hash, doc)
	if err != nil {
		return nil, eris.Wrap(err, "icp: save profile")
	}
	if e.cache != nil {
		e.cache.Invalidate()
	}

	zap.L().Info("icp: profile applied",
		zap.String("profile", p.Name),
		zap.String("hash", hash),
		zap.Int("version", pv.Version),
	)
	return pv, nil
}
