package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for profiles, sync runs and
// scoring results.
type Store interface {
	// Profiles
	SaveProfile(ctx context.Context, name, hash string, doc []byte) (*model.ProfileVersion, error)
	LatestProfile(ctx context.Context) (*model.ProfileVersion, error)
	ListProfileVersions(ctx context.Context, limit int) ([]model.ProfileVersion, error)

	// Runs
	CreateRun(ctx context.Context, profileName, profileHash string, dryRun bool) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stats model.RunStats) error
	FailRun(ctx context.Context, runID string, stats model.RunStats, cause string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Results
	SaveResults(ctx context.Context, records []model.ScoreRecord) (int, error)
	ListResults(ctx context.Context, runID string, limit int) ([]model.ScoreRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
